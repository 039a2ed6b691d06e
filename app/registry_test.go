package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/survey-flow/metrics"
	"github.com/mbolis/survey-flow/store"
	"github.com/mbolis/survey-flow/survey"
	"github.com/mbolis/survey-flow/survey/surveytest"
)

func newRegistry(t *testing.T) (*Registry, *surveytest.Client, *metrics.Metrics) {
	t.Helper()
	client := &surveytest.Client{Survey: surveytest.Feedback()}
	m := metrics.New()
	return NewRegistry(client, store.NewMemory(time.Hour), 10*time.Minute, m), client, m
}

func TestRegistry_ConcurrentFirstLoadsShareOneFetch(t *testing.T) {
	reg, client, m := newRegistry(t)
	key := store.Key{Session: "s1", Slug: "feedback"}

	var wg sync.WaitGroup
	sessions := make([]*survey.Session, 8)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := reg.Get(context.Background(), key)
			assert.NoError(t, err)
			sessions[i] = sess
		}(i)
	}
	wg.Wait()

	for _, sess := range sessions[1:] {
		assert.Same(t, sessions[0], sess)
	}
	assert.Equal(t, 1, client.Loads())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestRegistry_SessionsAreIsolatedPerKey(t *testing.T) {
	reg, _, _ := newRegistry(t)
	ctx := context.Background()

	a, err := reg.Get(ctx, store.Key{Session: "s1", Slug: "feedback"})
	require.NoError(t, err)
	b, err := reg.Get(ctx, store.Key{Session: "s2", Slug: "feedback"})
	require.NoError(t, err)
	require.NotSame(t, a, b)

	require.NoError(t, a.SetChoice(ctx, 1, 11))
	_, ok := b.Answer(1)
	assert.False(t, ok)
}

func TestRegistry_NotFound(t *testing.T) {
	reg, _, m := newRegistry(t)

	_, err := reg.Get(context.Background(), store.Key{Session: "s1", Slug: "missing"})
	assert.ErrorIs(t, err, survey.ErrSurveyNotFound)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SurveyLoads.WithLabelValues("not_found")))
}

func TestRegistry_SweepEvictsIdleAndReloadRestoresAnswers(t *testing.T) {
	reg, client, _ := newRegistry(t)
	ctx := context.Background()
	key := store.Key{Session: "s1", Slug: "feedback"}

	now := time.Now()
	reg.now = func() time.Time { return now }

	sess, err := reg.Get(ctx, key)
	require.NoError(t, err)
	require.NoError(t, sess.SetChoice(ctx, 1, 11))
	_, err = sess.Advance(ctx)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 0, reg.Sweep())

	now = now.Add(11 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	_, ok := reg.Peek(key)
	assert.False(t, ok)

	again, err := reg.Get(ctx, key)
	require.NoError(t, err)
	assert.NotSame(t, sess, again)
	assert.Equal(t, 2, client.Loads())
	assert.Equal(t, 2, again.Progress().Position)
	a, ok := again.Answer(1)
	require.True(t, ok)
	assert.NotNil(t, a)
}

func TestApp_Close(t *testing.T) {
	a := New(testConfig(), &surveytest.Client{Survey: surveytest.Feedback()}, store.NewMemory(time.Hour))
	_, err := a.Sessions.Get(context.Background(), store.Key{Session: "s1", Slug: "feedback"})
	require.NoError(t, err)

	assert.NoError(t, a.Close())
	assert.Equal(t, 0, a.Sessions.Len())
}
