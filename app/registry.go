package app

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/mbolis/survey-flow/log"
	"github.com/mbolis/survey-flow/metrics"
	"github.com/mbolis/survey-flow/model"
	"github.com/mbolis/survey-flow/store"
	"github.com/mbolis/survey-flow/survey"
)

// Registry holds the live sessions of the widget front-end. Sessions are
// loaded lazily, once per key, and dropped after ttl without activity; their
// answers survive in the backend until it expires them too.
type Registry struct {
	client  survey.Client
	backend store.Backend
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[store.Key]*entry
	loads    singleflight.Group
}

type entry struct {
	session *survey.Session
	seen    time.Time
}

func NewRegistry(client survey.Client, backend store.Backend, ttl time.Duration, m *metrics.Metrics) *Registry {
	return &Registry{
		client:   client,
		backend:  backend,
		ttl:      ttl,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[store.Key]*entry),
	}
}

// Get returns the session for key, loading the survey on first use.
// Concurrent first requests for the same key share one load.
func (reg *Registry) Get(ctx context.Context, key store.Key) (*survey.Session, error) {
	if sess, ok := reg.lookup(key); ok {
		return sess, nil
	}

	v, err, _ := reg.loads.Do(key.String(), func() (any, error) {
		if sess, ok := reg.lookup(key); ok {
			return sess, nil
		}

		sess, err := survey.Load(context.WithoutCancel(ctx), reg.client, key.Slug,
			survey.WithPersister(store.Bind(reg.backend, key)),
			survey.WithLogger(log.Session(key.Session, key.Slug)),
			survey.WithOnComplete(func(sv *model.Survey) {
				log.Session(key.Session, sv.Slug).Info("registry: response recorded")
			}),
			survey.WithOnSubmit(reg.countSubmission),
		)
		if err != nil {
			reg.countLoad("not_found")
			return nil, err
		}
		reg.countLoad("ok")

		reg.mu.Lock()
		reg.sessions[key] = &entry{session: sess, seen: reg.now()}
		reg.gauge()
		reg.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*survey.Session), nil
}

// Peek returns the session for key without loading it.
func (reg *Registry) Peek(key store.Key) (*survey.Session, bool) {
	return reg.lookup(key)
}

func (reg *Registry) lookup(key store.Key) (*survey.Session, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	e, ok := reg.sessions[key]
	if !ok {
		return nil, false
	}
	e.seen = reg.now()
	return e.session, true
}

// Drop forgets the session for key. The next Get loads it again.
func (reg *Registry) Drop(key store.Key) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.sessions, key)
	reg.gauge()
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

func (reg *Registry) Clear() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	clear(reg.sessions)
	reg.gauge()
}

// Sweep evicts sessions idle for longer than the ttl. Sessions with a
// submission in flight are kept.
func (reg *Registry) Sweep() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	cutoff := reg.now().Add(-reg.ttl)
	n := 0
	for key, e := range reg.sessions {
		if e.seen.After(cutoff) || e.session.Phase() == survey.PhaseSubmitting {
			continue
		}
		delete(reg.sessions, key)
		n++
	}
	reg.gauge()
	return n
}

// Run sweeps idle sessions, and purges expired snapshots from backends that
// need it, every interval until ctx is done.
func (reg *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n := reg.Sweep(); n > 0 {
			log.Debugf("registry.sweep: %d idle sessions evicted, %d live", n, reg.Len())
		}
		if p, ok := reg.backend.(store.Purger); ok {
			n, err := p.Purge(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warnf("registry.purge: %s", err)
			} else if n > 0 {
				log.Debugf("registry.purge: %d expired snapshots removed", n)
			}
		}
	}
}

func (reg *Registry) countLoad(result string) {
	if reg.metrics != nil {
		reg.metrics.SurveyLoads.WithLabelValues(result).Inc()
	}
}

func (reg *Registry) countSubmission(outcome survey.Outcome) {
	if reg.metrics != nil {
		reg.metrics.Submissions.WithLabelValues(outcome.String()).Inc()
	}
}

// gauge must be called with reg.mu held.
func (reg *Registry) gauge() {
	if reg.metrics != nil {
		reg.metrics.ActiveSessions.Set(float64(len(reg.sessions)))
	}
}
