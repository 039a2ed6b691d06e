package survey

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/survey-flow/model"
)

func newSession(t *testing.T, client *fakeClient, opts ...Option) *Session {
	t.Helper()
	if client.survey == nil {
		client.survey = feedbackSurvey()
	}
	sess, err := Load(context.Background(), client, "feedback", opts...)
	require.NoError(t, err)
	return sess
}

func TestLoad_NotFound(t *testing.T) {
	client := &fakeClient{loadErr: errBoom}
	_, err := Load(context.Background(), client, "missing")
	assert.ErrorIs(t, err, ErrSurveyNotFound)
	assert.ErrorIs(t, err, errBoom)
}

func TestLoad_NoQuestions(t *testing.T) {
	client := &fakeClient{survey: &model.Survey{Slug: "empty"}}
	_, err := Load(context.Background(), client, "empty")
	assert.ErrorIs(t, err, ErrNoQuestions)
	assert.ErrorIs(t, err, ErrSurveyNotFound)
}

func TestLoad_UnknownQuestionType(t *testing.T) {
	sv := feedbackSurvey()
	sv.Questions[1].Type = "rating"
	sv.Questions[1].IsRequired = true

	_, err := Load(context.Background(), &fakeClient{survey: sv}, "feedback")
	assert.ErrorIs(t, err, ErrInvalidSurvey)
	assert.ErrorIs(t, err, ErrSurveyNotFound)
}

func TestNew_RejectsUnanswerableSurveys(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(sv *model.Survey)
	}{
		{"repeated question id", func(sv *model.Survey) { sv.Questions[2].ID = 1 }},
		{"repeated option id", func(sv *model.Survey) { sv.Questions[0].Options[1].ID = 11 }},
		{"required choice without options", func(sv *model.Survey) { sv.Questions[2].Options = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv := feedbackSurvey()
			tt.mutate(sv)
			_, err := New(sv, &fakeClient{})
			assert.ErrorIs(t, err, ErrInvalidSurvey)
		})
	}
}

func TestSession_OnSubmitFiresOncePerNetworkCall(t *testing.T) {
	ctx := context.Background()
	var outcomes []Outcome
	fail := true
	client := &fakeClient{submit: func(context.Context, model.SubmitRequest) error {
		if fail {
			return errBoom
		}
		return nil
	}}
	sess := newSession(t, client, WithOnSubmit(func(o Outcome) { outcomes = append(outcomes, o) }))
	answerAll(t, sess)

	_, err := sess.Submit(ctx)
	require.Error(t, err)
	fail = false
	_, err = sess.Submit(ctx)
	require.NoError(t, err)

	outcome, err := sess.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	outcome, err = sess.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)

	assert.Equal(t, []Outcome{OutcomeFailed, OutcomeSubmitted}, outcomes)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestSession_AdvanceGatedByCurrentQuestion(t *testing.T) {
	ctx := context.Background()
	sess := newSession(t, &fakeClient{})

	assert.False(t, sess.CanProceed())
	outcome, err := sess.Advance(ctx)
	assert.Equal(t, OutcomeIncomplete, outcome)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 1, sess.Progress().Position)

	require.NoError(t, sess.SetChoice(ctx, 1, 11))
	assert.True(t, sess.CanProceed())
	outcome, err = sess.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMoved, outcome)
	assert.Equal(t, 2, sess.Progress().Position)

	assert.True(t, sess.CanProceed(), "optional question")
}

func TestSession_BackAndForthKeepsAnswers(t *testing.T) {
	ctx := context.Background()
	sess := newSession(t, &fakeClient{})

	require.NoError(t, sess.SetChoice(ctx, 1, 12))
	_, err := sess.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SetText(ctx, 2, "half a thought "))
	_, err = sess.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Toggle(ctx, 3, 32))

	require.NoError(t, sess.Retreat(ctx))
	require.NoError(t, sess.Retreat(ctx))
	assert.ErrorIs(t, sess.Retreat(ctx), ErrCannotGoBack)

	a, ok := sess.Answer(1)
	require.True(t, ok)
	assert.Equal(t, model.SingleChoice{OptionID: 12}, a)

	_, err = sess.Advance(ctx)
	require.NoError(t, err)
	_, err = sess.Advance(ctx)
	require.NoError(t, err)

	a, _ = sess.Answer(2)
	assert.Equal(t, model.OpenText{Value: "half a thought "}, a)
	a, _ = sess.Answer(3)
	assert.Equal(t, model.MultipleChoice{OptionIDs: []int64{32}}, a)
}

func TestSession_SubmitPayload(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	sess := newSession(t, client)

	require.NoError(t, sess.SetChoice(ctx, 1, 11))
	_, err := sess.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SetText(ctx, 2, ""))
	_, err = sess.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Toggle(ctx, 3, 31))
	require.NoError(t, sess.Toggle(ctx, 3, 33))

	outcome, err := sess.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	assert.Equal(t, PhaseSubmitted, sess.Phase())

	require.Len(t, client.requests, 1)
	assert.Equal(t, []model.AnswerRecord{
		{QuestionID: 1, OptionIDs: []int64{11}, TextAnswer: ""},
		{QuestionID: 2, OptionIDs: []int64{}, TextAnswer: ""},
		{QuestionID: 3, OptionIDs: []int64{31, 33}, TextAnswer: ""},
	}, client.requests[0].Answers)

	_, ok := sess.Answer(1)
	assert.False(t, ok, "answers cleared after submission")
}

func TestSession_PayloadHasOneRecordPerQuestion(t *testing.T) {
	sv := feedbackSurvey()
	sv.Questions[0].IsRequired = false
	sv.Questions[2].IsRequired = false
	ctx := context.Background()
	client := &fakeClient{survey: sv}
	sess := newSession(t, client)

	_, err := sess.Seek(ctx, 3)
	require.NoError(t, err)
	outcome, err := sess.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)

	require.Len(t, client.requests, 1)
	records := client.requests[0].Answers
	require.Len(t, records, len(sv.Questions))
	for i, rec := range records {
		assert.Equal(t, sv.Questions[i].ID, rec.QuestionID)
		assert.Empty(t, rec.OptionIDs)
		assert.NotNil(t, rec.OptionIDs)
		assert.Empty(t, rec.TextAnswer)
	}
}

func TestSession_SweepRedirectsWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	sess := newSession(t, client)

	redirected, err := sess.Seek(ctx, 3)
	require.NoError(t, err)
	require.False(t, redirected)
	require.NoError(t, sess.Toggle(ctx, 3, 31))

	outcome, err := sess.Advance(ctx)
	assert.Equal(t, OutcomeIncomplete, outcome)
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, int64(1), incomplete.Question.ID)

	assert.Equal(t, int32(0), client.calls.Load())
	assert.Equal(t, int64(1), sess.CurrentQuestion().ID)
	assert.Equal(t, PhaseQuestion, sess.Phase())

	a, _ := sess.Answer(3)
	assert.Equal(t, model.MultipleChoice{OptionIDs: []int64{31}}, a)
}

func TestSession_SubmitOnlyFromLastQuestion(t *testing.T) {
	client := &fakeClient{}
	sess := newSession(t, client)

	_, err := sess.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotLastQuestion)
	assert.Equal(t, int32(0), client.calls.Load())
}

func TestSession_AlreadySubmittedIsSuccess(t *testing.T) {
	ctx := context.Background()
	completed := 0
	client := &fakeClient{
		submit: func(context.Context, model.SubmitRequest) error { return duplicateErr{} },
	}
	sess := newSession(t, client, WithOnComplete(func(*model.Survey) { completed++ }))
	answerAll(t, sess)

	outcome, err := sess.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySubmitted, outcome)
	assert.Equal(t, PhaseSubmitted, sess.Phase())
	assert.Nil(t, sess.LastError())
	assert.Equal(t, 1, completed)

	outcome, err = sess.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySubmitted, outcome)
	assert.Equal(t, int32(1), client.calls.Load(), "no resend")
}

func TestSession_FailureKeepsAnswersAndAllowsRetry(t *testing.T) {
	ctx := context.Background()
	fail := true
	client := &fakeClient{
		submit: func(context.Context, model.SubmitRequest) error {
			if fail {
				return errBoom
			}
			return nil
		},
	}
	p := &memPersister{}
	sess := newSession(t, client, WithPersister(p))
	answerAll(t, sess)

	outcome, err := sess.Advance(ctx)
	assert.Equal(t, OutcomeFailed, outcome)
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.True(t, submitErr.Retryable())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, PhaseFailed, sess.Phase())
	assert.Equal(t, err, sess.LastError())
	assert.Equal(t, 0, p.discards)
	require.NotNil(t, p.snap)
	assert.Len(t, p.snap.Answers, 3)

	a, ok := sess.Answer(3)
	require.True(t, ok)
	assert.Equal(t, model.MultipleChoice{OptionIDs: []int64{31, 33}}, a)

	fail = false
	outcome, err = sess.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSubmitted, outcome)
	assert.Equal(t, int32(2), client.calls.Load())
	assert.Equal(t, client.requests[0], client.requests[1])
	assert.Equal(t, 1, p.discards)
	assert.Nil(t, p.snap)
}

func TestSession_ConcurrentSubmitSendsOnce(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	client := &fakeClient{
		submit: func(context.Context, model.SubmitRequest) error {
			close(started)
			<-release
			return nil
		},
	}
	sess := newSession(t, client)
	answerAll(t, sess)

	var wg sync.WaitGroup
	wg.Add(1)
	var first Outcome
	go func() {
		defer wg.Done()
		first, _ = sess.Advance(ctx)
	}()
	<-started

	assert.Equal(t, PhaseSubmitting, sess.Phase())
	assert.False(t, sess.CanProceed())
	_, err := sess.Advance(ctx)
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	_, err = sess.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.ErrorIs(t, sess.Toggle(ctx, 3, 32), ErrSubmitInProgress)

	close(release)
	wg.Wait()

	assert.Equal(t, OutcomeSubmitted, first)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestSession_MutationsAfterSubmit(t *testing.T) {
	ctx := context.Background()
	sess := newSession(t, &fakeClient{})
	answerAll(t, sess)
	_, err := sess.Advance(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, sess.SetChoice(ctx, 1, 12), ErrFinished)
	assert.ErrorIs(t, sess.Retreat(ctx), ErrFinished)
	_, err = sess.Seek(ctx, 1)
	assert.ErrorIs(t, err, ErrFinished)
}

func TestSession_Results(t *testing.T) {
	ctx := context.Background()
	want := &model.Results{TotalResponses: 4}
	client := &fakeClient{results: want}
	sess := newSession(t, client)

	_, err := sess.Results(ctx)
	assert.ErrorIs(t, err, ErrResultsUnavailable, "nothing submitted yet")

	answerAll(t, sess)
	_, err = sess.Advance(ctx)
	require.NoError(t, err)

	got, err := sess.Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	client.resultsErr = errBoom
	got, err = sess.Results(ctx)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrResultsUnavailable)
}

func TestSession_ResultsHiddenBySurvey(t *testing.T) {
	ctx := context.Background()
	sv := feedbackSurvey()
	sv.ShowResults = false
	client := &fakeClient{survey: sv, results: &model.Results{TotalResponses: 1}}
	sess := newSession(t, client)
	answerAll(t, sess)
	_, err := sess.Advance(ctx)
	require.NoError(t, err)

	got, err := sess.Results(ctx)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrResultsUnavailable)
}

func TestSession_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	sess := newSession(t, &fakeClient{}, WithPersister(p))

	require.NoError(t, sess.SetChoice(ctx, 1, 12))
	_, err := sess.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SetText(ctx, 2, "draft"))

	require.NotNil(t, p.snap)
	assert.Equal(t, 1, p.snap.Cursor)

	again := newSession(t, &fakeClient{}, WithPersister(p))
	assert.Equal(t, 2, again.Progress().Position)
	a, ok := again.Answer(2)
	require.True(t, ok)
	assert.Equal(t, model.OpenText{Value: "draft"}, a)
}

func TestSession_RestoreOutOfRangeCursor(t *testing.T) {
	p := &memPersister{snap: &model.Snapshot{Cursor: 12}}
	sess := newSession(t, &fakeClient{}, WithPersister(p))
	assert.Equal(t, 1, sess.Progress().Position)
}

func TestSession_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{saveErr: errBoom}
	sess := newSession(t, &fakeClient{}, WithPersister(p))

	require.NoError(t, sess.SetChoice(ctx, 1, 11))
	a, ok := sess.Answer(1)
	require.True(t, ok)
	assert.Equal(t, model.SingleChoice{OptionID: 11}, a)
}

func TestSession_Abandon(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	sess := newSession(t, &fakeClient{}, WithPersister(p))
	answerAll(t, sess)

	require.NoError(t, sess.Abandon(ctx))
	assert.Equal(t, 1, sess.Progress().Position)
	_, ok := sess.Answer(1)
	assert.False(t, ok)
	assert.Equal(t, 1, p.discards)
}

// answerAll fills the feedback survey and leaves the cursor on the last question.
func answerAll(t *testing.T, sess *Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, sess.SetChoice(ctx, 1, 11))
	_, err := sess.Advance(ctx)
	require.NoError(t, err)
	_, err = sess.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Toggle(ctx, 3, 31))
	require.NoError(t, sess.Toggle(ctx, 3, 33))
}
