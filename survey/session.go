package survey

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mbolis/survey-flow/log"
	"github.com/mbolis/survey-flow/model"
)

// Session is one respondent's way through one survey. All methods are safe
// for concurrent use; the submit call itself runs without holding the lock so
// that a second submit can be refused while the first is in flight.
type Session struct {
	mu sync.Mutex

	survey  *model.Survey
	answers *Answers
	seq     *Sequencer
	phase   Phase
	outcome Outcome
	lastErr error

	submitter  Submitter
	results    ResultsFetcher
	persister  Persister
	onComplete func(*model.Survey)
	onSubmit   func(Outcome)
	log        *logrus.Entry
}

var _ Flow = (*Session)(nil)

type Option func(*Session)

func WithPersister(p Persister) Option {
	return func(s *Session) { s.persister = p }
}

func WithResults(f ResultsFetcher) Option {
	return func(s *Session) { s.results = f }
}

// WithOnComplete registers fn to run once the response is recorded, either
// by a new submission or because the backend already had one.
func WithOnComplete(fn func(*model.Survey)) Option {
	return func(s *Session) { s.onComplete = fn }
}

// WithOnSubmit registers fn to run after every submission that reached the
// backend, with its outcome. Calls answered from an already recorded response
// do not trigger it.
func WithOnSubmit(fn func(Outcome)) Option {
	return func(s *Session) { s.onSubmit = fn }
}

func WithLogger(entry *logrus.Entry) Option {
	return func(s *Session) { s.log = entry }
}

func New(survey *model.Survey, submitter Submitter, opts ...Option) (*Session, error) {
	if err := checkSurvey(survey); err != nil {
		return nil, err
	}
	s := &Session{
		survey:    survey,
		answers:   NewAnswers(survey),
		seq:       NewSequencer(survey),
		phase:     PhaseQuestion,
		submitter: submitter,
		log:       log.WithFields(log.Fields{"slug": survey.Slug}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// checkSurvey rejects snapshots a respondent could never complete: no
// questions, unknown question types, repeated ids and required choice
// questions without options.
func checkSurvey(survey *model.Survey) error {
	if len(survey.Questions) == 0 {
		return errors.Wrapf(ErrNoQuestions, "survey %q", survey.Slug)
	}
	seen := make(map[int64]bool, len(survey.Questions))
	for _, q := range survey.Questions {
		switch {
		case !q.Type.Valid():
			return errors.Wrapf(ErrInvalidSurvey, "question %d has unknown type %q", q.ID, q.Type)
		case seen[q.ID]:
			return errors.Wrapf(ErrInvalidSurvey, "question id %d repeated", q.ID)
		case q.Type.Choice() && q.IsRequired && len(q.Options) == 0:
			return errors.Wrapf(ErrInvalidSurvey, "required question %d has no options", q.ID)
		}
		seen[q.ID] = true

		options := make(map[int64]bool, len(q.Options))
		for _, o := range q.Options {
			if options[o.ID] {
				return errors.Wrapf(ErrInvalidSurvey, "question %d repeats option %d", q.ID, o.ID)
			}
			options[o.ID] = true
		}
	}
	return nil
}

// Load fetches the survey snapshot and starts a session on it, restoring
// any answers the persister kept from an earlier visit. Any failure to
// fetch or accept the snapshot is a NotFoundError.
func Load(ctx context.Context, client Client, slug string, opts ...Option) (*Session, error) {
	sv, err := client.GetPublicSurvey(ctx, slug)
	if err != nil {
		return nil, &NotFoundError{Slug: slug, Err: err}
	}
	if sv.Slug == "" {
		sv.Slug = slug
	}

	s, err := New(sv, client, append([]Option{WithResults(client)}, opts...)...)
	if err != nil {
		return nil, &NotFoundError{Slug: slug, Err: err}
	}
	if err := s.Restore(ctx); err != nil {
		s.log.WithError(err).Warn("session.restore: starting over")
	}
	return s, nil
}

// Restore loads the persisted snapshot, if any. Answers that no longer fit
// the survey are dropped and an out-of-range cursor goes back to the start.
func (s *Session) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, ok, err := s.persister.Restore(ctx)
	if err != nil || !ok {
		return err
	}

	values, err := model.DecodeAnswers(snap.Answers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if skipped := s.answers.Restore(values); skipped > 0 {
		s.log.WithField("skipped", skipped).Warn("session.restore: stale answers dropped")
	}
	if s.seq.Seek(snap.Cursor) && snap.Cursor != 0 {
		s.log.WithField("cursor", snap.Cursor).Debug("session.restore: cursor out of range")
	}
	return nil
}

func (s *Session) Survey() *model.Survey {
	return s.survey
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) CurrentQuestion() *model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Current()
}

func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Progress()
}

func (s *Session) Answer(questionID int64) (model.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Get(questionID)
}

// CanProceed reports whether the Next/Submit control should be enabled.
func (s *Session) CanProceed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editable() != nil {
		return false
	}
	q := s.seq.Current()
	a, _ := s.answers.Get(q.ID)
	return IsComplete(q, a)
}

// LastError returns the error of the last failed submission, if the session
// is still in the failed phase.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) SetChoice(ctx context.Context, questionID, optionID int64) error {
	return s.mutate(ctx, func() error {
		return s.answers.SetChoice(questionID, optionID)
	})
}

func (s *Session) Toggle(ctx context.Context, questionID, optionID int64) error {
	return s.mutate(ctx, func() error {
		_, err := s.answers.Toggle(questionID, optionID)
		return err
	})
}

func (s *Session) SetText(ctx context.Context, questionID int64, text string) error {
	return s.mutate(ctx, func() error {
		return s.answers.SetText(questionID, text)
	})
}

// Advance moves to the next question once the current one is complete. On
// the last question it submits instead.
func (s *Session) Advance(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	switch s.phase {
	case PhaseSubmitting:
		s.mu.Unlock()
		return OutcomeNone, ErrSubmitInProgress
	case PhaseSubmitted:
		outcome := s.outcome
		s.mu.Unlock()
		return outcome, nil
	}

	q := s.seq.Current()
	a, _ := s.answers.Get(q.ID)
	if !IsComplete(q, a) {
		index := s.seq.Cursor()
		s.mu.Unlock()
		return OutcomeIncomplete, &IncompleteError{Index: index, Question: q}
	}

	if s.seq.Next() {
		s.settle()
		s.persist(ctx)
		s.mu.Unlock()
		return OutcomeMoved, nil
	}
	return s.submitLocked(ctx)
}

func (s *Session) Retreat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if !s.seq.Prev() {
		return ErrCannotGoBack
	}
	s.settle()
	s.persist(ctx)
	return nil
}

// Seek jumps to a 1-based position. Positions outside the survey land on
// the first question.
func (s *Session) Seek(ctx context.Context, position int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return false, err
	}
	redirected := s.seq.Seek(position - 1)
	s.settle()
	s.persist(ctx)
	return redirected, nil
}

// Submit sends the response. It only runs from the last question, after a
// sweep over every question; a failed sweep moves the cursor to the first
// incomplete question without touching the network.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	return s.submitLocked(ctx)
}

// submitLocked must be called with s.mu held and releases it.
func (s *Session) submitLocked(ctx context.Context) (Outcome, error) {
	switch s.phase {
	case PhaseSubmitting:
		s.mu.Unlock()
		return OutcomeNone, ErrSubmitInProgress
	case PhaseSubmitted:
		outcome := s.outcome
		s.mu.Unlock()
		return outcome, nil
	}
	if !s.seq.IsLast() {
		s.mu.Unlock()
		return OutcomeNone, ErrNotLastQuestion
	}

	if err := Sweep(s.survey, s.answers); err != nil {
		var incomplete *IncompleteError
		if errors.As(err, &incomplete) {
			s.seq.Seek(incomplete.Index)
			s.log.WithField("question", incomplete.Question.ID).Debug("session.submit: sweep failed")
		}
		s.settle()
		s.persist(ctx)
		s.mu.Unlock()
		return OutcomeIncomplete, err
	}

	req := BuildPayload(s.survey, s.answers)
	s.phase = PhaseSubmitting
	s.lastErr = nil
	s.mu.Unlock()

	err := s.submitter.Submit(ctx, s.survey.Slug, req)

	s.mu.Lock()
	var outcome Outcome
	switch {
	case err == nil:
		outcome = OutcomeSubmitted
	case IsAlreadySubmitted(err):
		outcome = OutcomeAlreadySubmitted
		s.log.Info("session.submit: already submitted, showing results")
	default:
		s.phase = PhaseFailed
		s.lastErr = &SubmitError{Err: err}
		s.log.WithError(err).Warn("session.submit: failed")
		lastErr := s.lastErr
		onSubmit := s.onSubmit
		s.mu.Unlock()

		if onSubmit != nil {
			onSubmit(OutcomeFailed)
		}
		return OutcomeFailed, lastErr
	}

	s.answers.Clear()
	s.phase = PhaseSubmitted
	s.outcome = outcome
	s.discard(ctx)
	onComplete, onSubmit := s.onComplete, s.onSubmit
	s.mu.Unlock()

	if onSubmit != nil {
		onSubmit(outcome)
	}
	if onComplete != nil {
		onComplete(s.survey)
	}
	return outcome, nil
}

// Results fetches the aggregate results after submission. Any failure, and
// surveys that keep results private, yield ErrResultsUnavailable.
func (s *Session) Results(ctx context.Context) (*model.Results, error) {
	s.mu.Lock()
	phase := s.phase
	s.mu.Unlock()

	if phase != PhaseSubmitted {
		return nil, errors.Wrap(ErrResultsUnavailable, "response not submitted")
	}
	if !s.survey.ShowResults || s.results == nil {
		return nil, ErrResultsUnavailable
	}

	res, err := s.results.GetResults(ctx, s.survey.Slug)
	if err != nil {
		s.log.WithError(err).Debug("session.results: unavailable")
		return nil, errors.Wrap(ErrResultsUnavailable, err.Error())
	}
	return res, nil
}

// Abandon drops every answer and starts over from the first question.
func (s *Session) Abandon(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitting {
		return ErrSubmitInProgress
	}
	s.log.WithField("answers", s.answers.Len()).Debug("session.abandon")
	s.answers.Clear()
	s.seq.Seek(0)
	s.phase = PhaseQuestion
	s.outcome = OutcomeNone
	s.lastErr = nil
	s.discard(ctx)
	return nil
}

func (s *Session) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	s.settle()
	s.persist(ctx)
	return nil
}

func (s *Session) editable() error {
	switch s.phase {
	case PhaseSubmitting:
		return ErrSubmitInProgress
	case PhaseSubmitted:
		return ErrFinished
	}
	return nil
}

// settle leaves the failed phase once the respondent acts again.
func (s *Session) settle() {
	if s.phase == PhaseFailed {
		s.phase = PhaseQuestion
		s.lastErr = nil
	}
}

func (s *Session) snapshot() model.Snapshot {
	return model.Snapshot{
		Cursor:  s.seq.Cursor(),
		Answers: s.answers.Stored(),
	}
}

func (s *Session) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.snapshot()); err != nil {
		s.log.WithError(err).Warn("session.persist: answers kept in memory only")
	}
}

func (s *Session) discard(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Discard(ctx); err != nil {
		s.log.WithError(err).Warn("session.discard")
	}
}
