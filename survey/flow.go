package survey

import (
	"context"

	"github.com/mbolis/survey-flow/model"
)

type SurveyLoader interface {
	GetPublicSurvey(ctx context.Context, slug string) (*model.Survey, error)
}

type Submitter interface {
	Submit(ctx context.Context, slug string, req model.SubmitRequest) error
}

type ResultsFetcher interface {
	GetResults(ctx context.Context, slug string) (*model.Results, error)
}

// Client is everything a session needs from the survey API.
type Client interface {
	SurveyLoader
	Submitter
	ResultsFetcher
}

// Persister keeps a session's snapshot across restarts. Implementations are
// bound to one respondent and one survey.
type Persister interface {
	Restore(ctx context.Context) (model.Snapshot, bool, error)
	Save(ctx context.Context, snap model.Snapshot) error
	Discard(ctx context.Context) error
}

// Flow is the surface presentation layers drive. Both the widget HTTP API and
// the terminal client go through it.
type Flow interface {
	Survey() *model.Survey
	Phase() Phase
	CurrentQuestion() *model.Question
	Progress() Progress
	Answer(questionID int64) (model.Answer, bool)
	CanProceed() bool
	LastError() error

	SetChoice(ctx context.Context, questionID, optionID int64) error
	Toggle(ctx context.Context, questionID, optionID int64) error
	SetText(ctx context.Context, questionID int64, text string) error

	Advance(ctx context.Context) (Outcome, error)
	Retreat(ctx context.Context) error
	Seek(ctx context.Context, position int) (redirected bool, err error)
	Submit(ctx context.Context) (Outcome, error)
	Results(ctx context.Context) (*model.Results, error)
	Abandon(ctx context.Context) error
}

type Phase string

const (
	PhaseQuestion   Phase = "question"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
	PhaseFailed     Phase = "failed"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeMoved
	OutcomeIncomplete
	OutcomeSubmitted
	OutcomeAlreadySubmitted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeIncomplete:
		return "incomplete"
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeAlreadySubmitted:
		return "already_submitted"
	case OutcomeFailed:
		return "failed"
	}
	return "none"
}

// Finished reports whether the outcome ends the session in the results state.
func (o Outcome) Finished() bool {
	return o == OutcomeSubmitted || o == OutcomeAlreadySubmitted
}
