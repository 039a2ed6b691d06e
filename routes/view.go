package routes

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
	"github.com/mbolis/survey-flow/survey"
)

const (
	StateQuestion   = "question"
	StateSubmitting = "submitting"
	StateResults    = "results"
	StateError      = "error"
)

const (
	msgThankYou          = "Thank you for your response!"
	msgAlreadySubmitted  = "You have already submitted a response to this survey."
	msgResultsHidden     = "Results are not available for this survey."
	msgTextPrivate       = "Open text responses are reviewed privately."
	msgRequired          = "Please answer this question before continuing."
	msgSubmitFailed      = "Failed to submit"
	msgSubmitting        = "Your response is being submitted."
	msgSurveyUnavailable = "Failed to load survey"
	msgMultiHint         = "Select all that apply"
)

// View is everything the widget needs to draw the current screen.
type View struct {
	State       string           `json:"state"`
	Slug        string           `json:"slug,omitempty"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Question    *QuestionView    `json:"question,omitempty"`
	Answer      *AnswerView      `json:"answer,omitempty"`
	Progress    *survey.Progress `json:"progress,omitempty"`
	CanProceed  bool             `json:"can_proceed"`
	Redirected  bool             `json:"redirected,omitempty"`
	Outcome     string           `json:"outcome,omitempty"`
	Message     string           `json:"message,omitempty"`
	Results     *ResultsView     `json:"results,omitempty"`
	Error       *ErrorView       `json:"error,omitempty"`
}

type QuestionView struct {
	ID        int64              `json:"id"`
	Heading   string             `json:"heading,omitempty"`
	Text      string             `json:"text"`
	Type      model.QuestionType `json:"question_type"`
	Optional  bool               `json:"optional"`
	MultiHint string             `json:"multi_hint,omitempty"`
	Options   []model.Option     `json:"options"`
}

type AnswerView struct {
	OptionIDs []int64 `json:"option_ids,omitempty"`
	Text      string  `json:"text,omitempty"`
}

type ResultsView struct {
	*model.Results
	TextNote string `json:"text_note,omitempty"`
}

type ErrorView struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	QuestionID int64  `json:"question_id,omitempty"`
	Position   int    `json:"position,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

// viewOf renders the session in its current phase. Results are fetched only
// once the response is recorded.
func viewOf(ctx context.Context, flow survey.Flow) View {
	sv := flow.Survey()
	switch flow.Phase() {
	case survey.PhaseSubmitting:
		return View{State: StateSubmitting, Slug: sv.Slug, Message: msgSubmitting}
	case survey.PhaseSubmitted:
		return resultsView(ctx, flow)
	}
	return questionView(flow)
}

func questionView(flow survey.Flow) View {
	sv := flow.Survey()
	q := flow.CurrentQuestion()
	progress := flow.Progress()

	v := View{
		State:      StateQuestion,
		Slug:       sv.Slug,
		Progress:   &progress,
		CanProceed: flow.CanProceed(),
		Question: &QuestionView{
			ID:       q.ID,
			Heading:  q.Heading,
			Text:     q.Text,
			Type:     q.Type,
			Optional: !q.IsRequired,
			Options:  q.Options,
		},
	}
	if v.Question.Options == nil {
		v.Question.Options = []model.Option{}
	}
	if q.Type == model.Multiple {
		v.Question.MultiHint = msgMultiHint
	}
	if progress.Position == 1 {
		v.Title = sv.Title
		v.Description = sv.Description
	}

	if a, ok := flow.Answer(q.ID); ok {
		v.Answer = answerView(a)
	}
	if err := flow.LastError(); err != nil {
		v.Error = &ErrorView{Kind: "transport", Message: submitMessage(err), Retryable: true}
	}
	return v
}

func answerView(a model.Answer) *AnswerView {
	switch a := a.(type) {
	case model.SingleChoice:
		return &AnswerView{OptionIDs: []int64{a.OptionID}}
	case model.MultipleChoice:
		return &AnswerView{OptionIDs: a.OptionIDs}
	case model.OpenText:
		return &AnswerView{Text: a.Value}
	}
	return nil
}

func resultsView(ctx context.Context, flow survey.Flow) View {
	v := View{
		State:   StateResults,
		Slug:    flow.Survey().Slug,
		Message: msgThankYou,
	}
	res, err := flow.Results(ctx)
	if err != nil {
		v.Error = &ErrorView{Kind: "results_unavailable", Message: msgResultsHidden}
		return v
	}
	v.Results = &ResultsView{Results: res}
	for _, q := range res.Results {
		if q.Type == model.Text && len(q.TextAnswers) == 0 {
			v.Results.TextNote = msgTextPrivate
			break
		}
	}
	return v
}

func errorView(slug string) View {
	return View{
		State: StateError,
		Slug:  slug,
		Error: &ErrorView{Kind: "not_found", Message: msgSurveyUnavailable},
	}
}

// submitMessage surfaces the backend's own detail when it sent one.
func submitMessage(err error) string {
	var detailed interface{ DetailMessage() string }
	if errors.As(err, &detailed) && detailed.DetailMessage() != "" {
		return detailed.DetailMessage()
	}
	return msgSubmitFailed
}
