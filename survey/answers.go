package survey

import (
	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
)

// Answers maps question ids to answers. A question only has an entry once
// the respondent interacted with it.
type Answers struct {
	survey *model.Survey
	values map[int64]model.Answer
}

func NewAnswers(survey *model.Survey) *Answers {
	return &Answers{
		survey: survey,
		values: map[int64]model.Answer{},
	}
}

func (a *Answers) Get(questionID int64) (model.Answer, bool) {
	v, ok := a.values[questionID]
	return v, ok
}

// SetChoice selects optionID on a single-choice question, replacing any
// previous selection.
func (a *Answers) SetChoice(questionID, optionID int64) error {
	q, err := a.question(questionID, model.Single)
	if err != nil {
		return err
	}
	if !q.HasOption(optionID) {
		return errors.Wrapf(ErrUnknownOption, "question %d option %d", questionID, optionID)
	}
	a.values[questionID] = model.SingleChoice{OptionID: optionID}
	return nil
}

// Toggle flips optionID in the selection of a multiple-choice question.
func (a *Answers) Toggle(questionID, optionID int64) (model.MultipleChoice, error) {
	q, err := a.question(questionID, model.Multiple)
	if err != nil {
		return model.MultipleChoice{}, err
	}
	if !q.HasOption(optionID) {
		return model.MultipleChoice{}, errors.Wrapf(ErrUnknownOption, "question %d option %d", questionID, optionID)
	}
	current, _ := a.values[questionID].(model.MultipleChoice)
	next := current.Toggle(optionID)
	a.values[questionID] = next
	return next, nil
}

// SetText stores text verbatim. Whitespace only matters to IsComplete.
func (a *Answers) SetText(questionID int64, text string) error {
	if _, err := a.question(questionID, model.Text); err != nil {
		return err
	}
	a.values[questionID] = model.OpenText{Value: text}
	return nil
}

func (a *Answers) Clear() {
	a.values = map[int64]model.Answer{}
}

func (a *Answers) Len() int {
	return len(a.values)
}

// Restore replaces the stored answers with the given ones, skipping any that
// no longer fit the survey. It returns the number of answers skipped.
func (a *Answers) Restore(values map[int64]model.Answer) int {
	a.Clear()
	skipped := 0
	for id, v := range values {
		if !a.fits(id, v) {
			skipped++
			continue
		}
		a.values[id] = v
	}
	return skipped
}

func (a *Answers) Stored() []model.StoredAnswer {
	return model.EncodeAnswers(a.survey, a.values)
}

func (a *Answers) question(id int64, want model.QuestionType) (*model.Question, error) {
	q, _, ok := a.survey.Question(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownQuestion, "question %d", id)
	}
	if q.Type != want {
		return nil, errors.Wrapf(ErrTypeMismatch, "question %d is %s, not %s", id, q.Type, want)
	}
	return q, nil
}

func (a *Answers) fits(id int64, v model.Answer) bool {
	q, _, ok := a.survey.Question(id)
	if !ok || v == nil || q.Type != v.Type() {
		return false
	}
	switch v := v.(type) {
	case model.SingleChoice:
		return q.HasOption(v.OptionID)
	case model.MultipleChoice:
		for _, o := range v.OptionIDs {
			if !q.HasOption(o) {
				return false
			}
		}
		return true
	case model.OpenText:
		return true
	}
	return false
}
