package survey

import (
	"strings"

	"github.com/mbolis/survey-flow/model"
)

// IsComplete reports whether answer satisfies question. Optional questions
// are always complete; a nil answer means the question was never touched.
func IsComplete(question *model.Question, answer model.Answer) bool {
	if !question.IsRequired {
		return true
	}
	if answer == nil || answer.Type() != question.Type {
		return false
	}
	switch v := answer.(type) {
	case model.SingleChoice:
		return true
	case model.MultipleChoice:
		return v.Len() > 0
	case model.OpenText:
		return strings.TrimSpace(v.Value) != ""
	}
	return false
}

// Sweep checks every question in survey order and returns an
// *IncompleteError for the first one that is not complete.
func Sweep(survey *model.Survey, answers *Answers) error {
	for i := range survey.Questions {
		q := &survey.Questions[i]
		a, _ := answers.Get(q.ID)
		if !IsComplete(q, a) {
			return &IncompleteError{Index: i, Question: q}
		}
	}
	return nil
}
