package survey

import (
	"github.com/mbolis/survey-flow/model"
)

// BuildPayload produces one record per question, in survey order. Questions
// without an answer get the empty defaults for their type.
func BuildPayload(survey *model.Survey, answers *Answers) model.SubmitRequest {
	records := make([]model.AnswerRecord, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		rec := model.AnswerRecord{QuestionID: q.ID, OptionIDs: []int64{}}
		a, _ := answers.Get(q.ID)
		switch v := a.(type) {
		case model.SingleChoice:
			rec.OptionIDs = []int64{v.OptionID}
		case model.MultipleChoice:
			rec.OptionIDs = append(rec.OptionIDs, v.OptionIDs...)
		case model.OpenText:
			rec.TextAnswer = v.Value
		}
		records = append(records, rec)
	}
	return model.SubmitRequest{Answers: records}
}
