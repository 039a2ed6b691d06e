package model

// SubmitRequest is the body of POST /public/surveys/{slug}/submit/.
type SubmitRequest struct {
	Answers []AnswerRecord `json:"answers"`
}

// AnswerRecord carries exactly one of OptionIDs or TextAnswer, depending on
// the question type. The other field holds its empty default.
type AnswerRecord struct {
	QuestionID int64   `json:"question_id"`
	OptionIDs  []int64 `json:"option_ids"`
	TextAnswer string  `json:"text_answer"`
}

// ErrorResponse is the failure body returned by the survey API.
type ErrorResponse struct {
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

type Results struct {
	TotalResponses int              `json:"total_responses"`
	Results        []QuestionResult `json:"results"`
}

type QuestionResult struct {
	ID          int64          `json:"id"`
	Text        string         `json:"text"`
	Heading     string         `json:"heading,omitempty"`
	Type        QuestionType   `json:"question_type"`
	Options     []OptionResult `json:"options,omitempty"`
	TextAnswers []string       `json:"text_answers,omitempty"`
}

type OptionResult struct {
	ID      int64   `json:"id"`
	Text    string  `json:"text"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}
