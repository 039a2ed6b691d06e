package model

type QuestionType string

const (
	Single   QuestionType = "single"
	Multiple QuestionType = "multiple"
	Text     QuestionType = "text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case Single, Multiple, Text:
		return true
	}
	return false
}

// Choice reports whether answers to this type are option ids.
func (t QuestionType) Choice() bool {
	return t == Single || t == Multiple
}

type Survey struct {
	ID          int64      `json:"id,omitempty"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ShowResults bool       `json:"show_results"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	ID         int64        `json:"id"`
	Heading    string       `json:"heading,omitempty"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"question_type"`
	Order      int          `json:"order,omitempty"`
	IsRequired bool         `json:"is_required"`
	Options    []Option     `json:"options"`
}

type Option struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order,omitempty"`
}

// Question returns the question with the given id and its index in the survey.
func (s *Survey) Question(id int64) (*Question, int, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], i, true
		}
	}
	return nil, -1, false
}

func (q *Question) HasOption(id int64) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
