package model

import (
	"github.com/pkg/errors"
)

// Answer is the value a respondent gave to one question. The concrete type
// always matches the question type: SingleChoice for single, MultipleChoice
// for multiple and OpenText for text questions.
type Answer interface {
	Type() QuestionType
	isAnswer()
}

type SingleChoice struct {
	OptionID int64
}

// MultipleChoice holds the selected option ids in the order they were picked.
// Values are treated as immutable: Toggle returns a new set.
type MultipleChoice struct {
	OptionIDs []int64
}

type OpenText struct {
	Value string
}

func (SingleChoice) Type() QuestionType   { return Single }
func (MultipleChoice) Type() QuestionType { return Multiple }
func (OpenText) Type() QuestionType       { return Text }

func (SingleChoice) isAnswer()   {}
func (MultipleChoice) isAnswer() {}
func (OpenText) isAnswer()       {}

func (m MultipleChoice) Contains(id int64) bool {
	for _, v := range m.OptionIDs {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle adds id when absent and removes it when present.
func (m MultipleChoice) Toggle(id int64) MultipleChoice {
	next := make([]int64, 0, len(m.OptionIDs)+1)
	found := false
	for _, v := range m.OptionIDs {
		if v == id {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		next = append(next, id)
	}
	return MultipleChoice{OptionIDs: next}
}

func (m MultipleChoice) Len() int {
	return len(m.OptionIDs)
}

// StoredAnswer is the flat form of an Answer used by persistence backends.
type StoredAnswer struct {
	QuestionID int64        `json:"question_id"`
	Type       QuestionType `json:"type"`
	OptionIDs  []int64      `json:"option_ids,omitempty"`
	Text       string       `json:"text,omitempty"`
}

var ErrUnknownAnswerType = errors.New("unknown answer type")

func EncodeAnswer(questionID int64, a Answer) StoredAnswer {
	s := StoredAnswer{QuestionID: questionID, Type: a.Type()}
	switch v := a.(type) {
	case SingleChoice:
		s.OptionIDs = []int64{v.OptionID}
	case MultipleChoice:
		s.OptionIDs = append([]int64{}, v.OptionIDs...)
	case OpenText:
		s.Text = v.Value
	}
	return s
}

func (s StoredAnswer) Decode() (Answer, error) {
	switch s.Type {
	case Single:
		if len(s.OptionIDs) != 1 {
			return nil, errors.Errorf("question %d: single answer needs exactly one option, got %d", s.QuestionID, len(s.OptionIDs))
		}
		return SingleChoice{OptionID: s.OptionIDs[0]}, nil
	case Multiple:
		return MultipleChoice{OptionIDs: append([]int64{}, s.OptionIDs...)}, nil
	case Text:
		return OpenText{Value: s.Text}, nil
	}
	return nil, errors.Wrapf(ErrUnknownAnswerType, "question %d: %q", s.QuestionID, s.Type)
}

// EncodeAnswers flattens an answer map, ordered by the survey's question order
// so that persisted snapshots are stable.
func EncodeAnswers(survey *Survey, answers map[int64]Answer) []StoredAnswer {
	out := make([]StoredAnswer, 0, len(answers))
	for _, q := range survey.Questions {
		if a, ok := answers[q.ID]; ok {
			out = append(out, EncodeAnswer(q.ID, a))
		}
	}
	return out
}

func DecodeAnswers(stored []StoredAnswer) (map[int64]Answer, error) {
	out := make(map[int64]Answer, len(stored))
	for _, s := range stored {
		a, err := s.Decode()
		if err != nil {
			return nil, err
		}
		out[s.QuestionID] = a
	}
	return out, nil
}
