package survey

import (
	"math"

	"github.com/mbolis/survey-flow/model"
)

// Progress describes the cursor position for presentation layers.
type Progress struct {
	Position  int  `json:"position"`
	Total     int  `json:"total"`
	Percent   int  `json:"percent"`
	CanGoBack bool `json:"can_go_back"`
	IsLast    bool `json:"is_last"`
}

type Sequencer struct {
	survey *model.Survey
	cursor int
}

func NewSequencer(survey *model.Survey) *Sequencer {
	return &Sequencer{survey: survey}
}

func (s *Sequencer) Cursor() int {
	return s.cursor
}

func (s *Sequencer) Current() *model.Question {
	if s.cursor < 0 || s.cursor >= len(s.survey.Questions) {
		return nil
	}
	return &s.survey.Questions[s.cursor]
}

func (s *Sequencer) Position() int {
	return s.cursor + 1
}

func (s *Sequencer) Total() int {
	return len(s.survey.Questions)
}

func (s *Sequencer) Percent() int {
	if s.Total() == 0 {
		return 0
	}
	return int(math.Round(100 * float64(s.Position()) / float64(s.Total())))
}

func (s *Sequencer) CanGoBack() bool {
	return s.cursor > 0
}

func (s *Sequencer) IsLast() bool {
	return s.cursor == s.Total()-1
}

func (s *Sequencer) Progress() Progress {
	return Progress{
		Position:  s.Position(),
		Total:     s.Total(),
		Percent:   s.Percent(),
		CanGoBack: s.CanGoBack(),
		IsLast:    s.IsLast(),
	}
}

// Next moves forward unless the cursor is on the last question.
func (s *Sequencer) Next() bool {
	if s.IsLast() {
		return false
	}
	s.cursor++
	return true
}

func (s *Sequencer) Prev() bool {
	if !s.CanGoBack() {
		return false
	}
	s.cursor--
	return true
}

// Seek moves the cursor to index. An index outside the survey sends the
// respondent back to the first question and reports the redirect.
func (s *Sequencer) Seek(index int) (redirected bool) {
	if index < 0 || index >= s.Total() {
		s.cursor = 0
		return true
	}
	s.cursor = index
	return false
}
