package survey

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
)

var (
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrNoQuestions        = errors.New("survey has no questions")
	ErrInvalidSurvey      = errors.New("survey cannot be answered")
	ErrUnknownQuestion    = errors.New("unknown question")
	ErrUnknownOption      = errors.New("unknown option")
	ErrTypeMismatch       = errors.New("answer does not match question type")
	ErrIncomplete         = errors.New("question requires an answer")
	ErrCannotGoBack       = errors.New("already at the first question")
	ErrNotLastQuestion    = errors.New("submission is only possible from the last question")
	ErrSubmitInProgress   = errors.New("submission already in progress")
	ErrFinished           = errors.New("response already submitted")
	ErrResultsUnavailable = errors.New("results unavailable")
)

// NotFoundError is returned by Load when the survey cannot be fetched.
// It is terminal: the session never starts.
type NotFoundError struct {
	Slug string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("survey %q not found: %v", e.Slug, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrSurveyNotFound }

// IncompleteError names the question that blocked advancement or the final sweep.
type IncompleteError struct {
	Index    int
	Question *model.Question
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("question %d (#%d) requires an answer", e.Question.ID, e.Index+1)
}

func (e *IncompleteError) Is(target error) bool { return target == ErrIncomplete }

// SubmitError wraps a failed submission. The answers are kept so the
// respondent can retry.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return "submission failed: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error { return e.Err }

func (e *SubmitError) Retryable() bool { return true }

type alreadySubmitted interface {
	AlreadySubmitted() bool
}

// IsAlreadySubmitted reports whether err carries the backend's signal that
// this respondent has already submitted a response.
func IsAlreadySubmitted(err error) bool {
	var d alreadySubmitted
	return errors.As(err, &d) && d.AlreadySubmitted()
}
