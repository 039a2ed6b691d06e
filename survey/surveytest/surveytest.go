// Package surveytest provides an in-memory survey API for tests of the
// layers built on package survey.
package surveytest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
)

var ErrNotFound = errors.New("surveytest: not found")

// Feedback is Q1 required single (A/B), Q2 optional text and
// Q3 required multiple (X/Y/Z).
func Feedback() *model.Survey {
	return &model.Survey{
		ID:          1,
		Slug:        "feedback",
		Title:       "Feedback",
		Description: "Tell us how we did.",
		ShowResults: true,
		Questions: []model.Question{
			{ID: 1, Text: "Pick one", Type: model.Single, IsRequired: true, Options: []model.Option{{ID: 11, Text: "A"}, {ID: 12, Text: "B"}}},
			{ID: 2, Heading: "Extra", Text: "Anything else?", Type: model.Text},
			{ID: 3, Text: "Pick some", Type: model.Multiple, IsRequired: true, Options: []model.Option{{ID: 31, Text: "X"}, {ID: 32, Text: "Y"}, {ID: 33, Text: "Z"}}},
		},
	}
}

// Client serves Survey under its slug and records every submission.
type Client struct {
	Survey     *model.Survey
	SubmitFunc func(ctx context.Context, req model.SubmitRequest) error
	Results    *model.Results
	ResultsErr error

	loads    atomic.Int32
	mu       sync.Mutex
	requests []model.SubmitRequest
}

func (c *Client) GetPublicSurvey(ctx context.Context, slug string) (*model.Survey, error) {
	c.loads.Add(1)
	if c.Survey == nil || c.Survey.Slug != slug {
		return nil, errors.Wrap(ErrNotFound, slug)
	}
	return c.Survey, nil
}

func (c *Client) Submit(ctx context.Context, slug string, req model.SubmitRequest) error {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	fn := c.SubmitFunc
	c.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return nil
}

func (c *Client) GetResults(ctx context.Context, slug string) (*model.Results, error) {
	return c.Results, c.ResultsErr
}

func (c *Client) Loads() int {
	return int(c.loads.Load())
}

func (c *Client) Requests() []model.SubmitRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.SubmitRequest(nil), c.requests...)
}

// Duplicate is the error a backend returns for a second submission.
type Duplicate struct{}

func (Duplicate) Error() string          { return "You have already submitted a response to this survey." }
func (Duplicate) AlreadySubmitted() bool { return true }
