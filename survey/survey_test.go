package survey

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/model"
)

// feedbackSurvey is Q1 required single (A/B), Q2 optional text and
// Q3 required multiple (X/Y/Z).
func feedbackSurvey() *model.Survey {
	return &model.Survey{
		Slug:        "feedback",
		Title:       "Feedback",
		ShowResults: true,
		Questions: []model.Question{
			{ID: 1, Text: "Pick one", Type: model.Single, IsRequired: true, Options: []model.Option{{ID: 11, Text: "A"}, {ID: 12, Text: "B"}}},
			{ID: 2, Text: "Anything else?", Type: model.Text},
			{ID: 3, Text: "Pick some", Type: model.Multiple, IsRequired: true, Options: []model.Option{{ID: 31, Text: "X"}, {ID: 32, Text: "Y"}, {ID: 33, Text: "Z"}}},
		},
	}
}

type fakeClient struct {
	survey  *model.Survey
	loadErr error

	mu       sync.Mutex
	calls    atomic.Int32
	requests []model.SubmitRequest
	submit   func(ctx context.Context, req model.SubmitRequest) error

	results    *model.Results
	resultsErr error
}

func (c *fakeClient) GetPublicSurvey(ctx context.Context, slug string) (*model.Survey, error) {
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	return c.survey, nil
}

func (c *fakeClient) Submit(ctx context.Context, slug string, req model.SubmitRequest) error {
	c.calls.Add(1)
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.submit != nil {
		return c.submit(ctx, req)
	}
	return nil
}

func (c *fakeClient) GetResults(ctx context.Context, slug string) (*model.Results, error) {
	return c.results, c.resultsErr
}

type duplicateErr struct{}

func (duplicateErr) Error() string          { return "You have already submitted a response to this survey." }
func (duplicateErr) AlreadySubmitted() bool { return true }

type memPersister struct {
	snap     *model.Snapshot
	saves    int
	discards int
	saveErr  error
}

func (p *memPersister) Restore(ctx context.Context) (model.Snapshot, bool, error) {
	if p.snap == nil {
		return model.Snapshot{}, false, nil
	}
	return *p.snap, true, nil
}

func (p *memPersister) Save(ctx context.Context, snap model.Snapshot) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves++
	p.snap = &snap
	return nil
}

func (p *memPersister) Discard(ctx context.Context) error {
	p.discards++
	p.snap = nil
	return nil
}

var errBoom = errors.New("connection reset by peer")
