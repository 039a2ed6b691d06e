package app

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/config"
	"github.com/mbolis/survey-flow/metrics"
	"github.com/mbolis/survey-flow/store"
	"github.com/mbolis/survey-flow/survey"
)

type App struct {
	config.Config
	Client   survey.Client
	Store    store.Backend
	Sessions *Registry
	Metrics  *metrics.Metrics
}

func New(cfg config.Config, client survey.Client, backend store.Backend) *App {
	m := metrics.New()
	return &App{
		Config:   cfg,
		Client:   client,
		Store:    backend,
		Sessions: NewRegistry(client, backend, cfg.SessionTTL, m),
		Metrics:  m,
	}
}

// Close releases every resource held by the app, reporting all failures.
func (a *App) Close() error {
	var result error
	a.Sessions.Clear()
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "app.store.close"))
		}
	}
	return result
}
