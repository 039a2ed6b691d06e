package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/apiclient"
	"github.com/mbolis/survey-flow/app"
	"github.com/mbolis/survey-flow/config"
	"github.com/mbolis/survey-flow/log"
	"github.com/mbolis/survey-flow/routes"
	"github.com/mbolis/survey-flow/store"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("main.dotenv:", err)
	}
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := apiclient.FromConfig(cfg, "survey-flow")
	if err != nil {
		log.Fatal("main.api_client:", err)
	}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}

	a := app.New(cfg, client, backend)
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("main.close:", err)
		}
	}()
	go a.Sessions.Run(ctx, time.Minute)

	handler := routes.Wire(a)

	err = runServer(ctx, cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Error("main.server:", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("main.server.shutdown:", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
