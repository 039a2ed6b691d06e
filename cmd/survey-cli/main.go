// Command survey-cli takes a survey from the terminal.
//
//	survey-cli -api-url https://surveys.example.com/api team-pulse
//
// Answers are kept in the configured store, so an interrupted run picks up
// where it stopped.
package main

import (
	"context"
	"os"
	"os/signal"
	"os/user"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/apiclient"
	"github.com/mbolis/survey-flow/config"
	"github.com/mbolis/survey-flow/log"
	"github.com/mbolis/survey-flow/store"
	"github.com/mbolis/survey-flow/survey"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("cli.dotenv:", err)
	}
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("cli.config:", err)
	}
	if len(cfg.Args) != 1 {
		log.Fatal("usage: survey-cli [flags] <slug>")
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, cfg.Args[0]); err != nil {
		log.Error("cli:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, slug string) error {
	client, err := apiclient.FromConfig(cfg, "survey-cli")
	if err != nil {
		return err
	}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	key := store.Key{Session: respondent(), Slug: slug}
	sess, err := survey.Load(ctx, client, slug,
		survey.WithPersister(store.Bind(backend, key)),
		survey.WithLogger(log.Session(key.Session, slug)),
	)
	if err != nil {
		return errors.Wrap(err, "load")
	}

	return newPrompter(sess, os.Stdin, os.Stdout).Run(ctx)
}

func respondent() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return "cli:" + u.Username
	}
	return "cli"
}
