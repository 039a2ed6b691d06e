package apiclient

import (
	"golang.org/x/oauth2"

	"github.com/mbolis/survey-flow/config"
)

// FromConfig builds a client from the application settings. A token secret
// takes precedence over a static token; with neither, requests go out
// unauthenticated.
func FromConfig(cfg config.Config, userAgent string) (*Client, error) {
	var tokens oauth2.TokenSource
	switch {
	case cfg.TokenSecret != "":
		src, err := SignedToken(SignedTokenConfig{
			Secret:  []byte(cfg.TokenSecret),
			Issuer:  "survey-flow",
			Subject: userAgent,
			TTL:     cfg.TokenTTL,
		})
		if err != nil {
			return nil, err
		}
		tokens = src
	case cfg.APIToken != "":
		tokens = StaticToken(cfg.APIToken)
	}

	return New(Config{
		BaseURL:     cfg.APIBaseURL,
		TokenSource: tokens,
		UserAgent:   userAgent,
		Timeout:     cfg.APITimeout,
	})
}
