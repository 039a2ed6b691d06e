package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

type SignedTokenConfig struct {
	Secret  []byte
	Issuer  string
	Subject string
	TTL     time.Duration
	Now     func() time.Time
}

// SignedToken mints HS256 service tokens from a shared secret. A token is
// reused until it is about to expire.
func SignedToken(cfg SignedTokenConfig) (oauth2.TokenSource, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("apiclient: empty token secret")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return oauth2.ReuseTokenSource(nil, &jwtSource{cfg: cfg}), nil
}

type jwtSource struct {
	cfg SignedTokenConfig
}

func (s *jwtSource) Token() (*oauth2.Token, error) {
	now := s.cfg.Now()
	exp := now.Add(s.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   s.cfg.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: sign token")
	}
	return &oauth2.Token{AccessToken: signed, TokenType: "Bearer", Expiry: exp}, nil
}
