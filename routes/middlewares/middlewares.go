package middlewares

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"

	"github.com/mbolis/survey-flow/httpx"
)

const SessionCookie = "qs_session"

type sessionKey struct{}

// Session makes sure every request belongs to a respondent. The id lives in a
// cookie; a missing or malformed one is replaced by a fresh UUID.
func Session(secure bool) func(http.Handler) http.Handler {
	sameSite := http.SameSiteLaxMode
	if secure {
		// the widget is embedded in third-party pages
		sameSite = http.SameSiteNoneMode
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(SessionCookie); err == nil {
				if u, err := uuid.FromString(c.Value); err == nil {
					id = u.String()
				}
			}

			if id == "" {
				u, err := uuid.NewV4()
				if err != nil {
					httpx.LogInternalError(w, r, "session.new_id", err)
					return
				}
				id = u.String()
				http.SetCookie(w, &http.Cookie{
					Path:     "/",
					Name:     SessionCookie,
					Value:    id,
					HttpOnly: true,
					Secure:   secure,
					SameSite: sameSite,
				})
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
		})
	}
}

// SessionID returns the respondent id set by Session.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
