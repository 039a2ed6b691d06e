package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionEcho() http.Handler {
	return Session(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(SessionID(r.Context())))
	}))
}

func TestSession_IssuesCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	sessionEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, rec.Body.String())
	_, err := uuid.FromString(cookies[0].Value)
	assert.NoError(t, err)
}

func TestSession_KeepsValidCookie(t *testing.T) {
	id := uuid.Must(uuid.NewV4()).String()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})

	rec := httptest.NewRecorder()
	sessionEcho().ServeHTTP(rec, r)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, id, rec.Body.String())
}

func TestSession_ReplacesMalformedCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})

	rec := httptest.NewRecorder()
	sessionEcho().ServeHTTP(rec, r)

	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "../../etc", rec.Body.String())
}
