package httpx

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
)

// JSON writes body with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Cache-Control", "no-store")
	render.Status(r, status)
	render.JSON(w, r, body)
}

// DecodeJSON reads the request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return errors.Wrap(render.DecodeJSON(r.Body, v), "request body")
}
