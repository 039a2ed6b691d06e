package apiclient

import (
	"fmt"
	"net/http"
	"strings"
)

// CodeAlreadySubmitted is the structured error code for a repeat
// submission from the same respondent.
const CodeAlreadySubmitted = "already_submitted"

// APIError is a non-success reply from the survey API.
type APIError struct {
	Status int
	Detail string
	Code   string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
}

// AlreadySubmitted prefers the structured code and 409 Conflict. Older
// backends only say so in the detail text, which is matched as a last resort.
func (e *APIError) AlreadySubmitted() bool {
	if e.Code == CodeAlreadySubmitted || e.Status == http.StatusConflict {
		return true
	}
	return strings.Contains(strings.ToLower(e.Detail), "already submitted")
}

// DetailMessage is the backend's human-readable reason, if it sent one.
func (e *APIError) DetailMessage() string {
	return e.Detail
}
