package httpx

import (
	"fmt"
	"net/http"

	"github.com/mbolis/survey-flow/log"
	"github.com/mbolis/survey-flow/model"
)

// Will log an error, and send a JSON response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	JSON(w, r, http.StatusInternalServerError, model.ErrorResponse{
		Detail: http.StatusText(http.StatusInternalServerError),
	})
}

// Will log an error code at the given level, and send
// a JSON response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	JSON(w, r, status, model.ErrorResponse{
		Detail: http.StatusText(status),
		Code:   code,
	})
}

// Will log an error code and message at the given level,
// and send a JSON response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	JSON(w, r, status, model.ErrorResponse{
		Detail: errMsg,
		Code:   code,
	})
}

// Will log err under code at the given level, and send body as JSON with the given status
func LogJSON(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, err error, body any) {
	log.Log(level, code+":", err)
	JSON(w, r, status, body)
}
