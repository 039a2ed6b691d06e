package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/mbolis/survey-flow/app"
	"github.com/mbolis/survey-flow/httpx"
	"github.com/mbolis/survey-flow/log"
	"github.com/mbolis/survey-flow/routes/middlewares"
	"github.com/mbolis/survey-flow/store"
	"github.com/mbolis/survey-flow/survey"
)

func GetWidget(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}
		httpx.JSON(w, r, http.StatusOK, viewOf(r.Context(), sess))
	}
}

type answerBody struct {
	OptionID *int64  `json:"option_id"`
	Text     *string `json:"text"`
}

func PutAnswer(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.question_id")
			return
		}

		var body answerBody
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if body.OptionID == nil && body.Text == nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "expected option_id or text")
			return
		}

		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}

		if body.OptionID != nil {
			err = sess.SetChoice(r.Context(), questionID, *body.OptionID)
		} else {
			err = sess.SetText(r.Context(), questionID, *body.Text)
		}
		if err != nil {
			fail(w, r, sess, err)
			return
		}
		httpx.JSON(w, r, http.StatusOK, viewOf(r.Context(), sess))
	}
}

func ToggleOption(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.question_id")
			return
		}
		optionID, err := strconv.ParseInt(chi.URLParam(r, "optionID"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.option_id")
			return
		}

		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}
		if err := sess.Toggle(r.Context(), questionID, optionID); err != nil {
			fail(w, r, sess, err)
			return
		}
		httpx.JSON(w, r, http.StatusOK, viewOf(r.Context(), sess))
	}
}

// Next advances to the following question, or submits from the last one.
func Next(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}
		outcome, err := sess.Advance(r.Context())
		finish(w, r, sess, outcome, err)
	}
}

func Submit(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}
		outcome, err := sess.Submit(r.Context())
		finish(w, r, sess, outcome, err)
	}
}

func Back(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}
		if err := sess.Retreat(r.Context()); err != nil {
			fail(w, r, sess, err)
			return
		}
		httpx.JSON(w, r, http.StatusOK, viewOf(r.Context(), sess))
	}
}

// Goto jumps to a 1-based position. Out of range positions land on the
// first question and are flagged as redirected.
func Goto(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		position, err := strconv.Atoi(chi.URLParam(r, "position"))
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.position")
			return
		}

		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}
		redirected, err := sess.Seek(r.Context(), position)
		if err != nil {
			fail(w, r, sess, err)
			return
		}
		v := viewOf(r.Context(), sess)
		v.Redirected = redirected
		httpx.JSON(w, r, http.StatusOK, v)
	}
}

// Abandon drops the respondent's answers, loaded or not.
func Abandon(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := sessionKey(r)

		if sess, ok := a.Sessions.Peek(key); ok {
			if err := sess.Abandon(r.Context()); err != nil {
				fail(w, r, sess, err)
				return
			}
			a.Sessions.Drop(key)
		} else if err := a.Store.Delete(r.Context(), key); err != nil {
			httpx.LogInternalError(w, r, "store.delete", err)
			return
		}

		log.Session(key.Session, key.Slug).Debug("widget.abandon")
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetResults(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := loadSession(a, w, r)
		if !ok {
			return
		}
		if sess.Phase() != survey.PhaseSubmitted {
			httpx.LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, "results.not_submitted", "no response submitted yet")
			return
		}
		httpx.JSON(w, r, http.StatusOK, resultsView(r.Context(), sess))
	}
}

func sessionKey(r *http.Request) store.Key {
	return store.Key{
		Session: middlewares.SessionID(r.Context()),
		Slug:    chi.URLParam(r, "slug"),
	}
}

func loadSession(a *app.App, w http.ResponseWriter, r *http.Request) (*survey.Session, bool) {
	key := sessionKey(r)
	sess, err := a.Sessions.Get(r.Context(), key)
	switch {
	case err == nil:
		return sess, true
	case errors.Is(err, survey.ErrSurveyNotFound):
		httpx.LogJSON(w, r, http.StatusNotFound, log.DebugLevel, "widget.load", err, errorView(key.Slug))
	default:
		httpx.LogInternalError(w, r, "widget.load", err)
	}
	return nil, false
}

func finish(w http.ResponseWriter, r *http.Request, sess *survey.Session, outcome survey.Outcome, err error) {
	if err != nil {
		fail(w, r, sess, err)
		return
	}

	v := viewOf(r.Context(), sess)
	v.Outcome = outcome.String()
	if outcome == survey.OutcomeAlreadySubmitted {
		v.Message = msgAlreadySubmitted
	}
	httpx.JSON(w, r, http.StatusOK, v)
}

// fail maps session errors to responses that still carry a drawable view.
func fail(w http.ResponseWriter, r *http.Request, sess *survey.Session, err error) {
	var (
		incomplete *survey.IncompleteError
		submitErr  *survey.SubmitError
	)
	switch {
	case errors.As(err, &incomplete):
		v := questionView(sess)
		v.Error = &ErrorView{
			Kind:       "validation",
			Message:    msgRequired,
			QuestionID: incomplete.Question.ID,
			Position:   incomplete.Index + 1,
		}
		httpx.LogJSON(w, r, http.StatusUnprocessableEntity, log.DebugLevel, "widget.validation", err, v)

	case errors.As(err, &submitErr):
		v := questionView(sess)
		v.Error = &ErrorView{Kind: "transport", Message: submitMessage(err), Retryable: submitErr.Retryable()}
		httpx.LogJSON(w, r, http.StatusBadGateway, log.WarnLevel, "widget.submit", err, v)

	case errors.Is(err, survey.ErrSubmitInProgress):
		v := View{
			State: StateSubmitting,
			Slug:  sess.Survey().Slug,
			Error: &ErrorView{Kind: "in_flight", Message: msgSubmitting},
		}
		httpx.LogJSON(w, r, http.StatusConflict, log.DebugLevel, "widget.in_flight", err, v)

	case errors.Is(err, survey.ErrFinished):
		v := viewOf(r.Context(), sess)
		v.Error = &ErrorView{Kind: "finished", Message: msgAlreadySubmitted}
		httpx.LogJSON(w, r, http.StatusConflict, log.DebugLevel, "widget.finished", err, v)

	case errors.Is(err, survey.ErrCannotGoBack), errors.Is(err, survey.ErrNotLastQuestion):
		v := viewOf(r.Context(), sess)
		v.Error = &ErrorView{Kind: "navigation", Message: err.Error()}
		httpx.LogJSON(w, r, http.StatusConflict, log.DebugLevel, "widget.navigation", err, v)

	case errors.Is(err, survey.ErrUnknownQuestion),
		errors.Is(err, survey.ErrUnknownOption),
		errors.Is(err, survey.ErrTypeMismatch):
		v := viewOf(r.Context(), sess)
		v.Error = &ErrorView{Kind: "invalid_answer", Message: err.Error()}
		httpx.LogJSON(w, r, http.StatusBadRequest, log.DebugLevel, "widget.answer", err, v)

	default:
		httpx.LogInternalError(w, r, "widget", err)
	}
}
