package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/survey-flow/app"
	"github.com/mbolis/survey-flow/routes/middlewares"
)

func Wire(a *app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	root.Handle("/metrics", a.Metrics.Handler())

	root.Mount("/api", apiRouter(a))
	root.Mount("/", servePublicFiles(a.StaticDir))

	return root
}

func apiRouter(a *app.App) http.Handler {
	api := chi.NewRouter()
	api.Use(a.Metrics.Middleware)

	api.Route("/widget/{slug}", func(r chi.Router) {
		r.Use(middlewares.Session(a.CookieSecure))

		r.Get("/", GetWidget(a))
		r.Delete("/", Abandon(a))

		r.Put(`/answers/{questionID:^\d+$}`, PutAnswer(a))
		r.Post(`/answers/{questionID:^\d+$}/toggle/{optionID:^\d+$}`, ToggleOption(a))

		r.Post("/next", Next(a))
		r.Post("/back", Back(a))
		r.Post(`/goto/{position:^-?\d+$}`, Goto(a))
		r.Post("/submit", Submit(a))

		r.Get("/results", GetResults(a))
	})

	return api
}

func servePublicFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
