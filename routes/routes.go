package routes

import (
	"net/http"

	"github.com/branchsurvey/server/app"
	"github.com/branchsurvey/server/routes/middlewares"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// respondent flow
	api.Get(`/surveys/{id:^\d+$}`, PublicGetSurveyById(app))
	api.Put(`/surveys/{id:^\d+$}/answers`, PublicSaveAnswer(app))
	api.Post(`/surveys/{id:^\d+$}/groups/{groupId:^\d+$}/advance`, PublicAdvanceGroup(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(app))
		r.Put(`/surveys/{id:^\d+$}/questions/{questionId:^\d+$}`, UpdateQuestion(app))

		r.Get(`/surveys/{id:^\d+$}/answers`, GetSurveyAnswers(app))
		r.Post(`/surveys/{id:^\d+$}/demo`, CreateDemoResponse(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
