package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formdesk/intake/app"
	"github.com/formdesk/intake/httpx"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/", servePublicFiles(app.PublicDir))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	api.Get("/forms/{code}", PublicGetFormByCode(app))
	api.Post("/submit", PublicSubmitForm(app))
	api.Get("/submit", PublicRejectGet)

	api.Route("/admin", func(r chi.Router) {
		// CRUD form configs
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetFormById(app))
		r.Put("/forms/{id}", UpdateForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		r.Get("/forms/{id}/analytics", FormAnalytics(app))

		r.Get("/templates", ListTemplates(app))
		r.Post("/templates", CreateTemplate(app))
	})

	return api
}

func servePublicFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
