// Package server assembles the HTTP router and middleware chain.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/draftwise/draftwise/internal/api"
	"github.com/draftwise/draftwise/internal/api/handlers"
	"github.com/draftwise/draftwise/internal/api/middleware"
)

type RouterConfig struct {
	MaxBodyBytes      int64
	DocumentHandler   *handlers.DocumentHandler
	SearchHandler     *handlers.SearchHandler
	SuggestionHandler *handlers.SuggestionHandler
	TemplateHandler   *handlers.TemplateHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 16 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Sentry)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.OwnerScope)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Get("/{id}/download", cfg.DocumentHandler.Download)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
			r.Get("/{id}/suggestions", cfg.SuggestionHandler.Suggest)
		})

		r.Post("/search", cfg.SearchHandler.Search)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", cfg.TemplateHandler.List)
			r.Get("/{id}", cfg.TemplateHandler.Get)
			r.Post("/refresh", cfg.TemplateHandler.Refresh)
		})
	})

	return r
}
