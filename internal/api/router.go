package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/roadmap/internal/roadmap"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events outside the metrics
// middleware so long-lived streams do not skew request latency.
func NewRouter(store *roadmap.Store, sseHandler http.Handler) chi.Router {
	h := NewHandler(store)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware)

		// Whole-state views.
		r.Get("/state", h.GetState)
		r.Delete("/state", h.ClearState)
		r.Post("/reset", h.ResetProgress)

		// Nodes.
		r.Get("/nodes", h.ListNodes)
		r.Post("/nodes", h.CreateNode)
		r.Post("/nodes/next", h.NextRecommended)
		r.Get("/nodes/{id}", h.GetNode)
		r.Patch("/nodes/{id}", h.UpdateNode)
		r.Delete("/nodes/{id}", h.DeleteNode)
		r.Post("/nodes/{id}/reorder", h.ReorderNode)
		r.Put("/nodes/{id}/status", h.SetStatus)
		r.Put("/nodes/{id}/notes", h.SetNotes)
		r.Post("/nodes/{id}/favorite", h.ToggleFavorite)

		// Selection and search.
		r.Put("/selection", h.SelectNode)
		r.Get("/search", h.GetSearch)
		r.Put("/search", h.SetSearch)
		r.Post("/search/toggle", h.ToggleSearch)
		r.Get("/categories", h.Categories)

		// Derived stats and preferences.
		r.Get("/stats", h.Stats)
		r.Get("/preferences", h.GetPreferences)
		r.Patch("/preferences", h.UpdatePreferences)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
