package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the archive routes under /api/v1
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/runs", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
	})
}
