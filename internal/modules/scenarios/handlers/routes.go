package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers the simulation routes under /api/v1
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		// Full sweeps at large trial counts take a while
		r.Use(middleware.Timeout(120 * time.Second))

		r.Route("/simulate", func(r chi.Router) {
			r.Post("/run", h.HandleRun)
			r.Post("/sweep", h.HandleSweep)
			r.Get("/sweep/stream", h.HandleSweepStream)
		})
	})
}
