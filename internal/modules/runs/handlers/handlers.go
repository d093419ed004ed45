// Package handlers provides HTTP handlers for the sweep archive.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aristath/minesim/internal/modules/runs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxListLimit caps ?limit= on the run list
const maxListLimit = 500

// Handler handles archive HTTP requests
type Handler struct {
	repo *runs.Repository
	log  zerolog.Logger
}

// NewHandler creates a new archive handler
func NewHandler(repo *runs.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "runs").Logger(),
	}
}

// HandleList handles GET /api/v1/runs
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := runs.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and "+strconv.Itoa(maxListLimit))
			return
		}
		limit = n
	}

	list, err := h.repo.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		h.writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if list == nil {
		list = []runs.Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  list,
		"count": len(list),
	})
}

// HandleGet handles GET /api/v1/runs/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.repo.Get(id)
	if errors.Is(err, runs.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		h.writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
