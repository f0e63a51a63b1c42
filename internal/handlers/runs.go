package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lanzhizhuxia/last30days-skill/internal/models"
)

// RunsHandler serves persisted discovery run history.
type RunsHandler struct {
	Runs *models.RunStore
}

// ListRuns handles GET /api/runs?limit=N.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.Runs.List(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []models.Run{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GetRun handles GET /api/runs/{id}, returning the run and its items.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.Runs.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	items, err := h.Runs.Items(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load run items")
		return
	}
	if items == nil {
		items = []models.Item{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"run": run, "items": items})
}
