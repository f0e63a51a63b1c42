package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lanzhizhuxia/last30days-skill/internal/models"
	"github.com/lanzhizhuxia/last30days-skill/internal/pipeline"
	"github.com/lanzhizhuxia/last30days-skill/internal/storage"
)

// defaultWindowDays is the rolling window applied when no dates are given.
const defaultWindowDays = 30

// DiscoverHandler runs the discovery pipeline on demand.
type DiscoverHandler struct {
	Deps    pipeline.Deps
	Runs    *models.RunStore // optional: persists on-demand runs when set
	Storage *storage.Client  // optional: archives run snapshots when set
}

// Discover handles GET /api/discover?topic=...&from=...&to=...&depth=...
// Dates default to the last 30 days; unknown depth falls back to "default".
func (h *DiscoverHandler) Discover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := pipeline.Options{
		Topic:    q.Get("topic"),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
		Depth:    q.Get("depth"),
	}
	if opts.FromDate == "" && opts.ToDate == "" {
		opts.FromDate, opts.ToDate = pipeline.DefaultWindow(time.Now(), defaultWindowDays)
	}

	result, err := pipeline.Run(r.Context(), opts, h.Deps)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.persist(r, result)

	respondJSON(w, http.StatusOK, result)
}

// persist best-effort stores and archives a finished run. Failures are
// logged and never affect the HTTP response.
func (h *DiscoverHandler) persist(r *http.Request, result pipeline.Result) {
	runID := uuid.New()

	if h.Runs != nil {
		run := &models.Run{
			ID:           runID,
			Topic:        result.Topic,
			Depth:        result.Depth,
			FromDate:     result.FromDate,
			ToDate:       result.ToDate,
			YouTubeError: result.YouTubeError,
		}
		if err := h.Runs.Create(r.Context(), run, result.Items); err != nil {
			slog.Error("discover: persist run", "err", err)
		}
	}
	if h.Storage != nil && h.Storage.Configured() {
		if err := h.Storage.ArchiveRun(r.Context(), runID, result); err != nil {
			slog.Error("discover: archive run", "run_id", runID, "err", err)
		}
	}
}
