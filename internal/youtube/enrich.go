package youtube

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/lanzhizhuxia/last30days-skill/internal/models"
)

// DefaultPace is the forced delay between consecutive transcript fetches.
// Fetching is deliberately serial and paced: parallel or back-to-back
// requests get throttled or blocked by the provider.
const DefaultPace = time.Second

// TranscriptFetcher fetches the transcript for one video.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// Enricher attaches transcript text to the top-ranked videos of a search.
type Enricher struct {
	Fetcher TranscriptFetcher
	// Pace overrides DefaultPace when positive (tests use a tiny value).
	Pace time.Duration
}

// Enrich populates TranscriptSnippet on the first limit items, serially and
// paced. Items beyond the limit keep an empty snippet rather than being
// dropped. Per-item failures never abort the batch: unavailable transcripts
// are expected, anything else is logged and skipped.
func (e *Enricher) Enrich(ctx context.Context, items []models.Item, limit int) []models.Item {
	if len(items) == 0 || limit <= 0 {
		return items
	}
	if limit > len(items) {
		limit = len(items)
	}

	pace := e.Pace
	if pace <= 0 {
		pace = DefaultPace
	}

	slog.Info("youtube: fetching transcripts", "videos", limit)

	// Burst 1: the first fetch runs immediately, each later one waits out
	// the pacing interval.
	limiter := rate.NewLimiter(rate.Every(pace), 1)

	got := 0
	for i := 0; i < limit; i++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		text, err := e.Fetcher.Transcript(ctx, items[i].VideoID)
		switch {
		case err == nil:
			items[i].TranscriptSnippet = text
			got++
		case errors.Is(err, ErrCaptionsDisabled),
			errors.Is(err, ErrVideoUnavailable),
			errors.Is(err, ErrNoTranscript):
			// Expected: this video simply has no usable transcript.
		default:
			slog.Warn("youtube: transcript error", "video", items[i].VideoID, "err", err)
		}
	}

	slog.Info("youtube: transcripts fetched", "got", got, "attempted", limit)
	return items
}
