// Package pipeline wires the discovery stages together: plan queries, run
// both backends, and enrich the top videos. Backends run sequentially and
// degrade independently: a dead backend shrinks the result, it never fails
// the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lanzhizhuxia/last30days-skill/internal/dates"
	"github.com/lanzhizhuxia/last30days-skill/internal/models"
)

// Depth tiers. Unknown values fall back to DepthDefault.
const (
	DepthQuick   = "quick"
	DepthDefault = "default"
	DepthDeep    = "deep"
)

// Volumes is the per-depth result volume configuration. Fixed at build time,
// not negotiated with providers.
type Volumes struct {
	Search      int
	Video       int
	Transcripts int
}

var depthVolumes = map[string]Volumes{
	DepthQuick:   {Search: 10, Video: 10, Transcripts: 3},
	DepthDefault: {Search: 20, Video: 20, Transcripts: 5},
	DepthDeep:    {Search: 30, Video: 40, Transcripts: 8},
}

// VolumesFor resolves a depth tier to its volume configuration.
func VolumesFor(depth string) Volumes {
	if v, ok := depthVolumes[depth]; ok {
		return v
	}
	return depthVolumes[DepthDefault]
}

// RedditSearcher finds Reddit threads for a topic. Per-variant failures are
// absorbed inside the implementation; the result is possibly empty, never an
// error.
type RedditSearcher interface {
	Search(ctx context.Context, topic, fromDate, toDate string, count int) []models.Item
}

// VideoSearcher finds videos for a topic. A returned error marks the whole
// backend as degraded for this run.
type VideoSearcher interface {
	Search(ctx context.Context, topic, fromDate string, count int) ([]models.Item, error)
}

// VideoEnricher attaches transcripts to the top-ranked videos.
type VideoEnricher interface {
	Enrich(ctx context.Context, items []models.Item, limit int) []models.Item
}

// Deps groups the backends a run needs. A nil backend is skipped.
type Deps struct {
	Reddit   RedditSearcher
	Video    VideoSearcher
	Enricher VideoEnricher
}

// Options are the per-run inputs.
type Options struct {
	Topic    string
	FromDate string
	ToDate   string
	Depth    string
}

// Result is the outcome of one discovery run. YouTubeError is the degraded
// marker for a video backend that could not run at all; the item list is
// still valid without it.
type Result struct {
	Topic        string        `json:"topic"`
	FromDate     string        `json:"from_date"`
	ToDate       string        `json:"to_date"`
	Depth        string        `json:"depth"`
	Items        []models.Item `json:"items"`
	RedditCount  int           `json:"reddit_count"`
	YouTubeCount int           `json:"youtube_count"`
	YouTubeError string        `json:"youtube_error,omitempty"`
}

// Validate checks the run inputs. This is the only error source in a run.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Topic) == "" {
		return fmt.Errorf("pipeline: topic is required")
	}
	if !dates.Valid(o.FromDate) {
		return fmt.Errorf("pipeline: invalid from_date %q", o.FromDate)
	}
	if !dates.Valid(o.ToDate) {
		return fmt.Errorf("pipeline: invalid to_date %q", o.ToDate)
	}
	return nil
}

// DefaultWindow returns the rolling discovery window ending today.
func DefaultWindow(now time.Time, days int) (from, to string) {
	return now.AddDate(0, 0, -days).Format(dates.ISODate), now.Format(dates.ISODate)
}

// Run executes one discovery pass: Reddit threads first, then videos with
// transcript enrichment, merged into a single item list. The returned error
// is non-nil only for invalid input.
func Run(ctx context.Context, opts Options, deps Deps) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	depth := opts.Depth
	if _, ok := depthVolumes[depth]; !ok {
		depth = DepthDefault
	}
	vols := VolumesFor(depth)

	res := Result{
		Topic:    opts.Topic,
		FromDate: opts.FromDate,
		ToDate:   opts.ToDate,
		Depth:    depth,
	}

	start := time.Now()
	slog.Info("pipeline: run starting", "topic", opts.Topic, "depth", depth,
		"from", opts.FromDate, "to", opts.ToDate)

	if deps.Reddit != nil {
		threads := deps.Reddit.Search(ctx, opts.Topic, opts.FromDate, opts.ToDate, vols.Search)
		res.RedditCount = len(threads)
		res.Items = append(res.Items, threads...)
	}

	if deps.Video != nil {
		videos, err := deps.Video.Search(ctx, opts.Topic, opts.FromDate, vols.Video)
		if err != nil {
			slog.Warn("pipeline: video backend degraded", "err", err)
			res.YouTubeError = err.Error()
		} else {
			if deps.Enricher != nil {
				videos = deps.Enricher.Enrich(ctx, videos, vols.Transcripts)
			}
			res.YouTubeCount = len(videos)
			res.Items = append(res.Items, videos...)
		}
	}

	slog.Info("pipeline: run complete",
		"items", len(res.Items),
		"reddit", res.RedditCount,
		"youtube", res.YouTubeCount,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}
