// Package reddit finds Reddit threads for a topic via the Brave Web Search
// API with a site:reddit.com filter, running 2-3 query variants to make up
// for the provider's weaker semantic ranking.
package reddit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lanzhizhuxia/last30days-skill/internal/dates"
	"github.com/lanzhizhuxia/last30days-skill/internal/models"
	"github.com/lanzhizhuxia/last30days-skill/internal/query"
)

// Searcher executes Reddit discovery against the Brave API.
type Searcher struct {
	apiKey   string
	endpoint string
	client   *http.Client
	now      func() time.Time
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithEndpoint overrides the Brave API endpoint (used in tests).
func WithEndpoint(endpoint string) Option {
	return func(s *Searcher) { s.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Searcher) { s.client = c }
}

// WithNow overrides the clock used to resolve relative dates (tests).
func WithNow(now func() time.Time) Option {
	return func(s *Searcher) { s.now = now }
}

// NewSearcher creates a Searcher with the given Brave API key.
func NewSearcher(apiKey string, opts ...Option) *Searcher {
	s := &Searcher{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: searchTimeout},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs all query variants for the topic, merges results in variant
// priority order, dedupes by canonical thread URL (first occurrence wins),
// and normalizes survivors into Items.
//
// A failing variant is logged and skipped; the remaining variants still
// execute. When every variant fails the result is simply empty.
func (s *Searcher) Search(ctx context.Context, topic, fromDate, toDate string, count int) []models.Item {
	variants := query.RedditVariants(topic)
	freshness := dates.Freshness(dates.DaysBetween(fromDate, toDate))

	seen := make(map[string]bool)
	var collected []braveResult

	for i, q := range variants {
		if ctx.Err() != nil {
			break
		}

		slog.Info("reddit: searching", "query", q)

		results, err := s.searchBrave(ctx, q, count, freshness)
		if err != nil {
			slog.Warn("reddit: query failed", "variant", i+1, "err", err)
			continue
		}

		for _, r := range results {
			key := dedupKey(r.URL)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			collected = append(collected, r)
		}
	}

	items := normalize(collected, s.now())

	slog.Info("reddit: search complete", "threads", len(items), "variants", len(variants))
	return items
}
