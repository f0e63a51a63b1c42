// Command discover runs one discovery pass from the command line and prints
// the result as JSON on stdout. Progress and error lines go to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lanzhizhuxia/last30days-skill/internal/config"
	"github.com/lanzhizhuxia/last30days-skill/internal/pipeline"
	"github.com/lanzhizhuxia/last30days-skill/internal/reddit"
	"github.com/lanzhizhuxia/last30days-skill/internal/youtube"
)

func main() {
	topic := flag.String("topic", "", "research topic (required)")
	from := flag.String("from", "", "window start, YYYY-MM-DD (default: 30 days ago)")
	to := flag.String("to", "", "window end, YYYY-MM-DD (default: today)")
	depth := flag.String("depth", pipeline.DepthDefault, "depth tier: quick, default or deep")
	noReddit := flag.Bool("no-reddit", false, "skip the Reddit backend")
	noVideo := flag.Bool("no-youtube", false, "skip the YouTube backend")
	flag.Parse()

	// Diagnostics on stderr so stdout stays machine-readable.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if *from == "" && *to == "" {
		*from, *to = pipeline.DefaultWindow(time.Now(), 30)
	}

	cfg := config.Load()

	var deps pipeline.Deps
	if !*noReddit {
		if cfg.Brave.APIKey == "" {
			slog.Warn("BRAVE_API_KEY not set, skipping Reddit backend")
		} else {
			deps.Reddit = reddit.NewSearcher(cfg.Brave.APIKey)
		}
	}
	if !*noVideo {
		deps.Video = youtube.NewScraper()
		deps.Enricher = &youtube.Enricher{Fetcher: youtube.NewTranscriptClient()}
	}

	result, err := pipeline.Run(context.Background(), pipeline.Options{
		Topic:    *topic,
		FromDate: *from,
		ToDate:   *to,
		Depth:    *depth,
	}, deps)
	if err != nil {
		slog.Error("discover: invalid input", "err", err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		slog.Error("discover: write result", "err", err)
		os.Exit(1)
	}
}
