// Command worker runs scheduled discovery for a configured topic list over a
// rolling recency window, persisting each run to Postgres and archiving a
// snapshot to object storage.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/lanzhizhuxia/last30days-skill/internal/config"
	"github.com/lanzhizhuxia/last30days-skill/internal/db"
	"github.com/lanzhizhuxia/last30days-skill/internal/models"
	"github.com/lanzhizhuxia/last30days-skill/internal/pipeline"
	"github.com/lanzhizhuxia/last30days-skill/internal/reddit"
	"github.com/lanzhizhuxia/last30days-skill/internal/storage"
	"github.com/lanzhizhuxia/last30days-skill/internal/youtube"
)

// scanTimeout bounds one full pass over the topic list.
const scanTimeout = 2 * time.Hour

func main() {
	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("worker: starting discovery worker")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("worker: database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	runStore := models.NewRunStore(pool)

	storageClient, err := storage.NewClient(ctx, cfg.S3)
	if err != nil {
		slog.Error("worker: storage client creation failed", "err", err)
		os.Exit(1)
	}

	deps := pipeline.Deps{
		Video:    youtube.NewScraper(),
		Enricher: &youtube.Enricher{Fetcher: youtube.NewTranscriptClient()},
	}
	if cfg.Brave.APIKey != "" {
		deps.Reddit = reddit.NewSearcher(cfg.Brave.APIKey)
	} else {
		slog.Warn("worker: BRAVE_API_KEY not set, Reddit backend disabled")
	}

	// Track in-flight jobs for graceful shutdown.
	var wg sync.WaitGroup

	scan := func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, scanTimeout)
		defer jobCancel()

		runTopicScan(jobCtx, cfg, deps, runStore, storageClient)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Worker.Schedule, scan); err != nil {
		slog.Error("worker: add discovery cron", "schedule", cfg.Worker.Schedule, "err", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("worker: cron scheduler started", "schedule", cfg.Worker.Schedule)

	// Run an initial scan on startup so we don't wait for the first tick.
	go func() {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}
		scan()
	}()

	// ── Graceful Shutdown ──────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("worker: received shutdown signal", "signal", sig.String())

	cronCtx := c.Stop()
	cancel()

	select {
	case <-cronCtx.Done():
		slog.Info("worker: cron scheduler stopped")
	case <-time.After(30 * time.Second):
		slog.Warn("worker: cron scheduler stop timed out")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("worker: all in-flight jobs complete")
	case <-time.After(60 * time.Second):
		slog.Warn("worker: timed out waiting for in-flight jobs")
	}

	pool.Close()
	slog.Info("worker: shutdown complete")
}

// runTopicScan runs the pipeline for every configured topic sequentially.
// Topics are processed one at a time to keep provider pressure low; a failed
// topic does not stop the rest.
func runTopicScan(ctx context.Context, cfg config.Config, deps pipeline.Deps, runs *models.RunStore, store *storage.Client) {
	topics, err := config.LoadTopics(cfg.Worker.TopicsFile)
	if err != nil {
		slog.Error("worker: load topics", "file", cfg.Worker.TopicsFile, "err", err)
		return
	}
	if len(topics) == 0 {
		slog.Info("worker: no topics configured")
		return
	}

	slog.Info("worker: starting topic scan", "topics", len(topics))
	start := time.Now()
	from, to := pipeline.DefaultWindow(time.Now(), cfg.Worker.WindowDays)

	for _, t := range topics {
		if ctx.Err() != nil {
			break
		}

		result, err := pipeline.Run(ctx, pipeline.Options{
			Topic:    t.Topic,
			FromDate: from,
			ToDate:   to,
			Depth:    t.Depth,
		}, deps)
		if err != nil {
			slog.Error("worker: run failed", "topic", t.Topic, "err", err)
			continue
		}

		runID := uuid.New()
		run := &models.Run{
			ID:           runID,
			Topic:        result.Topic,
			Depth:        result.Depth,
			FromDate:     result.FromDate,
			ToDate:       result.ToDate,
			YouTubeError: result.YouTubeError,
		}
		if err := runs.Create(ctx, run, result.Items); err != nil {
			slog.Error("worker: persist run", "topic", t.Topic, "err", err)
			continue
		}

		if store.Configured() {
			if err := store.ArchiveRun(ctx, runID, result); err != nil {
				slog.Error("worker: archive run", "run_id", runID, "err", err)
			}
		}

		slog.Info("worker: topic complete", "topic", t.Topic, "items", len(result.Items))
	}

	slog.Info("worker: topic scan complete",
		"topics", len(topics),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
