// Command api starts the discovery HTTP API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lanzhizhuxia/last30days-skill/internal/config"
	"github.com/lanzhizhuxia/last30days-skill/internal/db"
	"github.com/lanzhizhuxia/last30days-skill/internal/handlers"
	"github.com/lanzhizhuxia/last30days-skill/internal/middleware"
	"github.com/lanzhizhuxia/last30days-skill/internal/models"
	"github.com/lanzhizhuxia/last30days-skill/internal/pipeline"
	"github.com/lanzhizhuxia/last30days-skill/internal/reddit"
	"github.com/lanzhizhuxia/last30days-skill/internal/storage"
	"github.com/lanzhizhuxia/last30days-skill/internal/youtube"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Database is optional for the API: without it, discovery still works
	// but run history is unavailable.
	var runStore *models.RunStore
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Warn("database not available, run history disabled", "err", err)
	} else {
		defer pool.Close()
		runStore = models.NewRunStore(pool)
	}

	storageClient, err := storage.NewClient(ctx, cfg.S3)
	if err != nil {
		slog.Warn("S3 storage not available, run archiving disabled", "err", err)
		storageClient = nil
	}

	deps := pipeline.Deps{
		Video:    youtube.NewScraper(),
		Enricher: &youtube.Enricher{Fetcher: youtube.NewTranscriptClient()},
	}
	if cfg.Brave.APIKey != "" {
		deps.Reddit = reddit.NewSearcher(cfg.Brave.APIKey)
	} else {
		slog.Warn("BRAVE_API_KEY not set, Reddit backend disabled")
	}

	discoverHandler := &handlers.DiscoverHandler{
		Deps:    deps,
		Runs:    runStore,
		Storage: storageClient,
	}
	runsHandler := &handlers.RunsHandler{Runs: runStore}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/health", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.Server.APITokenHash))

		r.Get("/api/discover", discoverHandler.Discover)
		if runStore != nil {
			r.Get("/api/runs", runsHandler.ListRuns)
			r.Get("/api/runs/{id}", runsHandler.GetRun)
		}
	})

	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}

	slog.Info("server stopped")
}
