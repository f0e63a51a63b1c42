package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run records one persisted discovery pass.
type Run struct {
	ID           uuid.UUID `json:"id"`
	Topic        string    `json:"topic"`
	Depth        string    `json:"depth"`
	FromDate     string    `json:"from_date"`
	ToDate       string    `json:"to_date"`
	ItemCount    int       `json:"item_count"`
	YouTubeError string    `json:"youtube_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunStore provides data access methods for discovery runs and their items.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Create inserts a run together with its item rows in one transaction.
func (s *RunStore) Create(ctx context.Context, run *Run, items []Item) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.ItemCount = len(items)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("run create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO runs (id, topic, depth, from_date, to_date, item_count, youtube_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, run.ID, run.Topic, run.Depth, run.FromDate, run.ToDate, run.ItemCount, run.YouTubeError).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("run create: %w", err)
	}

	for pos, it := range items {
		var views, likes, comments int
		if it.Engagement != nil {
			views, likes, comments = it.Engagement.Views, it.Engagement.Likes, it.Engagement.Comments
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO run_items (
				id, run_id, item_id, source, title, url, subgroup, published,
				why_relevant, relevance, channel_name, views, likes, comments,
				duration, transcript, position
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`, uuid.New(), run.ID, it.ID, it.Source, it.Title, it.URL, it.Subgroup,
			nullIfEmpty(it.Date), it.WhyRelevant, it.Relevance, it.ChannelName,
			views, likes, comments, it.Duration, it.TranscriptSnippet, pos)
		if err != nil {
			return fmt.Errorf("run create: insert item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("run create: commit: %w", err)
	}
	return nil
}

// List returns the most recent runs up to the given limit.
func (s *RunStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, topic, depth, from_date, to_date, item_count, youtube_error, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("run list: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Topic, &r.Depth, &r.FromDate, &r.ToDate,
			&r.ItemCount, &r.YouTubeError, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("run scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns one run by id.
func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	var r Run
	err := s.pool.QueryRow(ctx, `
		SELECT id, topic, depth, from_date, to_date, item_count, youtube_error, created_at
		FROM runs
		WHERE id = $1
	`, id).Scan(&r.ID, &r.Topic, &r.Depth, &r.FromDate, &r.ToDate,
		&r.ItemCount, &r.YouTubeError, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("run get: %w", err)
	}
	return &r, nil
}

// Items returns the item rows of a run in their original pipeline order.
func (s *RunStore) Items(ctx context.Context, runID uuid.UUID) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id, source, title, url, subgroup, published, why_relevant,
		       relevance, channel_name, views, likes, comments, duration, transcript
		FROM run_items
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var published *string
		var views, likes, comments int
		if err := rows.Scan(&it.ID, &it.Source, &it.Title, &it.URL, &it.Subgroup,
			&published, &it.WhyRelevant, &it.Relevance, &it.ChannelName,
			&views, &likes, &comments, &it.Duration, &it.TranscriptSnippet); err != nil {
			return nil, fmt.Errorf("run item scan: %w", err)
		}
		if published != nil {
			it.Date = *published
		}
		if it.Source == SourceYouTube {
			it.Engagement = &Engagement{Views: views, Likes: likes, Comments: comments}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
