// Package storage archives discovery run snapshots to S3-compatible object
// storage.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lanzhizhuxia/last30days-skill/internal/config"
)

// Client wraps an S3-compatible object storage client.
type Client struct {
	s3     *s3.Client
	bucket string
}

// NewClient creates a new S3-compatible storage client. When no endpoint is
// configured the client is a no-op and archiving is disabled.
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	if cfg.Endpoint == "" {
		slog.Warn("S3 endpoint not configured, run archiving disabled")
		return &Client{bucket: cfg.Bucket}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = &cfg.Endpoint
		o.UsePathStyle = true
	})

	return &Client{
		s3:     client,
		bucket: cfg.Bucket,
	}, nil
}

// Configured returns true if the client has a valid connection configured.
func (c *Client) Configured() bool {
	return c.s3 != nil
}

// ArchiveRun serializes a run result, compresses it and uploads it under
// runs/<date>/<run-id>.json.gz.
func (c *Client) ArchiveRun(ctx context.Context, runID uuid.UUID, result any) error {
	if c.s3 == nil {
		slog.Warn("run archiving not configured, skipping upload", "run_id", runID)
		return nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal run: %w", err)
	}

	compressed, err := gzipCompress(payload)
	if err != nil {
		return fmt.Errorf("storage: compress run: %w", err)
	}

	key := fmt.Sprintf("runs/%s/%s.json.gz", time.Now().UTC().Format("2006-01-02"), runID)
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
		Body:   bytes.NewReader(compressed),
	})
	if err != nil {
		return fmt.Errorf("storage: upload %s: %w", key, err)
	}

	slog.Debug("run archived", "key", key, "size", len(compressed))
	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip: create writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: close: %w", err)
	}
	return buf.Bytes(), nil
}
