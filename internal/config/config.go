// Package config loads application configuration from environment variables
// and the worker's YAML topics file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	DB     DBConfig
	Server ServerConfig
	S3     S3Config
	Brave  BraveConfig
	Worker WorkerConfig
}

// DBConfig holds PostgreSQL connection parameters.
type DBConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	DBName  string
	SSLMode string
}

// DSN returns a PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Pass +
		"@" + c.Host + ":" + strconv.Itoa(c.Port) +
		"/" + c.DBName + "?sslmode=" + c.SSLMode
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port string
	Host string
	// APITokenHash is the bcrypt hash of the bearer token required on
	// non-public routes. Empty disables auth (local development).
	APITokenHash string
}

// Addr returns the full listen address (host:port).
func (c ServerConfig) Addr() string {
	return c.Host + c.Port
}

// S3Config holds S3-compatible object storage parameters for run archives.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
}

// BraveConfig holds the Brave Search API parameters.
type BraveConfig struct {
	APIKey string
}

// WorkerConfig holds scheduled-discovery parameters.
type WorkerConfig struct {
	// TopicsFile is the YAML file listing topics to scan.
	TopicsFile string
	// Schedule is a standard 5-field cron expression.
	Schedule string
	// WindowDays is the rolling recency window length.
	WindowDays int
}

// Topic is one scheduled discovery subject from the worker topics file.
type Topic struct {
	Topic string `yaml:"topic"`
	Depth string `yaml:"depth"`
}

// topicsFile is the YAML document shape of the worker topics file.
type topicsFile struct {
	Topics []Topic `yaml:"topics"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DB: DBConfig{
			Host:    envOr("DB_HOST", "localhost"),
			Port:    envOrInt("DB_PORT", 5432),
			User:    envOr("DB_USER", "last30days"),
			Pass:    envOr("DB_PASS", "last30days"),
			DBName:  envOr("DB_NAME", "last30days"),
			SSLMode: envOr("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:         envOr("SERVER_PORT", ":8080"),
			Host:         envOr("SERVER_HOST", ""),
			APITokenHash: envOr("API_TOKEN_HASH", ""),
		},
		S3: S3Config{
			Endpoint:  envOr("S3_ENDPOINT", ""),
			Bucket:    envOr("S3_BUCKET", "last30days-runs"),
			AccessKey: envOr("S3_ACCESS_KEY", ""),
			SecretKey: envOr("S3_SECRET_KEY", ""),
			Region:    envOr("S3_REGION", "us-east-1"),
		},
		Brave: BraveConfig{
			APIKey: envOr("BRAVE_API_KEY", ""),
		},
		Worker: WorkerConfig{
			TopicsFile: envOr("WORKER_TOPICS_FILE", "topics.yaml"),
			Schedule:   envOr("WORKER_SCHEDULE", "0 6 * * *"),
			WindowDays: envOrInt("WORKER_WINDOW_DAYS", 30),
		},
	}
}

// LoadTopics parses the worker topics YAML file.
func LoadTopics(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read topics file: %w", err)
	}

	var doc topicsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse topics file: %w", err)
	}

	topics := make([]Topic, 0, len(doc.Topics))
	for _, t := range doc.Topics {
		if t.Topic == "" {
			continue
		}
		topics = append(topics, t)
	}
	return topics, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
