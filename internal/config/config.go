// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all scanner configuration.
type Config struct {
	// Remote provider ("drive" or "s3")
	Provider string

	// Root of the scanned tree
	RootFolderID   string
	RootFolderName string

	// Google Drive (service account)
	CredentialsFile string

	// S3 provider
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
	S3Prefix    string

	// Retry policy
	MaxRetries int
	RetryDelay time.Duration

	// Snapshot store ("file" or "postgres")
	SnapshotBackend string
	OutputDir       string
	DatabaseURL     string

	// Daemon mode (0 = single scan and exit)
	ScanInterval time.Duration
	MetricsAddr  string

	// Timestamps in persisted bundles
	Timezone string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Provider:        envOr("PROVIDER", "drive"),
		RootFolderID:    envOr("ROOT_FOLDER_ID", ""),
		RootFolderName:  envOr("ROOT_FOLDER_NAME", "My Drive"),
		CredentialsFile: envOr("CREDENTIALS_FILE", "credentials.json"),
		S3Endpoint:      envOr("S3_ENDPOINT", "http://localhost:9000"),
		S3Bucket:        envOr("S3_BUCKET", ""),
		S3AccessKey:     envOr("S3_ACCESS_KEY", ""),
		S3SecretKey:     envOr("S3_SECRET_KEY", ""),
		S3Region:        envOr("S3_REGION", "us-east-1"),
		S3UseSSL:        envBool("S3_USE_SSL", false),
		S3Prefix:        envOr("S3_PREFIX", ""),
		MaxRetries:      envInt("MAX_RETRIES", 3),
		RetryDelay:      envDuration("RETRY_DELAY", 2*time.Second),
		SnapshotBackend: envOr("SNAPSHOT_BACKEND", "file"),
		OutputDir:       envOr("OUTPUT_DIR", "public"),
		DatabaseURL:     envOr("DATABASE_URL", ""),
		ScanInterval:    envDuration("SCAN_INTERVAL", 0),
		MetricsAddr:     envOr("METRICS_ADDR", ":9090"),
		Timezone:        envOr("TIMEZONE", "Asia/Manila"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		LogFormat:       envOr("LOG_FORMAT", "json"),
	}

	switch cfg.Provider {
	case "drive":
		if cfg.RootFolderID == "" {
			return nil, fmt.Errorf("ROOT_FOLDER_ID is required")
		}
		if cfg.CredentialsFile == "" {
			return nil, fmt.Errorf("CREDENTIALS_FILE is required")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required")
		}
	default:
		return nil, fmt.Errorf("unknown PROVIDER %q (want drive or s3)", cfg.Provider)
	}

	switch cfg.SnapshotBackend {
	case "file":
		if cfg.OutputDir == "" {
			return nil, fmt.Errorf("OUTPUT_DIR is required")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	default:
		return nil, fmt.Errorf("unknown SNAPSHOT_BACKEND %q (want file or postgres)", cfg.SnapshotBackend)
	}

	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("MAX_RETRIES must be at least 1")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
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

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
