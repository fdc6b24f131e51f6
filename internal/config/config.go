package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AppConfig holds runtime configuration. Everything comes from the
// environment (optionally seeded by a .env file) with sensible defaults;
// credentials live in the separate secrets file.
type AppConfig struct {
	// DataDir is where the dataset, CSV export and cached tokens live.
	DataDir string

	// DatasetFile and CSVFile are base names inside DataDir. They double as
	// object keys in the remote bucket.
	DatasetFile string
	CSVFile     string

	// HTTPTimeout applies to all outbound connector calls.
	HTTPTimeout time.Duration

	// Port for the dashboard API in serve mode.
	Port string

	// SyncInterval and SyncPastDays control the scheduled sync in serve mode.
	SyncInterval time.Duration
	SyncPastDays int

	// S3Endpoint addresses the remote bucket host.
	S3Endpoint string
	S3UseSSL   bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.DataDir = getenvDefault("HEALTHDASH_DATA_DIR", "data")
	cfg.DatasetFile = getenvDefault("HEALTHDASH_DATASET_FILE", "daily_data.json")
	cfg.CSVFile = getenvDefault("HEALTHDASH_CSV_FILE", "daily_data.csv")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.S3Endpoint = getenvDefault("HEALTHDASH_S3_ENDPOINT", "s3.amazonaws.com")
	cfg.S3UseSSL = getenvBool("HEALTHDASH_S3_USE_SSL", true)
	cfg.SyncPastDays = getenvInt("HEALTHDASH_SYNC_PAST_DAYS", 7)

	timeoutStr := getenvDefault("HEALTHDASH_HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTHDASH_HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Scheduled sync: default every 6 hours.
	intervalStr := getenvDefault("HEALTHDASH_SYNC_INTERVAL", "6h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTHDASH_SYNC_INTERVAL: %w", err)
	}
	cfg.SyncInterval = interval

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
