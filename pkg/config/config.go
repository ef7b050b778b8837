package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Batch    BatchConfig
	Fetch    FetchConfig
	Database DatabaseConfig
	Catalog  CatalogConfig
	Metrics  MetricsConfig
	Watch    WatchConfig
	LogLevel slog.Level
}

// BatchConfig locates the inputs and outputs of a run.
type BatchConfig struct {
	SourceDir   string
	OutputDir   string
	PatchAppend string
	PatchDrop   string
	Periods     string
	Lenient     bool
	Workers     int
}

type FetchConfig struct {
	ListingURL    string
	LinkSelector  string
	RatePerSecond int
	UserAgent     string
	// Limit caps the listing links followed per crawl; 0 follows all.
	Limit int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type CatalogConfig struct {
	// Path of the on-disk index; empty keeps the index in memory.
	Path string
}

type MetricsConfig struct {
	Textfile string
}

type WatchConfig struct {
	Schedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Batch: BatchConfig{
			SourceDir:   getEnv("BOXOFFICE_SOURCE_DIR", "raw"),
			OutputDir:   getEnv("BOXOFFICE_OUTPUT_DIR", "out"),
			PatchAppend: getEnv("BOXOFFICE_PATCH_APPEND", ""),
			PatchDrop:   getEnv("BOXOFFICE_PATCH_DROP", ""),
			Periods:     getEnv("BOXOFFICE_PERIODS", ""),
			Lenient:     getEnvAsBool("BOXOFFICE_LENIENT", false),
			Workers:     getEnvAsInt("PARSE_WORKERS", 4),
		},
		Fetch: FetchConfig{
			ListingURL:    getEnv("LISTING_URL", "http://www.tfi.org.tw/about-publicinfo04.asp"),
			LinkSelector:  getEnv("LISTING_SELECTOR", "a[href^=viewfile]"),
			RatePerSecond: getEnvAsInt("FETCH_RATE_PER_SECOND", 1),
			UserAgent:     getEnv("FETCH_USER_AGENT", "box-office-tracker/1.0"),
			Limit:         getEnvAsInt("FETCH_LIMIT", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "boxoffice"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		Metrics: MetricsConfig{
			Textfile: getEnv("METRICS_TEXTFILE", ""),
		},
		Watch: WatchConfig{
			Schedule: getEnv("WATCH_SCHEDULE", "0 9 * * 2"),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.Batch.SourceDir == "" {
		return nil, errors.New("BOXOFFICE_SOURCE_DIR is required")
	}

	if cfg.Batch.Workers < 1 {
		return nil, errors.New("PARSE_WORKERS must be at least 1")
	}

	if cfg.Fetch.RatePerSecond < 1 {
		return nil, errors.New("FETCH_RATE_PER_SECOND must be at least 1")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(valueStr)); err != nil {
		return defaultValue
	}
	return level
}
