package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"BOXOFFICE_SOURCE_DIR", "PARSE_WORKERS", "BOXOFFICE_LENIENT", "LOG_LEVEL", "FETCH_RATE_PER_SECOND"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "raw", cfg.Batch.SourceDir)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.False(t, cfg.Batch.Lenient)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "a[href^=viewfile]", cfg.Fetch.LinkSelector)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOXOFFICE_SOURCE_DIR", "/srv/bulletins")
	t.Setenv("BOXOFFICE_LENIENT", "true")
	t.Setenv("PARSE_WORKERS", "8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_DB", "bo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/bulletins", cfg.Batch.SourceDir)
	assert.True(t, cfg.Batch.Lenient)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Contains(t, cfg.Database.DSN(), "port=6543")
	assert.Contains(t, cfg.Database.DSN(), "dbname=bo")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PARSE_WORKERS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PARSE_WORKERS", "2")
	t.Setenv("LOG_LEVEL", "loud")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel, "unknown levels fall back to info")
}
