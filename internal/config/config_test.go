package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Sync.StuckTimeout)
	assert.Equal(t, 2*time.Second, cfg.Sync.KickedDebounce)
	assert.Equal(t, "/uploads", cfg.Upload.BaseURL)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("SYNC_POLL_INTERVAL", "250ms")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.GetAddr())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.PollInterval)
}

func TestParseErrors(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SYNC_POLL_INTERVAL", "soon")
		_, err := Parse()
		assert.ErrorContains(t, err, "parse env:")
	})
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		_, err := Parse()
		assert.ErrorContains(t, err, "unknown store backend")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "roomCode", "ABC123")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"roomCode":"ABC123"`)
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("loud"))
}
