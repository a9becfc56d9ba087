package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreMySQL, cfg.StoreBackend)
	assert.Equal(t, 3306, cfg.DB.Port)
	assert.Equal(t, 5, cfg.Tx.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Tx.InitialBackoff)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL())
	assert.Equal(t, "conference_tasks", cfg.Queue.Name)
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
}

func TestParseRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "bigtable")
	_, err := Parse()
	assert.Error(t, err)
}

func TestRateLimitOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.Equal(t, 1, cfg.RateLimit.RefillTokens)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 50*time.Second, cfg.RateLimit.TTL)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "loud"}.SlogLevel())
}
