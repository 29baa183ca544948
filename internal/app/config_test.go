package app

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://u:p@db:5432/ledger")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, int32(10), cfg.PGMaxConns)
	require.Equal(t, 5*time.Minute, cfg.InvoiceCacheTTL)
	require.Equal(t, 720*time.Hour, cfg.IdempotencyRetention)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("RATE_LIMIT", "30")
	t.Setenv("INVOICE_CACHE_TTL", "30s")
	t.Setenv("REDIS_DB", "2")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, 30, cfg.RateLimit)
	require.Equal(t, 30*time.Second, cfg.InvoiceCacheTTL)
	require.Equal(t, 2, cfg.RedisDB)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string][2]string{
		"zero rate limit":   {"RATE_LIMIT", "0"},
		"short retention":   {"IDEMPOTENCY_RETENTION", "10m"},
		"bad duration":      {"INVOICE_CACHE_TTL", "soon"},
		"zero batch":        {"RECONCILE_BATCH", "0"},
		"non numeric conns": {"PG_MAX_CONNS", "many"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)

	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
