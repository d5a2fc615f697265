package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Rules.StrictCastling)
	assert.Equal(t, time.Second, cfg.Matchmaking.Interval)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":8080"
redis_url: "redis://localhost:6379/0"
rules:
  strict_castling: false
matchmaking:
  interval: 250ms
log:
  level: debug
  format: json
`)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.False(t, cfg.Rules.StrictCastling)
	assert.Equal(t, 250*time.Millisecond, cfg.Matchmaking.Interval)
	assert.Equal(t, "chess:matchmaking", cfg.Matchmaking.QueueKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadStrictCastlingEnv(t *testing.T) {
	t.Setenv("STRICT_CASTLING", "false")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Rules.StrictCastling)

	t.Setenv("STRICT_CASTLING", "maybe")
	_, err = Load("")
	assert.ErrorContains(t, err, "STRICT_CASTLING")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "listen_addr: [oops"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "matchmaking:\n  interval: 0s\n"))
	assert.ErrorContains(t, err, "interval")

	t.Setenv("MATCHMAKING_INTERVAL", "soon")
	_, err = Load("")
	assert.Error(t, err)
}
