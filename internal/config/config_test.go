package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("DEVSERVER_ADDR", "")
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_PATH", "/tmp/sekata.db")
	t.Setenv("APP_ENV", "")
	t.Setenv("DEVSERVER_HAND_SIZE", "")
	t.Setenv("DEVSERVER_MIN_PLAYERS", "zero")
	t.Setenv("DEVSERVER_HELPER_CARDS", "")
	t.Setenv("WS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, DefaultHandSize, cfg.HandSize)
	assert.Equal(t, DefaultMinPlayers, cfg.MinPlayers)
	assert.Equal(t, DefaultHelperCards, cfg.HelperCards)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.WSAllowedOrigins)
}

func TestLoadFromEnvMissing(t *testing.T) {
	t.Setenv("DEVSERVER_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_PATH", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_PATH")
	assert.Contains(t, err.Error(), "DEVSERVER_ADDR (or PORT)")
}

func TestLoadClientFromEnv(t *testing.T) {
	t.Setenv("SEKATA_SERVER_URL", "http://localhost:8081/")
	t.Setenv("SEKATA_PLAYER_ID", " alice ")
	t.Setenv("SEKATA_POLL_INTERVAL_MS", "500")
	t.Setenv("SEKATA_HTTP_TIMEOUT_MS", "-3")
	t.Setenv("SEKATA_WATCH", "true")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadClientFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081", cfg.ServerURL)
	assert.Equal(t, "alice", cfg.PlayerID)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "production", cfg.AppEnv)
}

func TestLoadClientFromEnvRejectsRelativeURL(t *testing.T) {
	t.Setenv("SEKATA_SERVER_URL", "localhost")
	_, err := LoadClientFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEKATA_SERVER_URL")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SEKATA_DOTENV_PROBE=from-file\n"), 0o600))
	t.Setenv("SEKATA_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("SEKATA_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("SEKATA_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
