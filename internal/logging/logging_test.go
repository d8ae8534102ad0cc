package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	log, err := New("production", path)
	require.NoError(t, err)
	log.Info("poll stopped", zap.String("game_id", "G1"))
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"game_id":"G1"`)
	assert.Contains(t, string(b), "poll stopped")
}

func TestNewDevelopmentEnablesDebug(t *testing.T) {
	log, err := New("development")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}
