package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "polisearch.log")

	logger, cleanup, err := Setup(Config{
		Level:    "debug",
		Format:   "json",
		FilePath: logPath,
		Quiet:    true,
	})
	require.NoError(t, err)

	logger.Info("document processed", slog.String("document", "policy.txt"), slog.Int("clauses", 12))
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"document processed"`)
	assert.Contains(t, string(data), `"document":"policy.txt"`)
	assert.Contains(t, string(data), `"clauses":12`)
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "polisearch.log")

	logger, cleanup, err := Setup(Config{
		Level:    "warn",
		Format:   "json",
		FilePath: logPath,
		Quiet:    true,
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Warn("visible")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestSetup_NoFileStillReturnsLogger(t *testing.T) {
	logger, cleanup, err := Setup(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)
	cleanup()
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "polisearch.log")

	// 1 MB limit; two ~0.6 MB writes force one rotation.
	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)

	chunk := strings.Repeat("x", 600*1024)
	_, err = w.Write([]byte(chunk))
	require.NoError(t, err)
	_, err = w.Write([]byte(chunk))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(logPath)
	assert.NoError(t, err)
	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err, "rotated file should exist")
}

func TestRotatingWriter_DropsFilesBeyondLimit(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "polisearch.log")

	w, err := NewRotatingWriter(logPath, 1, 2)
	require.NoError(t, err)

	chunk := strings.Repeat("y", 600*1024)
	for i := 0; i < 6; i++ {
		_, err = w.Write([]byte(chunk))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	matches, err := filepath.Glob(logPath + ".*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)
}
