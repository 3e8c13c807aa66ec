package observability

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/knapsack-search/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knapsack.log")
	logger, closer := NewLogger(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1})

	logger.Debug("solve finished", "strategy", "greedy")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"solve finished"`)
	assert.Contains(t, string(data), `"strategy":"greedy"`)
}

func TestNewLogger_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knapsack.log")
	logger, closer := NewLogger(config.LogConfig{Level: "warn", File: path})

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewLogger_Stderr(t *testing.T) {
	logger, closer := NewLogger(config.LogConfig{Level: "info"})
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}

func TestNewWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	newWriterLogger(&buf, true, nil).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	newWriterLogger(&buf, false, nil).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
