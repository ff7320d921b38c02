package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardian.dev/guardian/internal/config"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		entries = append(entries, m)
	}
	return entries
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.log")
	logger, err := New(config.LogConfig{Level: "info", File: path}, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("request", zap.String("method", "initialize"))
	_ = logger.Sync()

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "request", entries[0]["msg"])
	assert.Equal(t, "initialize", entries[0]["method"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Contains(t, entries[0], "time")
}

func TestNewVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.log")
	logger, err := New(config.LogConfig{Level: "error", File: path}, true)
	require.NoError(t, err)

	logger.Debug("shown")
	_ = logger.Sync()

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["msg"])
}

func TestNewBadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"}, false)
	assert.ErrorContains(t, err, "failed to parse log level")
}
