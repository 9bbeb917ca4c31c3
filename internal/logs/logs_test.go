package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesTerminalAndFile(t *testing.T) {
	var buf bytes.Buffer
	off := false
	file := filepath.Join(t.TempDir(), "architect.log")
	logger, closer, err := New(Options{Level: "debug", File: file, Writer: &buf, Journal: &off})
	require.NoError(t, err)

	logger.Debug("idea submitted", "idea_id", "i1")
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), "idea submitted")
	assert.Contains(t, buf.String(), "idea_id=i1")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "i1", rec["idea_id"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	off := false
	logger, _, err := New(Options{Level: "warn", Writer: &buf, Journal: &off})
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
	l, err = ParseLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, l)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestToJournalKey(t *testing.T) {
	assert.Equal(t, "IDEA_ID", toJournalKey("idea.id"))
	assert.Equal(t, "OP", toJournalKey("op"))
}
