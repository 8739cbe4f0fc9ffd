package ui

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSinkRoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	console := &ConsoleSink{Out: &out, Err: &errOut, NoColor: true}
	logger := NewLogger(false, console)

	logger.Info("Info.")
	logger.Success("Done.")
	logger.Warning("Warning.")
	logger.Error("Error.")
	logger.Debug("hidden")

	assert.Equal(t, "[INFO] Info.\n[SUCCESS] Done.\n", out.String())
	assert.Equal(t, "[WARNING] Warning.\n[ERROR] Error.\n", errOut.String())
}

func TestConsoleSinkColorAndQuiet(t *testing.T) {
	var out, errOut bytes.Buffer
	console := &ConsoleSink{Out: &out, Err: &errOut, Quiet: true}
	logger := NewLogger(true, console)

	logger.Info("Info.")
	logger.Debug("Debug.")
	logger.Error("Error.")

	assert.Empty(t, out.String())
	assert.Equal(t, "\x1b[31m[ERROR] Error.\x1b[0m\n", errOut.String())
}

func TestFileSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "udevbackup.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{\"message\":\"previous\"}\n"), 0644))

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	logger := NewLogger(false, sink).With("run", "42")
	logger.Info("Info.")
	logger.Warning("Warning.")
	logger.Success("Successful.")
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "previous")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &record))
	assert.Equal(t, "warn", record["level"])
	assert.Equal(t, "Warning.", record["message"])
	assert.Equal(t, "42", record["run"])

	require.NoError(t, json.Unmarshal([]byte(lines[3]), &record))
	assert.Equal(t, true, record["success"])
}

func TestMemorySinkTranscript(t *testing.T) {
	mem := NewMemorySink()
	logger := NewLogger(false, mem)
	logger.Info("Info.")
	logger.Warning("Warning.")
	logger.Error("Error.")

	assert.Equal(t, "Info.\nWarning.\nError.\n", mem.String())
	assert.True(t, mem.Contains(LevelWarning, "Warning."))
	assert.False(t, mem.Contains(LevelError, "Warning."))
}

func TestWithKeepsParentUntouched(t *testing.T) {
	mem := NewMemorySink()
	parent := NewLogger(false, mem)
	child := parent.With("rule", "primary")

	parent.Info("a")
	child.Info("b")

	entries := mem.Entries()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Fields)
	assert.Equal(t, []Field{{Key: "rule", Value: "primary"}}, entries[1].Fields)
}
