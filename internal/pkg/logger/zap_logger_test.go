package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	log := NewIsolatedLogger(path)

	log.Debug("SYNC", "below file level", nil)
	log.Info("SYNC", "Sync completed", map[string]interface{}{"synced": 12})
	log.Error("SYNC", "Embedding failed", map[string]interface{}{"error": "timeout"})
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "SYNC", entry["module"])
	assert.Equal(t, "Sync completed", entry["message"])
	assert.Equal(t, 12.0, entry["details"].(map[string]interface{})["synced"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "timeout", entry["error_ref"])
}

func TestNopLogger(t *testing.T) {
	var log ILogger = NewNopLogger()
	log.Warn("TEST", "dropped", nil)
	assert.NoError(t, log.Sync())
}
