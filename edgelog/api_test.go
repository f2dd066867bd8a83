package edgelog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/edgelog/edgelog"
	"github.com/kolkov/edgelog/internal/edgelog/api"
	"github.com/kolkov/edgelog/internal/edgelog/writer"
)

// TestCallSite verifies that the facade records the caller's location, not
// its own.
func TestCallSite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	t.Setenv("EDGE_LOG_PATH", path)
	t.Setenv("EDGE_LOG_MODE", "enriched")
	api.Reset()
	t.Cleanup(api.Reset)

	edgelog.Log()
	edgelog.LogEdge("x.go", "f", 3, edgelog.Switch)
	edgelog.Fini()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, _, err := writer.ReadRecords(f)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, strings.HasSuffix(records[0].File, "api_test.go"), records[0].File)
	assert.Contains(t, records[0].Function, "TestCallSite")
	assert.Equal(t, edgelog.Unknown, records[0].Kind)
	assert.Equal(t, edgelog.Switch, records[1].Kind)
	assert.NotEqual(t, records[0].PC, records[1].PC)
	assert.Equal(t, edgelog.StateReleased, edgelog.GetStats().State)
}

func TestGetInfo(t *testing.T) {
	t.Setenv("EDGE_LOG_MODE", "compact")
	api.Reset()
	t.Cleanup(api.Reset)
	edgelog.Init()

	info := edgelog.GetInfo()
	assert.Equal(t, edgelog.Version, info.Version)
	assert.Equal(t, edgelog.ModeCompact, info.Mode)
	assert.True(t, info.Enabled)
}
