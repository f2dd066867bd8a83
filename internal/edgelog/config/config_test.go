package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv makes sure no EDGE_LOG_* variable leaks into a test from the
// environment running it.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"PATH", "GZIP", "MODE", "MAX_EDGES", "DEBUG", "CONFIG"} {
		key := EnvPrefix + "_" + name
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.HasPath())
	assert.Equal(t, ModeCompact, cfg.Mode)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDGE_LOG_PATH", "/tmp/trace.log")
	t.Setenv("EDGE_LOG_GZIP", "1")
	t.Setenv("EDGE_LOG_MODE", "Enriched")
	t.Setenv("EDGE_LOG_MAX_EDGES", "1000")
	t.Setenv("EDGE_LOG_DEBUG", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		Path:     "/tmp/trace.log",
		Gzip:     true,
		Mode:     ModeEnriched,
		MaxEdges: 1000,
		Debug:    true,
	}, cfg)
}

func TestGzipPresence(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"anything", true},
		{"0", false},
		{"false", false},
		{"OFF", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("EDGE_LOG_GZIP", tt.value)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Gzip)
		})
	}
}

func TestInvalidValuesDegrade(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDGE_LOG_PATH", "out.log")
	t.Setenv("EDGE_LOG_MODE", "verbose")
	t.Setenv("EDGE_LOG_MAX_EDGES", "lots")

	cfg, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, "out.log", cfg.Path)
	assert.Equal(t, ModeCompact, cfg.Mode)
	assert.Zero(t, cfg.MaxEdges)
}

func TestConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "edgelog.conf")
	require.NoError(t, os.WriteFile(file, []byte("path /var/tmp/edges\nmode enriched\n"), 0o600))

	t.Setenv("EDGE_LOG_CONFIG", file)
	t.Setenv("EDGE_LOG_MODE", "compact")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/edges", cfg.Path)
	// The environment wins over the file.
	assert.Equal(t, ModeCompact, cfg.Mode)
}

func TestStreamPath(t *testing.T) {
	cfg := Config{Path: StreamPath}
	assert.True(t, cfg.HasPath())
	assert.True(t, cfg.IsStream())
	assert.False(t, Config{Path: "x"}.IsStream())
}
