package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.DefaultChunkSizeBytes = 1 << 20
	cfg.LastSourcePath = "/mnt/a"
	cfg.LastDestPath = "/mnt/b"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMergeOnlyAppliesNonZeroFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.LastSourcePath = "/mnt/original"

	cfg.Merge(&Config{DefaultWorkerCount: 4})

	assert.Equal(t, 4, cfg.DefaultWorkerCount)
	assert.Equal(t, DefaultChunkSizeBytes, cfg.DefaultChunkSizeBytes)
	assert.Equal(t, "/mnt/original", cfg.LastSourcePath)
}
