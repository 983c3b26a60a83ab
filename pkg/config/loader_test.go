package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mnemo.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.json"))
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"window": {"max_tokens": 8000, "strategy": "truncate"},
		"vector": {"dimensions": 384},
		"shared": {
			"cleanup_interval": 30,
			"namespaces": [
				{"name": "plans", "default_permission": "write", "conflict_strategy": "merge"}
			]
		}
	}`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Window.MaxTokens)
	assert.Equal(t, "truncate", cfg.Window.Strategy)
	// Untouched fields keep their defaults.
	assert.Equal(t, "high", cfg.Window.MinImportance)
	assert.Equal(t, 384, cfg.Vector.Dimensions)
	assert.Equal(t, "cosine", cfg.Vector.Metric)
	assert.Equal(t, 30, cfg.Shared.CleanupInterval)
	require.Len(t, cfg.Shared.Namespaces, 1)
	assert.Equal(t, "plans", cfg.Shared.Namespaces[0].Name)
	assert.Equal(t, "write", cfg.Shared.Namespaces[0].DefaultPermission)
	assert.Equal(t, "merge", cfg.Shared.Namespaces[0].ConflictStrategy)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfigFile(t, `{not json`)
	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestLoadDefaultsFilePathsNextToConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"audit": {"enabled": true},
		"vector": {"dimensions": 8, "backend": "file"}
	}`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "access-audit.jsonl"), cfg.Audit.File)
	assert.Equal(t, filepath.Join(dir, "vectors.json"), cfg.Vector.Path)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mnemo.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Window.MaxTokens = 2048
	cfg.Shared.AccessLogSize = 50
	require.NoError(t, loader.Save(cfg))

	// The file is valid JSON on disk.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 2048, loaded.Window.MaxTokens)
	assert.Equal(t, 50, loaded.Shared.AccessLogSize)
}
