package kademlia

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultBitNodeIDLen, cfg.BitNodeIDLen)
	assert.Equal(t, DefaultK, cfg.K)
	assert.Equal(t, DefaultCacheK, cfg.CacheK)
	assert.Equal(t, DefaultAlpha, cfg.Alpha)
	assert.Equal(t, DefaultRefreshTimeout, cfg.RefreshTimeout)
	assert.Equal(t, 40, cfg.HexNodeIDLen())
}

func TestConfigOrDefaultFillsNil(t *testing.T) {
	got := configOrDefault(nil)
	assert.Equal(t, DefaultConfig(), got)

	custom := &Config{BitNodeIDLen: 8, K: 2, CacheK: 2, Alpha: 1, RefreshTimeout: time.Minute}
	assert.Same(t, custom, configOrDefault(custom))
}

func TestLoadConfigFillsOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: 4\ncache_k: 8\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.K)
	assert.Equal(t, 8, cfg.CacheK)
	assert.Equal(t, DefaultBitNodeIDLen, cfg.BitNodeIDLen)
	assert.Equal(t, DefaultRefreshTimeout, cfg.RefreshTimeout)
}

func TestLoadConfigRejectsInvalidBitLen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bit_node_id_len: 3\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: 0\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
