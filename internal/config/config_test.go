package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 50, cfg.MaxFileSizeMB)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "", cfg.AdminPIN)
}

func TestLoadWithNoOverridesReturnsDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":8080\"\nconcurrency: 8\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "stego.db", cfg.DatabasePath, "unset fields keep defaults")
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":8080\"\n"), 0o644))

	t.Setenv("STEGO_LISTEN_ADDR", ":7070")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

func TestLoadErrorsOnMissingConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml", nil)
	assert.Error(t, err)
}
