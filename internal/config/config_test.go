package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
epsg: 3857
cpg: UTF-8
allow_list: [txt, csv]
cache_size: 5
timeout: 2m
minify: true
allow_local: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3857, cfg.EPSG)
	assert.Equal(t, "UTF-8", cfg.CPG)
	assert.Equal(t, []string{"txt", "csv"}, cfg.AllowList)
	assert.Equal(t, 5, cfg.CacheSize)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, int64(64<<20), cfg.MaxBody)
	assert.True(t, cfg.Minify)
	assert.True(t, cfg.AllowLocal)

	opts := cfg.Options()
	assert.Equal(t, 3857, opts.EPSG)
	assert.Equal(t, "UTF-8", opts.CPG)
	assert.Equal(t, []string{"txt", "csv"}, opts.AllowList)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cache_size: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "epsg: [1, 2"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "epsg: -1\n"))
	require.Error(t, err)
}
