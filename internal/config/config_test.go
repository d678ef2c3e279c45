package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Interval)
	assert.True(t, cfg.Storage.Enabled)
	assert.NotEmpty(t, cfg.Server.BaseURL)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ws := t.TempDir()

	cfg := DefaultConfig()
	cfg.Campaign.CampaignID = "camp-1"
	cfg.Campaign.SessionID = "sess-1"
	cfg.Server.BaseURL = "https://example.test"
	cfg.Reconcile.Interval = 10 * time.Second
	require.NoError(t, cfg.Save(ws))

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "camp-1", loaded.Campaign.CampaignID)
	assert.Equal(t, "sess-1", loaded.Campaign.SessionID)
	assert.Equal(t, "https://example.test", loaded.Server.BaseURL)
	assert.Equal(t, 10*time.Second, loaded.Reconcile.Interval)
}

func TestLoadMalformedFile(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".loom"), 0o755))
	require.NoError(t, os.WriteFile(Path(ws), []byte("{not yaml"), 0o644))

	_, err := Load(ws)
	assert.Error(t, err)
}

func TestEnvOverridesToken(t *testing.T) {
	t.Setenv("LOOM_TOKEN", "env-secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Server.Token)
}

func TestZeroIntervalsFallBack(t *testing.T) {
	ws := t.TempDir()
	cfg := DefaultConfig()
	cfg.Server.Timeout = 0
	cfg.Reconcile.Interval = 0
	require.NoError(t, cfg.Save(ws))

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, loaded.Server.Timeout)
	assert.Equal(t, 30*time.Second, loaded.Reconcile.Interval)
}
