package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfigFile(DefaultConfig(), filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile_MergesStoredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"itemId":"abc","theme":"LIGHT","maxDepth":0,"concurrency":8,"timeout":"5s","cacheTtl":"bogus"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfigFile(DefaultConfig(), path)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.ItemID)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, 4, cfg.MaxDepth, "non-positive depth falls back")
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL, "unparseable duration falls back")
	assert.Equal(t, DefaultPortalURL, cfg.PortalURL)
}

func TestLoadConfigFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := LoadConfigFile(DefaultConfig(), path)
	assert.Error(t, err)
}

func TestSaveConfigFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.URL = "https://example.com/doc.kml"
	cfg.Theme = "light"
	cfg.MinRefresh = 30 * time.Second
	require.NoError(t, SaveConfigFile(cfg, path))

	loaded, err := LoadConfigFile(DefaultConfig(), path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("KMLLINKS_ITEM_ID", "from-env")
	t.Setenv("KMLLINKS_MAX_DEPTH", "2")
	t.Setenv("KMLLINKS_CONCURRENCY", "-1")
	t.Setenv("KMLLINKS_AUTO_REFRESH", "false")
	t.Setenv("KMLLINKS_CACHE_TTL", "90s")
	t.Setenv("KMLLINKS_MIN_REFRESH", "2s")

	cfg := ApplyEnv(DefaultConfig())
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.MinRefresh)
	assert.Equal(t, "from-env", cfg.ItemID)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.False(t, cfg.AutoRefresh)
}

func TestBindFlags(t *testing.T) {
	cfg := DefaultConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags, &cfg)
	require.NoError(t, flags.Parse([]string{"--url", "doc.kml", "--max-depth", "7", "--demo",
		"--cache-ttl", "1m", "--min-refresh", "10s"}))
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.MinRefresh)
	assert.Equal(t, "doc.kml", cfg.URL)
	assert.Equal(t, 7, cfg.MaxDepth)
	assert.True(t, cfg.Demo)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.URL = "./local/doc.kml"
	assert.NoError(t, cfg.Validate())

	cfg.URL = "https://bad host/doc.kml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ItemID = " "
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.PortalURL = "not a url"
	cfg.Demo = true
	assert.NoError(t, cfg.Validate())
}
