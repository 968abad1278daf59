package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/decades/internal/core/rank"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decades.yaml")
	body := `
data:
  driver: sqlite
  sqlite_path: /tmp/d.db
ranking:
  min_tracks: 10
theme:
  name: light
  precision: 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Data.Driver)
	assert.Equal(t, "/tmp/d.db", cfg.Data.SQLitePath)
	// Untouched keys keep their defaults.
	assert.Equal(t, "clean_data.csv", cfg.Data.Master)
	assert.Equal(t, rank.Options{MinTracks: 10, TopN: rank.DefaultTopN}, cfg.Rank())

	th := cfg.PresenterTheme()
	assert.False(t, th.Dark)
	assert.Equal(t, 3, th.Precision)
	assert.Equal(t, 50, th.HistogramBins)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decades.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DECADES_DRIVER", "sqlite")
	t.Setenv("DECADES_ADDR", ":9090")
	t.Setenv("DECADES_CLIENT_SECRET", "shh")
	t.Setenv("DECADES_THEME", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Data.Driver)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "shh", cfg.Remote.ClientSecret)
	assert.Equal(t, "dark", cfg.Theme.Name, "empty variables must not override")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no master", mutate: func(c *Config) { c.Data.Master = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Data.Driver = "postgres" }},
		{name: "csv without dir", mutate: func(c *Config) { c.Data.ShardDir = "" }},
		{name: "sqlite without path", mutate: func(c *Config) { c.Data.Driver = "sqlite"; c.Data.SQLitePath = "" }},
		{name: "unknown codec", mutate: func(c *Config) { c.Data.Codec = "brotli" }},
		{name: "negative ranking", mutate: func(c *Config) { c.Ranking.TopN = -1 }},
		{name: "unknown theme", mutate: func(c *Config) { c.Theme.Name = "neon" }},
		{name: "precision too high", mutate: func(c *Config) { c.Theme.Precision = 9 }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "bad duration", mutate: func(c *Config) { c.Server.ShutdownTimeout = "soon" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.GetReadHeaderTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.GetRemoteBackoff())

	cfg.Server.ShutdownTimeout = "garbage"
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "decades.yaml")
	cfg := DefaultConfig()
	cfg.Remote.Scopes = []string{"read"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
