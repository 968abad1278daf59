// Package config loads decades settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/decades/internal/core/presenter"
	"github.com/ewilliams-labs/decades/internal/core/rank"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "decades.yaml"

// Config holds all decades configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Server    ServerConfig    `yaml:"server"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Theme     ThemeConfig     `yaml:"theme"`
	Logging   LoggingConfig   `yaml:"logging"`
	Render    RenderConfig    `yaml:"render"`
	Remote    RemoteConfig    `yaml:"remote"`
	Narrative NarrativeConfig `yaml:"narrative"`
}

// DataConfig locates the master table and the shard store.
type DataConfig struct {
	Master     string `yaml:"master"`
	Driver     string `yaml:"driver"` // csv, sqlite
	ShardDir   string `yaml:"shard_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	// Codec compresses csv shards: none, gzip, zstd, lz4, s2.
	Codec       string `yaml:"codec"`
	Parallelism int    `yaml:"parallelism"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
}

// RankingConfig sets the top-artists thresholds.
type RankingConfig struct {
	MinTracks int `yaml:"min_tracks"`
	TopN      int `yaml:"top_n"`
}

// ThemeConfig picks a built-in theme and adjusts it.
type ThemeConfig struct {
	Name          string `yaml:"name"` // dark, light
	Precision     int    `yaml:"precision"`
	HistogramBins int    `yaml:"histogram_bins"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`  // debug, info, warn, error
	Format      string `yaml:"format"` // console, json
	Development bool   `yaml:"development"`
}

// RenderConfig configures PNG output.
type RenderConfig struct {
	Dir     string  `yaml:"dir"`
	Width   float64 `yaml:"width_in"`
	Height  float64 `yaml:"height_in"`
	Workers int     `yaml:"workers"`
}

// RemoteConfig locates the downloadable master table.
type RemoteConfig struct {
	URL          string   `yaml:"url"`
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
	MaxRetries   int      `yaml:"max_retries"`
	Backoff      string   `yaml:"backoff"`
	Timeout      string   `yaml:"timeout"`
}

// NarrativeConfig overrides the embedded page text.
type NarrativeConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Master:      "clean_data.csv",
			Driver:      "csv",
			ShardDir:    "data",
			SQLitePath:  "decades.db",
			Codec:       "none",
			Parallelism: 4,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: "15s",
			ShutdownTimeout:   "10s",
		},
		Ranking: RankingConfig{
			MinTracks: rank.DefaultMinTracks,
			TopN:      rank.DefaultTopN,
		},
		Theme: ThemeConfig{
			Name:          "dark",
			Precision:     2,
			HistogramBins: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Render: RenderConfig{
			Dir:     "charts",
			Width:   8,
			Height:  5,
			Workers: 4,
		},
		Remote: RemoteConfig{
			MaxRetries: 3,
			Backoff:    "500ms",
			Timeout:    "60s",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write: %w", err)
	}
	return nil
}

// applyEnvOverrides applies DECADES_* environment variables.
func (c *Config) applyEnvOverrides() {
	set := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set("DECADES_MASTER", &c.Data.Master)
	set("DECADES_DRIVER", &c.Data.Driver)
	set("DECADES_SHARD_DIR", &c.Data.ShardDir)
	set("DECADES_SQLITE_PATH", &c.Data.SQLitePath)
	set("DECADES_CODEC", &c.Data.Codec)
	set("DECADES_ADDR", &c.Server.Addr)
	set("DECADES_THEME", &c.Theme.Name)
	set("DECADES_LOG_LEVEL", &c.Logging.Level)
	set("DECADES_LOG_FORMAT", &c.Logging.Format)
	set("DECADES_NARRATIVE", &c.Narrative.Path)
	set("DECADES_REMOTE_URL", &c.Remote.URL)
	set("DECADES_TOKEN_URL", &c.Remote.TokenURL)
	set("DECADES_CLIENT_ID", &c.Remote.ClientID)
	set("DECADES_CLIENT_SECRET", &c.Remote.ClientSecret)
}

var (
	// ValidDrivers lists the shard store backends.
	ValidDrivers = []string{"csv", "sqlite"}
	// ValidCodecs lists the csv shard compressions.
	ValidCodecs = []string{"none", "gzip", "zstd", "lz4", "s2"}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.Master == "" {
		return fmt.Errorf("config: data.master is required")
	}
	if !oneOf(c.Data.Driver, ValidDrivers) {
		return fmt.Errorf("config: invalid data.driver %q (valid: %v)", c.Data.Driver, ValidDrivers)
	}
	if c.Data.Driver == "csv" && c.Data.ShardDir == "" {
		return fmt.Errorf("config: data.shard_dir is required for the csv driver")
	}
	if c.Data.Driver == "sqlite" && c.Data.SQLitePath == "" {
		return fmt.Errorf("config: data.sqlite_path is required for the sqlite driver")
	}
	if c.Data.Codec != "" && !oneOf(c.Data.Codec, ValidCodecs) {
		return fmt.Errorf("config: invalid data.codec %q (valid: %v)", c.Data.Codec, ValidCodecs)
	}
	if c.Ranking.MinTracks < 0 || c.Ranking.TopN < 0 {
		return fmt.Errorf("config: ranking thresholds must not be negative")
	}
	if _, ok := presenter.ThemeByName(c.Theme.Name); !ok {
		return fmt.Errorf("config: unknown theme %q", c.Theme.Name)
	}
	if c.Theme.Precision < 0 || c.Theme.Precision > 6 {
		return fmt.Errorf("config: theme.precision must be between 0 and 6")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level: %w", err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("config: logging.format must be console or json")
	}
	for name, d := range map[string]string{
		"server.read_header_timeout": c.Server.ReadHeaderTimeout,
		"server.shutdown_timeout":    c.Server.ShutdownTimeout,
		"remote.backoff":             c.Remote.Backoff,
		"remote.timeout":             c.Remote.Timeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// Rank returns the ranking options.
func (c *Config) Rank() rank.Options {
	return rank.Options{MinTracks: c.Ranking.MinTracks, TopN: c.Ranking.TopN}
}

// PresenterTheme resolves the configured theme. An unknown name falls back
// to the dark theme.
func (c *Config) PresenterTheme() presenter.Theme {
	th, ok := presenter.ThemeByName(c.Theme.Name)
	if !ok {
		th = presenter.DefaultTheme()
	}
	th.Precision = c.Theme.Precision
	if c.Theme.HistogramBins > 0 {
		th.HistogramBins = c.Theme.HistogramBins
	}
	return th
}

// GetReadHeaderTimeout returns the server read-header timeout as a duration.
func (c *Config) GetReadHeaderTimeout() time.Duration {
	return parseDuration(c.Server.ReadHeaderTimeout, 15*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown budget as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetRemoteBackoff returns the base retry backoff as a duration.
func (c *Config) GetRemoteBackoff() time.Duration {
	return parseDuration(c.Remote.Backoff, 500*time.Millisecond)
}

// GetRemoteTimeout returns the download timeout as a duration.
func (c *Config) GetRemoteTimeout() time.Duration {
	return parseDuration(c.Remote.Timeout, 60*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func oneOf(v string, list []string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
