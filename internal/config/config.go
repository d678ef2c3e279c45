// Package config holds all loreloom configuration, loaded from
// .loom/config.yaml under the workspace root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all loreloom configuration.
type Config struct {
	// Campaign and session binding
	Campaign CampaignConfig `yaml:"campaign"`

	// Backend endpoints
	Server ServerConfig `yaml:"server"`

	// Local turn cache
	Storage StorageConfig `yaml:"storage"`

	// Snapshot refetch cadence
	Reconcile ReconcileConfig `yaml:"reconcile"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CampaignConfig names the campaign and session this client follows.
type CampaignConfig struct {
	CampaignID string `yaml:"campaign_id"`
	SessionID  string `yaml:"session_id"`
}

// ServerConfig configures the backend endpoints.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"` // https://host for REST fetches
	WSURL   string `yaml:"ws_url"`   // wss://host/ws push channel
	// Token is the bearer token; the LOOM_TOKEN environment variable
	// overrides it so the secret can stay out of the file.
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig configures the local sqlite turn cache.
type StorageConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// ReconcileConfig controls periodic history refetch.
type ReconcileConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig mirrors the logging package's file-based settings.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8800",
			WSURL:   "ws://localhost:8800/ws",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Path:    filepath.Join(".loom", "turns.db"),
			Enabled: true,
		},
		Reconcile: ReconcileConfig{
			Interval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Path returns the config file location under a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".loom", "config.yaml")
}

// Load reads the config from the workspace, falling back to defaults
// when the file does not exist. Environment overrides are applied
// last.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 15 * time.Second
	}
	if cfg.Reconcile.Interval <= 0 {
		cfg.Reconcile.Interval = 30 * time.Second
	}
	return cfg, nil
}

// Save writes the config back to the workspace, creating .loom/ if
// needed.
func (c *Config) Save(workspace string) error {
	dir := filepath.Dir(Path(workspace))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(Path(workspace), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LOOM_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("LOOM_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("LOOM_WS_URL"); v != "" {
		c.Server.WSURL = v
	}
}
