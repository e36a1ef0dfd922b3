package config

import "time"

// Config holds runtime settings for the SpendSync CLI.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP API.
//   - DatabaseFile: path to the local SQLite database.
//   - SyncInterval: how often the background sync cycle runs.
//   - RequestTimeout: per-request timeout for API calls.
type Config struct {
	ServerURL      string
	DatabaseFile   string
	SyncInterval   time.Duration
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabaseFile = "spendsync.db"
	c.SyncInterval = 30 * time.Second
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
