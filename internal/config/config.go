// Package config loads monitor configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level monitor configuration.
type Config struct {
	Feed    FeedConfig    `yaml:"feed"`
	Storage StorageConfig `yaml:"storage"`
	Seeds   SeedsConfig   `yaml:"seeds"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// FeedConfig configures the upstream WebSocket feed.
type FeedConfig struct {
	URL                string        `yaml:"url"`
	ReconnectDelay     time.Duration `yaml:"reconnect_delay"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	SubscribeChunkSize int           `yaml:"subscribe_chunk_size"`
}

// StorageConfig selects and configures the trade ledger backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// SeedsConfig configures watchlist bootstrap sources.
type SeedsConfig struct {
	File string `yaml:"file"`
}

// MetricsConfig configures the metrics HTTP endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Ledger backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Feed: FeedConfig{
			URL:                "wss://pumpportal.fun/api/data",
			ReconnectDelay:     10 * time.Second,
			HandshakeTimeout:   10 * time.Second,
			ReadTimeout:        60 * time.Second,
			WriteTimeout:       10 * time.Second,
			PingInterval:       20 * time.Second,
			SubscribeChunkSize: 50,
		},
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: "trades.db",
		},
		Seeds: SeedsConfig{
			File: "initial_tokens.txt",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.ReconnectDelay <= 0 {
		return fmt.Errorf("feed.reconnect_delay must be positive")
	}
	if c.Feed.SubscribeChunkSize <= 0 {
		return fmt.Errorf("feed.subscribe_chunk_size must be positive")
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	return nil
}
