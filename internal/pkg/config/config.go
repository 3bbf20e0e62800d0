// Package config loads ratewatch configuration from TOML files with defaults.
package config

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for ratewatch.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Feed    FeedConfig    `toml:"feed"`
	Series  SeriesConfig  `toml:"series"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StoreConfig selects the observation store backend.
// DSN "memory" runs the in-process store; anything else is a Postgres DSN.
type StoreConfig struct {
	DSN string `toml:"dsn"`
}

// FeedConfig configures the ingest feeds.
type FeedConfig struct {
	SheetURL     string   `toml:"sheet_url"`     // published CSV feed, empty disables
	ScrapeURL    string   `toml:"scrape_url"`    // bank rate page, empty disables
	ScrapeEntity string   `toml:"scrape_entity"` // entity label for scraped rows
	Entities     []string `toml:"entities"`      // entity set for the seed feed
	SeedDays     int      `toml:"seed_days"`     // days of synthetic history, 0 disables
}

// SeriesConfig configures resampling and the personal-rate derivation.
type SeriesConfig struct {
	Reducer      string `toml:"reducer"`       // "last" or "mean"
	CacheTTL     string `toml:"cache_ttl"`     // loader cache freshness window
	DerivedLabel string `toml:"derived_label"` // entity label for the personal rate
	MaxDiscount  string `toml:"max_discount"`  // upper bound for user discounts
}

// GetCacheTTL parses the cache TTL, defaulting to 600s.
func (c *SeriesConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 600 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults. The default
// entity set matches the published sheet's columns.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			DSN: "memory",
		},
		Feed: FeedConfig{
			Entities: []string{"MUFG", "Yokohama", "Johoku", "BOJ"},
			SeedDays: 90,
		},
		Series: SeriesConfig{
			Reducer:      "last",
			CacheTTL:     "600s",
			DerivedLabel: "My Rate",
			MaxDiscount:  "3.00",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration files in order, later files overriding earlier
// ones. Missing files are skipped.
func Load(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}
