// Package config loads the gridtimed daemon configuration from a YAML file
// and applies defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string `yaml:"listen"`

	// Store selects the document-store backend.
	Store StoreConfig `yaml:"store"`

	// CacheTTL bounds the age of cached per-document settings,
	// e.g. "5m". Zero selects the default.
	CacheTTL string `yaml:"cache_ttl"`

	// RateLimit bounds per-document request rates.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogJSON switches log output to one JSON object per line.
	LogJSON bool `yaml:"log_json"`
}

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	Type string `yaml:"type"` // "memory" or "remote"
	URL  string `yaml:"url"`
}

// RateLimitConfig bounds per-document request rates.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		Store:    StoreConfig{Type: "memory"},
		CacheTTL: "5m",
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Store.Type == "remote" && c.Store.URL == "" {
		return fmt.Errorf("store.url is required for the remote store")
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	return nil
}

// TTL parses the cache TTL. Zero means "use the default".
func (c *Config) TTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache_ttl %q: %w", c.CacheTTL, err)
	}
	return d, nil
}
