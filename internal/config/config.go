// Package config provides configuration loading for entityd.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the gateway.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig holds vector store client configuration.
type StoreConfig struct {
	// BaseURL is the base URL of the external vector store API.
	BaseURL string `koanf:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `koanf:"api_key"`

	// IndexPrefix namespaces every collection (prefix + kind plural).
	IndexPrefix string `koanf:"index_prefix"`

	// Timeout bounds each request to the store.
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Development switches to the human-readable development logger.
	Development bool `koanf:"development"`
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store base URL is required")
	}
	if _, err := url.Parse(c.Store.BaseURL); err != nil {
		return fmt.Errorf("invalid store base URL: %w", err)
	}
	if c.Store.Timeout < 0 {
		return fmt.Errorf("store timeout cannot be negative")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Store.BaseURL == "" {
		cfg.Store.BaseURL = "http://localhost:8000/api/products"
	}
	if cfg.Store.IndexPrefix == "" {
		cfg.Store.IndexPrefix = "assistant_"
	}
	if cfg.Store.Timeout == 0 {
		cfg.Store.Timeout = 30 * time.Second
	}
}
