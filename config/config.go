// Package config loads the ledger configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ledger configuration
type Config struct {
	Store   StoreConfig   `json:"store" yaml:"store"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Trading TradingConfig `json:"trading" yaml:"trading"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"` // "sqlite" or "memory"
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level    string `json:"level" yaml:"level"`       // "debug", "info", "warn", "error"
	Encoding string `json:"encoding" yaml:"encoding"` // "console" or "json"
}

// TradingConfig contains trade execution defaults
type TradingConfig struct {
	Method   string `json:"method" yaml:"method"` // "fifo", "average" or "both"
	Currency string `json:"currency" yaml:"currency"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Store.Backend != "sqlite" && c.Store.Backend != "memory" {
		return fmt.Errorf("store.backend must be 'sqlite' or 'memory'")
	}
	if c.Store.Backend == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store.path required for sqlite backend")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}
	if c.Logging.Encoding != "console" && c.Logging.Encoding != "json" {
		return fmt.Errorf("logging.encoding must be 'console' or 'json'")
	}
	switch c.Trading.Method {
	case "fifo", "average", "both":
	default:
		return fmt.Errorf("trading.method must be fifo, average or both")
	}
	if c.Trading.Currency == "" {
		return fmt.Errorf("trading.currency is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "./ledger.db",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Trading: TradingConfig{
			Method:   "both",
			Currency: "THB",
		},
	}
}
