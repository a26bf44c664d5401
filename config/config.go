// Package config parses the YAML configuration for a drone overlay
// client: this node's identity, logging, and the tuning knobs for flood
// throttling. Grounded on postalsys-Muti-Metroo's internal/config
// (Default + Parse + Validate over gopkg.in/yaml.v3), narrowed to this
// domain's much smaller surface.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brokenhouse/dronecore/core"
)

// Config is a drone overlay client's complete configuration.
type Config struct {
	Self     core.NodeId    `yaml:"self"`
	LogLevel string         `yaml:"log_level"`
	Flood    FloodConfig    `yaml:"flood"`
	Frontend FrontendConfig `yaml:"frontend"`
}

// FloodConfig tunes topology-discovery flood initiation.
type FloodConfig struct {
	// MaxPerSecond caps how many flood initiations this node will
	// originate per second, regardless of how many destinations need one.
	MaxPerSecond float64 `yaml:"max_per_second"`
	// Burst is the token-bucket burst size paired with MaxPerSecond.
	Burst int `yaml:"burst"`
}

// FrontendConfig configures the control-channel listener address.
type FrontendConfig struct {
	Address string `yaml:"address"`
}

// Default returns a Config with sane defaults; only Self has no
// meaningful default and must be set by the caller or the loaded file.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Flood: FloodConfig{
			MaxPerSecond: 2,
			Burst:        4,
		},
		Frontend: FrontendConfig{
			Address: "127.0.0.1:9090",
		},
	}
}

// Load reads and parses a YAML configuration file, applying defaults
// for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.Flood.MaxPerSecond <= 0 {
		return fmt.Errorf("flood.max_per_second must be positive")
	}
	if c.Flood.Burst <= 0 {
		return fmt.Errorf("flood.burst must be positive")
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// RateLimitInterval returns the average interval between permitted flood
// initiations, derived from Flood.MaxPerSecond, for callers that prefer
// a time.Duration view over the raw rate.
func (c *Config) RateLimitInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Flood.MaxPerSecond)
}
