// CrewGrid - Workforce Management Client Core
// Copyright 2026 CrewGrid Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crewgrid/crewgrid

/*
config.go - Layered agent configuration

Configuration is loaded in three layers with clear precedence:

 1. Defaults: built-in sensible defaults
 2. Config file: optional YAML file (if one exists)
 3. Environment variables: override any setting

Environment variables use the CREWGRID_ prefix and map onto the nested
structure, e.g. CREWGRID_API_BASE_URL -> api.base_url.
*/

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"crewgrid.yaml",
	"crewgrid.yml",
	"/etc/crewgrid/config.yaml",
	"/etc/crewgrid/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CREWGRID_CONFIG"

// Config is the full agent configuration.
type Config struct {
	API           APIConfig           `koanf:"api"`
	Breaker       BreakerConfig       `koanf:"breaker"`
	Storage       StorageConfig       `koanf:"storage"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Logging       LoggingConfig       `koanf:"logging"`
	Diag          DiagConfig          `koanf:"diag"`
}

// APIConfig configures the workforce API transport.
type APIConfig struct {
	// BaseURL is the API root, e.g. https://hrm.example.com/api
	BaseURL string `koanf:"base_url"`

	// Timeout is the fixed per-request deadline.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit caps outbound requests per second. 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the limiter burst size.
	RateBurst int `koanf:"rate_burst"`
}

// BreakerConfig configures the circuit breaker around the transport.
type BreakerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Name    string `koanf:"name"`
}

// StorageConfig configures the persistent credential store.
type StorageConfig struct {
	// Path is the credential store directory. Empty selects an
	// in-memory store that does not survive restarts.
	Path string `koanf:"path"`

	// GCInterval is how often the store's value log is compacted.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// NotificationsConfig configures the system notification poller.
type NotificationsConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`

	// Caller adds file:line to every event.
	Caller bool `koanf:"caller"`
}

// DiagConfig configures the local diagnostics listener.
type DiagConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen"`
}

// defaultConfig returns a Config with all defaults applied. These load
// first and are overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "",
			Timeout:   60 * time.Second,
			RateLimit: 0, // unlimited
			RateBurst: 5,
		},
		Breaker: BreakerConfig{
			Enabled: true,
			Name:    "crewgrid-api",
		},
		Storage: StorageConfig{
			Path:       "", // in-memory by default
			GCInterval: 10 * time.Minute,
		},
		Notifications: NotificationsConfig{
			PollInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Diag: DiagConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9815",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and CREWGRID_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("CREWGRID_", ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps CREWGRID_* environment variable names onto koanf
// config paths:
//
//	CREWGRID_API_BASE_URL            -> api.base_url
//	CREWGRID_LOGGING_LEVEL           -> logging.level
//	CREWGRID_NOTIFICATIONS_POLL_INTERVAL -> notifications.poll_interval
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "CREWGRID_"))

	// Section prefixes are single words; everything after the first
	// underscore stays a flat snake_case key within the section.
	for _, section := range []string{"api", "breaker", "storage", "notifications", "logging", "diag"} {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// Validate checks semantic constraints the type system cannot.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got %f", c.API.RateLimit)
	}
	if c.Notifications.PollInterval < time.Second {
		return fmt.Errorf("notifications.poll_interval must be at least 1s, got %s", c.Notifications.PollInterval)
	}
	if c.Storage.GCInterval <= 0 {
		return fmt.Errorf("storage.gc_interval must be positive, got %s", c.Storage.GCInterval)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Diag.Enabled && c.Diag.Listen == "" {
		return fmt.Errorf("diag.listen is required when diag.enabled is set")
	}
	return nil
}
