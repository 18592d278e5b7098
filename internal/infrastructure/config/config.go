package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Programs ProgramsConfig
	Embed    EmbedConfig
	Logging  LogConfig
}

// ProgramsConfig holds program registry file configuration.
type ProgramsConfig struct {
	Path string `envconfig:"WINPANE_PROGRAMS_PATH" default:"programs.json"`
}

// EmbedConfig holds window embedding configuration.
type EmbedConfig struct {
	PollInterval  time.Duration `envconfig:"WINPANE_POLL_INTERVAL" default:"100ms"`
	WindowTimeout time.Duration `envconfig:"WINPANE_WINDOW_TIMEOUT" default:"5s"`
	KillGrace     time.Duration `envconfig:"WINPANE_KILL_GRACE" default:"2s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Programs: ProgramsConfig{
			Path: "programs.json",
		},
		Embed: EmbedConfig{
			PollInterval:  100 * time.Millisecond,
			WindowTimeout: 5 * time.Second,
			KillGrace:     2 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
