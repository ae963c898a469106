// Package config loads vibeplanner settings from a YAML file, environment
// variables and defaults.
package config

import (
	"time"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/database"
	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/observability"
)

// Config is the root configuration.
type Config struct {
	Core     CoreConfig                  `mapstructure:"core" yaml:"core" validate:"required"`
	Database DBConfig                    `mapstructure:"database" yaml:"database" validate:"required"`
	Logging  observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing  observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics  observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string `mapstructure:"home_dir" yaml:"home_dir" validate:"required"`
	// Output is the default CLI output format.
	Output string `mapstructure:"output" yaml:"output" validate:"oneof=text json yaml"`
}

// DBConfig contains database configuration.
type DBConfig struct {
	Path        string        `mapstructure:"path" yaml:"path" validate:"required"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" validate:"min=1ms"`
}

// Store returns the database options for this configuration.
func (c DBConfig) Store() database.Config {
	cfg := database.DefaultConfig(c.Path)
	if c.BusyTimeout > 0 {
		cfg.BusyTimeout = c.BusyTimeout
	}
	return cfg
}
