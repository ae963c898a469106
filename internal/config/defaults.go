package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/observability"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			Output:  "text",
		},
		Database: DBConfig{
			Path:        filepath.Join(homeDir, "planner.db"),
			BusyTimeout: 5 * time.Second,
		},
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracing: observability.TracingConfig{
			Enabled:     false,
			Provider:    "noop",
			ServiceName: "vibeplanner",
			SampleRate:  1.0,
		},
		Metrics: observability.MetricsConfig{
			Enabled:  false,
			Provider: "noop",
			Interval: time.Minute,
		},
	}
}

// setDefaults registers every key of cfg with v so environment overrides
// apply even when the key is absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("core.home_dir", cfg.Core.HomeDir)
	v.SetDefault("core.output", cfg.Core.Output)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.busy_timeout", cfg.Database.BusyTimeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("tracing.enabled", cfg.Tracing.Enabled)
	v.SetDefault("tracing.provider", cfg.Tracing.Provider)
	v.SetDefault("tracing.endpoint", cfg.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", cfg.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", cfg.Tracing.SampleRate)
	v.SetDefault("tracing.tls_cert_file", cfg.Tracing.TLSCertFile)
	v.SetDefault("tracing.insecure_mode", cfg.Tracing.InsecureMode)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.provider", cfg.Metrics.Provider)
	v.SetDefault("metrics.endpoint", cfg.Metrics.Endpoint)
	v.SetDefault("metrics.interval", cfg.Metrics.Interval)
	v.SetDefault("metrics.insecure_mode", cfg.Metrics.InsecureMode)
}
