package observability

import (
	"fmt"
	"strings"
	"time"
)

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	Provider     string  `yaml:"provider" mapstructure:"provider"`
	Endpoint     string  `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName  string  `yaml:"service_name" mapstructure:"service_name"`
	SampleRate   float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	TLSCertFile  string  `yaml:"tls_cert_file" mapstructure:"tls_cert_file"` // CA certificate for the collector
	InsecureMode bool    `yaml:"insecure_mode" mapstructure:"insecure_mode"` // plaintext gRPC (unsafe)
}

// Validate validates the TracingConfig fields.
// Returns an error if Provider is not otlp or noop, or if SampleRate is out of
// range (must be between 0.0 and 1.0).
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	provider := strings.ToLower(c.Provider)
	if err := oneOf("tracing provider", provider, "otlp", "noop"); err != nil {
		return err
	}

	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}

	if provider != "noop" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when tracing is enabled")
	}

	return nil
}

// MetricsConfig contains metrics export configuration.
type MetricsConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Provider     string        `yaml:"provider" mapstructure:"provider"`
	Endpoint     string        `yaml:"endpoint" mapstructure:"endpoint"`
	Interval     time.Duration `yaml:"interval" mapstructure:"interval"`
	InsecureMode bool          `yaml:"insecure_mode" mapstructure:"insecure_mode"`
}

// Validate validates the MetricsConfig fields.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	provider := strings.ToLower(c.Provider)
	if err := oneOf("metrics provider", provider, "otlp", "noop"); err != nil {
		return err
	}

	if provider == "otlp" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required for otlp metrics")
	}

	if c.Interval < 0 {
		return fmt.Errorf("invalid export interval: %s", c.Interval)
	}

	return nil
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// Validate validates the LoggingConfig fields.
// Output must be stdout, stderr or an absolute file path.
func (c *LoggingConfig) Validate() error {
	if err := oneOf("log level", strings.ToLower(c.Level), "debug", "info", "warn", "error"); err != nil {
		return err
	}

	if err := oneOf("log format", strings.ToLower(c.Format), "json", "text"); err != nil {
		return err
	}

	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	output := strings.ToLower(c.Output)
	if output != "stdout" && output != "stderr" && !strings.HasPrefix(c.Output, "/") {
		return fmt.Errorf("invalid log output: %s (must be 'stdout', 'stderr', or an absolute file path)", c.Output)
	}

	return nil
}

func oneOf(what, value string, valid ...string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s (must be one of: %s)", what, value, strings.Join(valid, ", "))
}
