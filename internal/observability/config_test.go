package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr bool
	}{
		{name: "disabled", cfg: TracingConfig{Enabled: false, Provider: "bogus"}},
		{name: "noop", cfg: TracingConfig{Enabled: true, Provider: "noop", SampleRate: 1}},
		{name: "otlp", cfg: TracingConfig{Enabled: true, Provider: "OTLP", Endpoint: "localhost:4317", SampleRate: 0.5}},
		{name: "otlp without endpoint", cfg: TracingConfig{Enabled: true, Provider: "otlp", SampleRate: 1}, wantErr: true},
		{name: "unknown provider", cfg: TracingConfig{Enabled: true, Provider: "jaeger"}, wantErr: true},
		{name: "sample rate too high", cfg: TracingConfig{Enabled: true, Provider: "noop", SampleRate: 1.5}, wantErr: true},
		{name: "negative sample rate", cfg: TracingConfig{Enabled: true, Provider: "noop", SampleRate: -0.1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetricsConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MetricsConfig
		wantErr bool
	}{
		{name: "disabled", cfg: MetricsConfig{}},
		{name: "noop", cfg: MetricsConfig{Enabled: true, Provider: "noop"}},
		{name: "otlp", cfg: MetricsConfig{Enabled: true, Provider: "otlp", Endpoint: "localhost:4317", Interval: time.Minute}},
		{name: "otlp without endpoint", cfg: MetricsConfig{Enabled: true, Provider: "otlp"}, wantErr: true},
		{name: "prometheus", cfg: MetricsConfig{Enabled: true, Provider: "prometheus"}, wantErr: true},
		{name: "negative interval", cfg: MetricsConfig{Enabled: true, Provider: "noop", Interval: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr string
	}{
		{name: "stderr text", cfg: LoggingConfig{Level: "info", Format: "text", Output: "stderr"}},
		{name: "file json", cfg: LoggingConfig{Level: "DEBUG", Format: "json", Output: "/var/log/planner.log"}},
		{name: "bad level", cfg: LoggingConfig{Level: "trace", Format: "text", Output: "stderr"}, wantErr: "invalid log level"},
		{name: "bad format", cfg: LoggingConfig{Level: "info", Format: "xml", Output: "stderr"}, wantErr: "invalid log format"},
		{name: "missing output", cfg: LoggingConfig{Level: "info", Format: "text"}, wantErr: "output is required"},
		{name: "relative output", cfg: LoggingConfig{Level: "info", Format: "text", Output: "logs/x.log"}, wantErr: "invalid log output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
