package config

import (
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// EnvPrefix is the prefix of environment overrides, e.g. VIBEPLANNER_DATABASE_PATH.
const EnvPrefix = "VIBEPLANNER"

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

// Load reads the YAML file at path over the defaults, applies VIBEPLANNER_*
// environment overrides and ${VAR} interpolation, then validates the result.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := l.newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	return l.decode(v)
}

// LoadWithDefaults is Load, except that a missing file yields the defaults
// with environment overrides applied.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return l.decode(l.newViper())
	}
	return l.Load(path)
}

func (l *viperConfigLoader) newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (l *viperConfigLoader) decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	applyInterpolation(&cfg)

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "configuration validation failed", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR_NAME} with the variable's value. Unset or
// empty variables are left as written.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}
		return match
	})
}

// applyInterpolation expands ${VAR} references in the path and endpoint fields.
func applyInterpolation(cfg *Config) {
	for _, field := range []*string{
		&cfg.Core.HomeDir,
		&cfg.Database.Path,
		&cfg.Logging.Output,
		&cfg.Tracing.Endpoint,
		&cfg.Tracing.TLSCertFile,
		&cfg.Metrics.Endpoint,
	} {
		*field = interpolateString(*field)
	}
}
