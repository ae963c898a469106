package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// DefaultHomeDir returns ~/.vibeplanner, or a directory under the system temp
// dir if the user home cannot be determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".vibeplanner")
	}
	return filepath.Join(userHome, ".vibeplanner")
}

// DefaultConfigPath returns the default config file path for a given home directory
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

// Save writes cfg to path as YAML, creating the parent directory.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return types.WrapError(types.CONFIG_PARSE_FAILED, "failed to encode config", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to write config file", err)
	}
	return nil
}
