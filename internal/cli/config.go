// Package cli holds configuration and output helpers for profilectl.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvBaseURL = "GOPROFILES_BASE_URL"
	EnvAPIKey  = "GOPROFILES_API_KEY"
)

// Config is the profilectl configuration file.
type Config struct {
	DefaultEnv   string               `yaml:"default_env"`
	Environments map[string]EnvConfig `yaml:"environments"`
}

// EnvConfig points at one deployment of the service.
type EnvConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// ConfigPathFunc returns the config file location. Tests replace it.
var ConfigPathFunc = defaultConfigPath

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".goprofiles", "config.yaml"), nil
}

// LoadConfig reads the config file. A missing file yields an empty config.
func LoadConfig() (*Config, error) {
	path, err := ConfigPathFunc()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{DefaultEnv: "dev", Environments: map[string]EnvConfig{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Environments == nil {
		cfg.Environments = map[string]EnvConfig{}
	}
	return &cfg, nil
}

// SaveConfig writes cfg with owner-only permissions.
func SaveConfig(cfg *Config) error {
	path, err := ConfigPathFunc()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetEnvConfig resolves the deployment to talk to.
// Priority: command flags > environment variables > config file.
// Only the base URL is required; read-only commands work without a key.
func GetEnvConfig(envName, baseURLFlag, apiKeyFlag string) (*EnvConfig, error) {
	out := EnvConfig{}

	if baseURLFlag == "" && os.Getenv(EnvBaseURL) == "" {
		cfg, err := LoadConfig()
		if err != nil {
			return nil, err
		}
		if envName == "" {
			envName = cfg.DefaultEnv
		}
		envCfg, ok := cfg.Environments[envName]
		if !ok {
			return nil, fmt.Errorf("environment '%s' not found in config (run 'profilectl config init')", envName)
		}
		out = envCfg
	}

	out.BaseURL = firstNonEmpty(baseURLFlag, os.Getenv(EnvBaseURL), out.BaseURL)
	out.APIKey = firstNonEmpty(apiKeyFlag, os.Getenv(EnvAPIKey), out.APIKey)

	if out.BaseURL == "" {
		return nil, fmt.Errorf("base_url must be configured")
	}
	return &out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// InitConfig writes a starter config file and returns its path. An existing
// file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path, err := ConfigPathFunc()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg := &Config{
		DefaultEnv: "dev",
		Environments: map[string]EnvConfig{
			"dev":  {BaseURL: "http://localhost:8080", APIKey: "admin-123"},
			"prod": {BaseURL: "https://profiles.example.com"},
		},
	}
	return path, SaveConfig(cfg)
}
