package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads path over the defaults, then applies HOSTWATCH_* overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = substituteEnvVars(data)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(cfg)
}

// FromEnv returns the defaults with HOSTWATCH_* overrides applied. A
// malformed override is an error rather than a silent fallback.
func FromEnv() (*Config, error) {
	return finish(Default())
}

// LoadOrDefault never fails on a missing or broken file; it falls back to
// the defaults with environment overrides still applied.
func LoadOrDefault(path string) *Config {
	if path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}

	cfg, err := finish(Default())
	if err != nil {
		return Default()
	}
	return cfg
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
