package gamehost

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and parses a config file from the given path.
// Supported formats: JSON (.json), YAML (.yaml, .yml).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q: use .json, .yaml, or .yml", ext)
	}

	return &cfg, nil
}

// ValidateConfig validates a Config for correctness.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.User) == "" {
		return fmt.Errorf("user identity is required")
	}

	switch cfg.Store.Driver {
	case "", DriverSQLite, DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			return fmt.Errorf("postgres store requires a dsn")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}

	seen := make(map[string]bool, len(cfg.Plugins))
	for _, name := range cfg.Plugins {
		if seen[name] {
			return fmt.Errorf("plugin %q listed twice", name)
		}
		seen[name] = true
	}

	for _, p := range cfg.LuaPlugins {
		if strings.ToLower(filepath.Ext(p)) != ".lua" {
			return fmt.Errorf("lua plugin %q: expected a .lua file", p)
		}
	}

	return nil
}
