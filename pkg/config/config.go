// Package config handles configuration loading and management
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stagehand/stagehand/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the config file looked up when none is given
const DefaultConfigName = "stagehand.config.json"

// Manager handles configuration operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// LoadConfig loads configuration from a file
func (m *Manager) LoadConfig(path string) (*types.StagehandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg types.StagehandConfig

	// Try JSON first
	if err := json.Unmarshal(data, &cfg); err == nil {
		return m.finalize(&cfg, path)
	}

	// Try YAML
	if err := yaml.Unmarshal(data, &cfg); err == nil {
		return m.finalize(&cfg, path)
	}

	return nil, fmt.Errorf("failed to parse config as JSON or YAML")
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(cfg *types.StagehandConfig) error {
	if cfg.Version != "1.0" {
		return fmt.Errorf("unsupported config version: %s", cfg.Version)
	}

	if cfg.ScriptRoot == "" && cfg.ModuleRoot == "" {
		return fmt.Errorf("config defines neither scriptRoot nor moduleRoot")
	}

	if cfg.DeadlineWindowMs != nil && *cfg.DeadlineWindowMs <= 0 {
		return fmt.Errorf("deadlineWindowMs must be positive, got %d", *cfg.DeadlineWindowMs)
	}

	if cfg.LogLevel != "" {
		switch cfg.LogLevel {
		case types.LogLevelDebug, types.LogLevelInfo, types.LogLevelWarn, types.LogLevelError:
		default:
			return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
		}
	}

	return nil
}

// ApplyDefaults fills in unset optional fields
func (m *Manager) ApplyDefaults(cfg *types.StagehandConfig, configPath string) {
	baseDir := filepath.Dir(configPath)

	if cfg.Interpreter == "" {
		cfg.Interpreter = "/bin/sh"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = types.LogLevelInfo
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(baseDir, ".stagehand")
	}
	if cfg.ScriptRoot != "" && !filepath.IsAbs(cfg.ScriptRoot) {
		cfg.ScriptRoot = filepath.Join(baseDir, cfg.ScriptRoot)
	}
	if cfg.ModuleRoot != "" && !filepath.IsAbs(cfg.ModuleRoot) {
		cfg.ModuleRoot = filepath.Join(baseDir, cfg.ModuleRoot)
	}
}

// SaveConfig writes a configuration to a file as JSON
func (m *Manager) SaveConfig(cfg *types.StagehandConfig, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindConfig searches for a config file starting at root
func (m *Manager) FindConfig(root string) (string, error) {
	candidates := []string{
		DefaultConfigName,
		"stagehand.config.yaml",
		"stagehand.config.yml",
	}

	for _, name := range candidates {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found in %s", root)
}

func (m *Manager) finalize(cfg *types.StagehandConfig, path string) (*types.StagehandConfig, error) {
	if err := m.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	m.ApplyDefaults(cfg, path)
	return cfg, nil
}

// GetDefaultConfig returns a starter configuration
func GetDefaultConfig() *types.StagehandConfig {
	return &types.StagehandConfig{
		Version:    "1.0",
		ScriptRoot: "scripts",
		ModuleRoot: "modules",
		LogLevel:   types.LogLevelInfo,
	}
}
