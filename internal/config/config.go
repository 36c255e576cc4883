// Package config loads and persists the tool's YAML-backed user settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultChunkSizeBytes = 64 * 1024
	DefaultWorkerCount    = 1
	DefaultThrottleMillis = 100
)

// Config holds the tool's persisted settings.
type Config struct {
	DefaultChunkSizeBytes int    `yaml:"default_chunk_size_bytes"`
	DefaultWorkerCount    int    `yaml:"default_worker_count"`
	ThrottleIntervalMs    int    `yaml:"throttle_interval_ms"`
	LastSourcePath        string `yaml:"last_source_path,omitempty"`
	LastDestPath          string `yaml:"last_dest_path,omitempty"`
}

// Default returns a Config populated with the module's built-in defaults.
func Default() *Config {
	return &Config{
		DefaultChunkSizeBytes: DefaultChunkSizeBytes,
		DefaultWorkerCount:    DefaultWorkerCount,
		ThrottleIntervalMs:    DefaultThrottleMillis,
	}
}

// DefaultPath returns the standard config file location,
// $XDG_CONFIG_HOME/filecore/config.yaml (or ~/.config/filecore/config.yaml).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "filecore", "config.yaml"), nil
}

// Load reads and parses a config file, falling back to Default() if the file
// does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Merge applies non-zero fields from override onto c, so that override acts
// as a partial update.
func (c *Config) Merge(override *Config) {
	if override.DefaultChunkSizeBytes != 0 {
		c.DefaultChunkSizeBytes = override.DefaultChunkSizeBytes
	}
	if override.DefaultWorkerCount != 0 {
		c.DefaultWorkerCount = override.DefaultWorkerCount
	}
	if override.ThrottleIntervalMs != 0 {
		c.ThrottleIntervalMs = override.ThrottleIntervalMs
	}
	if override.LastSourcePath != "" {
		c.LastSourcePath = override.LastSourcePath
	}
	if override.LastDestPath != "" {
		c.LastDestPath = override.LastDestPath
	}
}
