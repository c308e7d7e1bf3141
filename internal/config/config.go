package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default tunables for the supervisor loop.
const (
	DefaultLockTimeoutMS        = 3000
	DefaultMaxSessionIterations = 50
	DefaultStuckThreshold       = 3
	DefaultPatrolIdlePasses     = 3
	DefaultSuppressionMinutes   = 60
)

// StateDirName is the per-project directory holding all supervisor state.
const StateDirName = ".warden"

// Config represents the flat warden configuration
type Config struct {
	Version              string `json:"version"`
	LockTimeoutMS        int    `json:"lock_timeout_ms,omitempty"`
	MaxSessionIterations int    `json:"max_session_iterations,omitempty"`
	StuckThreshold       int    `json:"stuck_threshold,omitempty"`
	PatrolIdlePasses     int    `json:"patrol_idle_passes,omitempty"`
	SuppressionMinutes   int    `json:"suppression_minutes,omitempty"`
	JournalDisabled      bool   `json:"journal_disabled,omitempty"`
}

// LoadConfig reads .warden/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, StateDirName, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault reads config from dir, falling back to defaults when no
// config file exists yet. Parse errors are still surfaced as defaults so a
// broken config never blocks a turn.
func LoadOrDefault(dir string) *Config {
	cfg, err := LoadConfig(dir)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns a config populated with default tunables.
func DefaultConfig() *Config {
	cfg := &Config{Version: "2"}
	cfg.applyDefaults()
	return cfg
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	stateDir := filepath.Join(dir, StateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", StateDirName, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(stateDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// StateDir returns the supervisor state directory under dir.
func StateDir(dir string) string {
	return filepath.Join(dir, StateDirName)
}

func (c *Config) applyDefaults() {
	if c.LockTimeoutMS <= 0 {
		c.LockTimeoutMS = DefaultLockTimeoutMS
	}
	if c.MaxSessionIterations <= 0 {
		c.MaxSessionIterations = DefaultMaxSessionIterations
	}
	if c.StuckThreshold <= 0 {
		c.StuckThreshold = DefaultStuckThreshold
	}
	if c.PatrolIdlePasses <= 0 {
		c.PatrolIdlePasses = DefaultPatrolIdlePasses
	}
	if c.SuppressionMinutes <= 0 {
		c.SuppressionMinutes = DefaultSuppressionMinutes
	}
}
