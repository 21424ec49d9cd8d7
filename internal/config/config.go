package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for the ShareSquad side panel
type Config struct {
	// Relay is the base URL of the local browser relay that exposes the
	// active tab and the per-tab agent channel
	Relay string `json:"relay"`

	// TargetOrigin is the origin prefix a tab must match before any
	// injection is attempted
	TargetOrigin string `json:"target_origin"`

	// StepDelayMs is the fixed pause after every interactive step of the
	// automation sequence, giving the host page time to re-render
	StepDelayMs int `json:"step_delay_ms"`

	// RowDelayMs is the extra pause between member rows during bulk sync
	RowDelayMs int `json:"row_delay_ms"`

	// DBPath overrides the default database location
	DBPath string `json:"db_path"`

	// LogFile is the debug log destination (empty disables file logging)
	LogFile string `json:"log_file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Relay:        "http://127.0.0.1:9777",
		TargetOrigin: "https://www.notion.so/",
		StepDelayMs:  300,
		RowDelayMs:   100,
		DBPath:       "",
		LogFile:      "",
	}
}

// LoadConfig reads a JSON configuration file and fills missing fields with defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Relay == "" {
		cfg.Relay = DefaultConfig().Relay
	}
	if cfg.TargetOrigin == "" {
		cfg.TargetOrigin = DefaultConfig().TargetOrigin
	}
	if cfg.StepDelayMs <= 0 {
		cfg.StepDelayMs = DefaultConfig().StepDelayMs
	}
	if cfg.RowDelayMs <= 0 {
		cfg.RowDelayMs = DefaultConfig().RowDelayMs
	}
	return cfg, nil
}

// SaveConfig writes the configuration as pretty-printed JSON
func (c *Config) SaveConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GetStepDelay returns the per-step pacing delay
func (c *Config) GetStepDelay() time.Duration {
	return time.Duration(c.StepDelayMs) * time.Millisecond
}

// GetRowDelay returns the per-row pacing delay
func (c *Config) GetRowDelay() time.Duration {
	return time.Duration(c.RowDelayMs) * time.Millisecond
}

// DefaultConfigPath returns ~/.config/sharesquad/config.json
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".config", "sharesquad", "config.json")
}

// DefaultDataDir returns the directory used for the database and exports
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "sharesquad")
}

// DefaultDBPath returns the default database location
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "sharesquad.sqlite3")
}
