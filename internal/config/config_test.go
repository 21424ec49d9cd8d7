package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://127.0.0.1:9777", cfg.Relay)
	assert.Equal(t, "https://www.notion.so/", cfg.TargetOrigin)
	assert.Equal(t, 300*time.Millisecond, cfg.GetStepDelay())
	assert.Equal(t, 100*time.Millisecond, cfg.GetRowDelay())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfig_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"target_origin":"https://example.com/"}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", cfg.TargetOrigin)
	assert.Equal(t, DefaultConfig().Relay, cfg.Relay)
	assert.Equal(t, DefaultConfig().StepDelayMs, cfg.StepDelayMs)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.StepDelayMs = 450
	cfg.LogFile = "/tmp/sharesquad.log"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
