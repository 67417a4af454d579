// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "linkcheck", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 60*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Network.DownloadTimeout)
	assert.Equal(t, "downloads", cfg.Runner.DownloadDir)
	assert.Equal(t, "screenshots", cfg.Runner.ScreenshotDir)
	assert.Equal(t, 1, cfg.Runner.MaxAttempts)
	assert.Equal(t, 0, cfg.Runner.RowsPerMinute)
	assert.Equal(t, "gemini-2.5-flash", cfg.Validator.Model)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate(), "a default config should validate")

	invalidAttempts := *cfg
	invalidAttempts.Runner.MaxAttempts = 0
	err := invalidAttempts.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "runner.max_attempts")

	invalidPacing := *cfg
	invalidPacing.Runner.RowsPerMinute = -5
	err = invalidPacing.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "runner.rows_per_minute")

	invalidNav := *cfg
	invalidNav.Network.NavigationTimeout = 0
	err = invalidNav.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "network.navigation_timeout")

	invalidValidator := *cfg
	invalidValidator.Validator.Concurrency = 0
	err = invalidValidator.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validator.concurrency")
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	yamlConfig := []byte(`
logger:
  level: debug
  format: json
browser:
  headless: false
network:
  navigation_timeout: 90s
  download_timeout: 30s
runner:
  max_attempts: 3
  rows_per_minute: 12
`)

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 30*time.Second, cfg.Network.DownloadTimeout)
	assert.Equal(t, 3, cfg.Runner.MaxAttempts)
	assert.Equal(t, 12, cfg.Runner.RowsPerMinute)

	// Defaults fill in anything the file does not override.
	assert.Equal(t, "downloads", cfg.Runner.DownloadDir)
	assert.Equal(t, 2*time.Second, cfg.Network.PostLoadWait)
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("runner.max_attempts", 0)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestHomeExpansion(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("runner.download_dir", "~/linkcheck-downloads")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Runner.DownloadDir, "~")
}
