// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Runner    RunnerConfig    `mapstructure:"runner" yaml:"runner"`
	Validator ValidatorConfig `mapstructure:"validator" yaml:"validator"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser process.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool     `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string   `mapstructure:"user_agent" yaml:"user_agent"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// NetworkConfig tunes navigation and download waits.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	DownloadTimeout   time.Duration `mapstructure:"download_timeout" yaml:"download_timeout"`
	ElementTimeout    time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
}

// RunnerConfig controls the batch run loop.
type RunnerConfig struct {
	DownloadDir   string `mapstructure:"download_dir" yaml:"download_dir"`
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	// MaxAttempts is the number of tries per row. The batch checker
	// historically ran a single attempt; values above 1 retry transient
	// failures (page load, download) with exponential backoff.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// RowsPerMinute paces row execution. Zero disables pacing.
	RowsPerMinute int `mapstructure:"rows_per_minute" yaml:"rows_per_minute"`
}

// ValidatorConfig configures the Gemini-backed document validator.
type ValidatorConfig struct {
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "linkcheck")
	v.SetDefault("logger.log_file", "linkcheck.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.post_load_wait", "2s")
	v.SetDefault("network.download_timeout", "10s")
	v.SetDefault("network.element_timeout", "10s")

	// -- Runner --
	v.SetDefault("runner.download_dir", "downloads")
	v.SetDefault("runner.screenshot_dir", "screenshots")
	v.SetDefault("runner.max_attempts", 1)
	v.SetDefault("runner.rows_per_minute", 0)

	// -- Validator --
	v.SetDefault("validator.model", "gemini-2.5-flash")
	v.SetDefault("validator.api_timeout", "2m")
	v.SetDefault("validator.concurrency", 4)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("validator.api_key", "LINKCHECK_GEMINI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.normalizePaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// normalizePaths expands a leading "~" in the side-file directories so they
// can be configured relative to the user's home.
func (c *Config) normalizePaths() error {
	for _, p := range []*string{&c.Runner.DownloadDir, &c.Runner.ScreenshotDir, &c.Logger.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Runner.MaxAttempts <= 0 {
		return fmt.Errorf("runner.max_attempts must be a positive integer")
	}
	if c.Runner.RowsPerMinute < 0 {
		return fmt.Errorf("runner.rows_per_minute must not be negative")
	}
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.Network.DownloadTimeout <= 0 {
		return fmt.Errorf("network.download_timeout must be a positive duration")
	}
	if c.Validator.Concurrency <= 0 {
		return fmt.Errorf("validator.concurrency must be a positive integer")
	}
	return nil
}
