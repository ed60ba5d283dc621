package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Refresh RefreshConfig `mapstructure:"refresh" yaml:"refresh"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// FeedConfig holds upstream quote feed settings
type FeedConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"` // 0 disables
	Charset string        `mapstructure:"charset" yaml:"charset"` // utf-8, gbk
}

// RefreshConfig holds refresh scheduling settings
type RefreshConfig struct {
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	SingleFlight bool          `mapstructure:"single_flight" yaml:"single_flight"`
}

// StorageConfig holds watchlist persistence settings
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // empty means ~/.stockwatch/stocks.json
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
	File   string `mapstructure:"file" yaml:"file"`   // empty means ~/.stockwatch/stockwatch.log
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURL: "http://api.money.126.net",
			Timeout: 10 * time.Second,
			Charset: "utf-8",
		},
		Refresh: RefreshConfig{
			Interval:     5 * time.Second,
			SingleFlight: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("feed.base_url", cfg.Feed.BaseURL)
	v.SetDefault("feed.timeout", cfg.Feed.Timeout)
	v.SetDefault("feed.charset", cfg.Feed.Charset)
	v.SetDefault("refresh.interval", cfg.Refresh.Interval)
	v.SetDefault("refresh.single_flight", cfg.Refresh.SingleFlight)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.pretty", cfg.Log.Pretty)
}

// Load reads configuration from path, or from the default location when path
// is empty. A missing file is not an error. Environment variables prefixed
// with STOCKWATCH_ (and a .env file in the working directory) override it.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if explicit && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolvePaths fills empty file locations with their defaults
func (c *Config) resolvePaths() error {
	if c.Storage.Path == "" {
		p, err := GetWatchlistPath()
		if err != nil {
			return fmt.Errorf("failed to get watchlist path: %w", err)
		}
		c.Storage.Path = p
	}
	if c.Log.File == "" {
		p, err := GetLogPath()
		if err != nil {
			return fmt.Errorf("failed to get log path: %w", err)
		}
		c.Log.File = p
	}
	return nil
}

// WriteYAML encodes the configuration as YAML
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// WriteDefault writes the default configuration to path unless it exists
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	return writeAndClose(DefaultConfig(), f)
}

// writeAndClose encodes cfg into w and reports the close error as well
func writeAndClose(cfg *Config, w io.WriteCloser) error {
	if err := cfg.WriteYAML(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s - %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationResult contains all validation errors
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no errors
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// HasWarnings returns true if there are warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the first error, or nil when the configuration is valid
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	return &r.Errors[0]
}

// Validate validates the configuration and returns validation results
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationError, 0),
	}

	if !strings.HasPrefix(c.Feed.BaseURL, "http://") && !strings.HasPrefix(c.Feed.BaseURL, "https://") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "feed.base_url",
			Value:   c.Feed.BaseURL,
			Message: "must be an http or https URL",
		})
	}

	if c.Feed.Timeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "feed.timeout",
			Value:   c.Feed.Timeout,
			Message: "must be non-negative",
		})
	}
	if c.Feed.Timeout == 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "feed.timeout",
			Value:   c.Feed.Timeout,
			Message: "no timeout, an unreachable host stalls its refresh job forever",
		})
	}

	validCharsets := map[string]bool{"": true, "utf-8": true, "utf8": true, "gbk": true}
	if !validCharsets[strings.ToLower(c.Feed.Charset)] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "feed.charset",
			Value:   c.Feed.Charset,
			Message: "must be one of: utf-8, gbk",
		})
	}

	if c.Refresh.Interval < time.Second {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "refresh.interval",
			Value:   c.Refresh.Interval,
			Message: "must be at least 1s",
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: "unknown level, falling back to info",
		})
	}

	return result
}

// ValidateAndPrint validates and prints errors/warnings
func (c *Config) ValidateAndPrint(w io.Writer) bool {
	result := c.Validate()

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "Configuration errors:\n")
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  ✗ %s: %s (value: %v)\n", err.Field, err.Message, err.Value)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "Configuration warnings:\n")
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "  ⚠ %s: %s (value: %v)\n", warn.Field, warn.Message, warn.Value)
		}
	}

	return result.IsValid()
}
