// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// CacheEnvVar overrides the default per-user model cache directory.
const CacheEnvVar = "IACSEC_MODEL_CACHE"

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Model  ModelConfig  `mapstructure:"model" yaml:"model"`
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
	// Scan gets its marching orders from CLI flags, not the config file.
	Scan ScanConfig `mapstructure:"-" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ModelConfig locates the post-filter model registry and artifact cache.
type ModelConfig struct {
	RegistryPath string `mapstructure:"registry_path" yaml:"registry_path"`
	CacheDir     string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// EngineConfig configures the scoring worker pool.
type EngineConfig struct {
	WorkerConcurrency int `mapstructure:"worker_concurrency" yaml:"worker_concurrency"`
}

// ScanConfig centralizes all runtime settings for a single scan invocation.
// It is populated from command-line flags in cmd/scan.go.
type ScanConfig struct {
	Path       string
	Tech       string
	Rules      []string
	Postfilter string
	Threshold  float64
	// ThresholdSet distinguishes "no override" from an explicit 0.
	ThresholdSet bool
	Formats      []string
	Out          string
	FailOnHigh   bool
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "iacsec")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Model --
	v.SetDefault("model.registry_path", filepath.Join("models", "registry.yaml"))
	v.SetDefault("model.cache_dir", "")

	// -- Engine --
	v.SetDefault("engine.worker_concurrency", 8)
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Engine.WorkerConcurrency <= 0 {
		return fmt.Errorf("engine.worker_concurrency must be a positive integer")
	}
	if c.Model.RegistryPath == "" {
		return fmt.Errorf("model.registry_path is a required configuration field")
	}
	return nil
}

// CacheDir resolves the model cache root. Precedence: IACSEC_MODEL_CACHE
// environment value, then the configured directory, then a per-user default.
func (c *Config) CacheDir() (string, error) {
	if override := os.Getenv(CacheEnvVar); override != "" {
		return override, nil
	}
	if c.Model.CacheDir != "" {
		return c.Model.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "iacsec"), nil
}

// NewDefaultConfig creates a configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}
