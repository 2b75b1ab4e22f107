// File: internal/config/config_test.go
package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellisa/iacsec/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "iacsec", cfg.Logger.ServiceName)
	assert.Equal(t, filepath.Join("models", "registry.yaml"), cfg.Model.RegistryPath)
	assert.Equal(t, 8, cfg.Engine.WorkerConcurrency)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Engine.WorkerConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = config.NewDefaultConfig()
	cfg.Model.RegistryPath = ""
	assert.Error(t, cfg.Validate())
}

func TestCacheDir_EnvOverrideWins(t *testing.T) {
	override := t.TempDir()
	t.Setenv(config.CacheEnvVar, override)

	cfg := config.NewDefaultConfig()
	cfg.Model.CacheDir = "/configured/elsewhere"

	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, override, dir)
}

func TestCacheDir_ConfiguredDir(t *testing.T) {
	t.Setenv(config.CacheEnvVar, "")

	cfg := config.NewDefaultConfig()
	cfg.Model.CacheDir = "/configured/cache"

	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/configured/cache", dir)
}

func TestCacheDir_PerUserDefault(t *testing.T) {
	t.Setenv(config.CacheEnvVar, "")

	cfg := config.NewDefaultConfig()
	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "iacsec", filepath.Base(dir))
}
