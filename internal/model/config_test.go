package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no base url", func(c *Config) { c.Server.BaseURL = "" }},
		{"no workers", func(c *Config) { c.Concurrency.Workers = 0 }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
		{"bad zone", func(c *Config) { c.Locale.TimeZone = "Mars/Olympus_Mons" }},
		{"negative timeout", func(c *Config) { c.Server.Timeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_FileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  base_url: http://duckling.internal:8000\n  timeout: 3s\nconcurrency:\n  workers: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "http://duckling.internal:8000", cfg.Server.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 8, cfg.Concurrency.Workers)
	// untouched sections keep their defaults
	assert.Equal(t, 24*time.Hour, cfg.Cache.DiskTTL)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("DUCKLING_SERVER_BASE_URL", "http://from-env:9000")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("DUCKLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9000", cfg.Server.BaseURL)
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 10s", "durations should render as strings")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Cache.MemoryTTL)
}

func TestLocaleConfig_Location(t *testing.T) {
	loc, err := LocaleConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = LocaleConfig{TimeZone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
