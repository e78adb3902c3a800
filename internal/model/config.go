package model

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration tree, read from ~/.duckling/config.yaml,
// DUCKLING_* environment variables and CLI flags
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Locale       LocaleConfig       `yaml:"locale" mapstructure:"locale"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Serve        ServeConfig        `yaml:"serve" mapstructure:"serve"`
}

// ServerConfig describes the Duckling service being called
type ServerConfig struct {
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// LocaleConfig holds request defaults
type LocaleConfig struct {
	TimeZone   string   `yaml:"timezone" mapstructure:"timezone"` // IANA name; empty means the local zone
	Locale     string   `yaml:"locale" mapstructure:"locale"`
	Dimensions []string `yaml:"dimensions" mapstructure:"dimensions"`
}

// CacheConfig controls the response cache tiers
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Redis     RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig enables the shared cache tier when Address is set
type RedisConfig struct {
	Address  string        `yaml:"address" mapstructure:"address"`
	Password string        `yaml:"password,omitempty" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text or json
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type ServeConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:      "http://localhost:8000",
			Timeout:      10 * time.Second,
			UserAgent:    "duckling-go/0.1",
			MaxBodyBytes: 4 << 20,
			MaxRetries:   2,
		},
		Locale: LocaleConfig{
			Locale: "en_US",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskDir:   "~/.duckling/cache",
			DiskTTL:   24 * time.Hour,
			Redis: RedisConfig{
				TTL: 24 * time.Hour,
			},
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 20,
			Burst:             10,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Serve: ServeConfig{
			Listen: ":8080",
		},
	}
}

// SetDefaults registers every default with v so that env vars and partial
// config files layer over them
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("server.user_agent", d.Server.UserAgent)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.max_retries", d.Server.MaxRetries)
	v.SetDefault("server.http_proxy", d.Server.HTTPProxy)
	v.SetDefault("server.https_proxy", d.Server.HTTPSProxy)
	v.SetDefault("locale.timezone", d.Locale.TimeZone)
	v.SetDefault("locale.locale", d.Locale.Locale)
	v.SetDefault("locale.dimensions", d.Locale.Dimensions)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	v.SetDefault("cache.disk_dir", d.Cache.DiskDir)
	v.SetDefault("cache.disk_ttl", d.Cache.DiskTTL)
	v.SetDefault("cache.redis.address", d.Cache.Redis.Address)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("cache.redis.ttl", d.Cache.Redis.TTL)
	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
	v.SetDefault("rate_limiting.requests_per_second", d.RateLimiting.RequestsPerSecond)
	v.SetDefault("rate_limiting.burst", d.RateLimiting.Burst)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.verbose", d.Output.Verbose)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("serve.listen", d.Serve.Listen)
}

// LoadConfig decodes v into a Config and checks it
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with
func (c Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}
	if c.Concurrency.Workers < 1 {
		return fmt.Errorf("concurrency.workers must be at least 1, got %d", c.Concurrency.Workers)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	if c.Locale.TimeZone != "" {
		if _, err := time.LoadLocation(c.Locale.TimeZone); err != nil {
			return fmt.Errorf("locale.timezone: %w", err)
		}
	}
	return nil
}

// Location resolves the configured time zone, defaulting to time.Local
func (c LocaleConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}
