package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/ppiankov/duckling/internal/cache"
	"github.com/ppiankov/duckling/internal/client"
	"github.com/ppiankov/duckling/internal/entity"
	"github.com/ppiankov/duckling/internal/logger"
	"github.com/ppiankov/duckling/internal/metrics"
	"github.com/ppiankov/duckling/internal/model"
	"github.com/ppiankov/duckling/internal/pipeline"
	"github.com/ppiankov/duckling/internal/worker"
)

// app holds the components shared by the parse, batch and serve commands
type app struct {
	cfg      model.Config
	log      logger.Logger
	svc      *client.Client
	location *time.Location
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
	cache    cache.Cache
	closers  []func() error
}

type appOptions struct {
	noCache    bool
	dimensions []string // overrides locale.dimensions when set
}

// loadConfig reads the merged viper configuration
func loadConfig() (model.Config, error) {
	cfg, err := model.LoadConfig(viper.GetViper())
	if err != nil {
		return model.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose lowers the level to debug
func newLogger(cfg model.Config) (logger.Logger, error) {
	level := cfg.Logging.Level
	if cfg.Output.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Locale.Location()
	if err != nil {
		return nil, fmt.Errorf("locale.timezone: %w", err)
	}
	rawDims := cfg.Locale.Dimensions
	if len(opts.dimensions) > 0 {
		rawDims = opts.dimensions
	}
	dims, err := parseDimensions(rawDims)
	if err != nil {
		return nil, err
	}

	c, err := client.New(client.Options{
		BaseURL:      cfg.Server.BaseURL,
		Timeout:      cfg.Server.Timeout,
		UserAgent:    cfg.Server.UserAgent,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MaxRetries:   cfg.Server.MaxRetries,
		HTTPProxy:    cfg.Server.HTTPProxy,
		HTTPSProxy:   cfg.Server.HTTPSProxy,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		svc:      c,
		location: loc,
		metrics:  metrics.New(prometheus.NewRegistry()),
	}

	if cfg.Cache.Enabled && !opts.noCache {
		if a.cache, err = a.buildCache(); err != nil {
			return nil, err
		}
	}

	a.pipeline = pipeline.New(pipeline.Options{
		Fetcher: c,
		Cache:   a.cache, // zero CacheTTL: each tier applies its own
		Limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.Burst),
		Metrics: a.metrics,
		Logger:  log,
		Defaults: client.Request{
			Location:   loc,
			Dimensions: dims,
			Locale:     cfg.Locale.Locale,
		},
	})
	return a, nil
}

// buildCache layers memory and disk, plus Redis when an address is configured.
// An unreachable Redis only costs the shared tier.
func (a *app) buildCache() (*cache.LayeredCache, error) {
	dir, err := expandHome(a.cfg.Cache.DiskDir)
	if err != nil {
		return nil, err
	}
	layered := cache.NewLayeredCache(a.cfg.Cache.MemoryTTL, dir, a.cfg.Cache.DiskTTL)

	rc := a.cfg.Cache.Redis
	if rc.Address == "" {
		return layered, nil
	}
	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Address:  rc.Address,
		Password: rc.Password,
		DB:       rc.DB,
		TTL:      rc.TTL,
	})
	if err != nil {
		a.log.Warn("redis cache tier disabled", logger.String("address", rc.Address), logger.Error(err))
		return layered, nil
	}
	a.closers = append(a.closers, redisCache.Close)
	return layered.WithTier(redisCache), nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// parseDimensions accepts names from --dims or config, comma separated or repeated
func parseDimensions(raw []string) ([]entity.Dimension, error) {
	var dims []entity.Dimension
	for _, item := range raw {
		for _, name := range strings.Split(item, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			dim, ok := entity.ParseDimension(name)
			if !ok {
				return nil, fmt.Errorf("unknown dimension %q (known: %s)", name, knownDimensions())
			}
			dims = append(dims, dim)
		}
	}
	return dims, nil
}

func knownDimensions() string {
	all := entity.Dimensions()
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// openOutput opens path for writing, or returns stdout for "" and "-"
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
