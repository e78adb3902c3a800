package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/duckling/internal/cache"
	"github.com/ppiankov/duckling/internal/client"
	"github.com/ppiankov/duckling/internal/entity"
	"github.com/ppiankov/duckling/internal/logger"
	"github.com/ppiankov/duckling/internal/metrics"
	"github.com/ppiankov/duckling/internal/model"
	"github.com/ppiankov/duckling/internal/worker"
)

// Fetcher returns raw parse responses; *client.Client implements it
type Fetcher interface {
	Fetch(ctx context.Context, req client.Request) ([]byte, error)
	Endpoint() string
}

// Options wires a Pipeline. Only Fetcher is required.
type Options struct {
	Fetcher  Fetcher
	Cache    cache.Cache
	CacheTTL time.Duration
	Limiter  *worker.Limiter
	Metrics  *metrics.Metrics
	Logger   logger.Logger
	Defaults client.Request // Location, Dimensions and Locale applied by ParseText
}

// Pipeline runs a request through cache, rate limiter, service and decoder
type Pipeline struct {
	fetcher  Fetcher
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
	metrics  *metrics.Metrics
	log      logger.Logger
	defaults client.Request
	now      func() time.Time
}

// New creates a pipeline
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Pipeline{
		fetcher:  opts.Fetcher,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		limiter:  opts.Limiter,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		defaults: opts.Defaults,
		now:      time.Now,
	}
}

// Result is one decoded response
type Result struct {
	Request  client.Request
	Entities []entity.Entity
	Raw      []byte
	Cached   bool
	Elapsed  time.Duration
}

// Report converts the result into its output document
func (r *Result) Report() model.Report {
	loc := r.Request.Location
	if loc == nil {
		loc = time.Local
	}
	return model.Report{
		Text:     r.Request.Text,
		TimeZone: loc.String(),
		Locale:   r.Request.Locale,
		ParsedAt: r.Request.ReferenceTime.UTC(),
		Cached:   r.Cached,
		Elapsed:  r.Elapsed,
		Entities: r.Entities,
		Summary:  model.Summarize(r.Entities),
	}
}

// Request builds a request for text from the pipeline defaults
func (p *Pipeline) Request(text string) client.Request {
	req := p.defaults
	req.Text = text
	if len(p.defaults.Dimensions) > 0 {
		req.Dimensions = append([]entity.Dimension(nil), p.defaults.Dimensions...)
	}
	return req
}

// ParseText parses text with the pipeline defaults
func (p *Pipeline) ParseText(ctx context.Context, text string) ([]entity.Entity, error) {
	res, err := p.Parse(ctx, p.Request(text))
	if err != nil {
		return nil, err
	}
	return res.Entities, nil
}

// Parse resolves req. A zero ReferenceTime is pinned to the current minute so
// relative expressions ("tomorrow") resolve the same way for the cache key and
// the service.
func (p *Pipeline) Parse(ctx context.Context, req client.Request) (*Result, error) {
	start := p.now()
	if req.ReferenceTime.IsZero() {
		req.ReferenceTime = start.Truncate(time.Minute)
	}
	loc := req.Location
	if loc == nil {
		loc = time.Local
	}
	key := requestKey(req)
	log := p.log.With(logger.String("cache_key", key))

	if p.cache != nil {
		raw, hit := p.cache.Get(ctx, key)
		p.observeCache(hit)
		if hit {
			entities, err := entity.Decode(raw, entity.WithLocation(loc))
			if err == nil {
				log.Debug("cache hit", logger.Int("entities", len(entities)))
				p.finish(metrics.OutcomeCached, start, entities)
				return &Result{Request: req, Entities: entities, Raw: raw, Cached: true, Elapsed: p.now().Sub(start)}, nil
			}
			log.Warn("dropping undecodable cache entry", logger.Error(err))
			_ = p.cache.Delete(ctx, key)
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.fetcher.Endpoint()); err != nil {
			p.finish(metrics.OutcomeRateLimited, start, nil)
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	raw, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		p.finish(metrics.OutcomeFetchError, start, nil)
		return nil, fmt.Errorf("fetch: %w", err)
	}

	entities, err := entity.Decode(raw, entity.WithLocation(loc))
	if err != nil {
		if p.metrics != nil {
			p.metrics.ObserveDecodeFailure(err)
		}
		p.finish(metrics.OutcomeDecodeError, start, nil)
		log.Warn("decode failed", logger.String("reason", entity.Reason(err)), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", client.ErrInvalidResponse, err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, raw, p.cacheTTL); err != nil {
			log.Warn("cache store failed", logger.Error(err))
		}
	}

	p.finish(metrics.OutcomeOK, start, entities)
	return &Result{Request: req, Entities: entities, Raw: raw, Elapsed: p.now().Sub(start)}, nil
}

func (p *Pipeline) observeCache(hit bool) {
	if p.metrics != nil {
		p.metrics.ObserveCache(hit)
	}
}

func (p *Pipeline) finish(outcome string, start time.Time, entities []entity.Entity) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveRequest(outcome, p.now().Sub(start))
	p.metrics.ObserveEntities(entities)
}

// requestKey covers every field that changes the service's answer
func requestKey(req client.Request) string {
	tz := ""
	if req.Location != nil {
		tz = req.Location.String()
	}
	dims := make([]string, len(req.Dimensions))
	for i, d := range req.Dimensions {
		dims[i] = string(d)
	}
	sort.Strings(dims)

	return cache.CacheKey(
		req.Text,
		tz,
		strings.Join(dims, ","),
		req.Locale,
		strconv.FormatInt(req.ReferenceTime.UnixMilli(), 10),
	)
}

// IsDecodeError reports whether err came from decoding rather than transport
func IsDecodeError(err error) bool {
	var de *entity.DecodeError
	return errors.As(err, &de)
}
