// Package client talks to a Duckling HTTP service and decodes its responses.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/duckling/internal/entity"
	"github.com/ppiankov/duckling/internal/logger"
	"github.com/ppiankov/duckling/internal/util"
)

var (
	// ErrFailedToConstructURL means the parse endpoint could not be derived from the base URL
	ErrFailedToConstructURL = errors.New("failed to construct URL")
	// ErrFailedResponse means no HTTP response arrived (connection, TLS or timeout failure)
	ErrFailedResponse = errors.New("failed response")
	// ErrInvalidResponse means a response arrived but was not a decodable 200
	ErrInvalidResponse = errors.New("invalid response")
)

// StatusError reports a non-200 reply
type StatusError struct {
	Code       int
	Body       string        // leading part of the reply, for diagnostics
	RetryAfter time.Duration // from the Retry-After header, if any
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("unexpected status: %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrInvalidResponse
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

const (
	DefaultTimeout      = 10 * time.Second
	DefaultUserAgent    = "duckling-go/0.1"
	DefaultMaxBodyBytes = 4 << 20
	DefaultMaxRetries   = 2

	maxBackoff = 8 * time.Second
)

// retrySleep is swapped out in tests
var retrySleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	MaxRetries   int // extra attempts after the first; negative disables retries
	HTTPProxy    string
	HTTPSProxy   string
	Logger       logger.Logger
}

// Client is safe for concurrent use
type Client struct {
	endpoint   string
	root       string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	log        logger.Logger
}

// New validates the base URL and builds the HTTP transport
func New(opts Options) (*Client, error) {
	endpoint, err := parseEndpoint(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	proxy, err := util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy)
	if err != nil {
		return nil, fmt.Errorf("configure proxy: %w", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy

	return &Client{
		endpoint: endpoint,
		root:     strings.TrimSuffix(endpoint, "parse"),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent:  opts.UserAgent,
		maxBytes:   opts.MaxBodyBytes,
		maxRetries: opts.MaxRetries,
		log:        opts.Logger.With(logger.String("endpoint", endpoint)),
	}, nil
}

// parseEndpoint resolves "/parse" against the base URL
func parseEndpoint(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToConstructURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: base URL %q needs an http(s) scheme and host", ErrFailedToConstructURL, base)
	}
	return u.ResolveReference(&url.URL{Path: "/parse"}).String(), nil
}

// Endpoint returns the resolved parse URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Request is one sentence to parse
type Request struct {
	Text          string
	Location      *time.Location     // nil means time.Local
	Dimensions    []entity.Dimension // empty means every dimension
	Locale        string             // e.g. en_GB; empty lets the service choose
	ReferenceTime time.Time          // zero means the service's now
}

func (r Request) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Form encodes the request body. The "Local" pseudo zone has no IANA name, so
// tz is left out and the service falls back to its own default.
func (r Request) Form() url.Values {
	form := url.Values{}
	form.Set("text", r.Text)
	if tz := r.location().String(); tz != "Local" {
		form.Set("tz", tz)
	}
	if len(r.Dimensions) > 0 {
		dims := make([]string, len(r.Dimensions))
		for i, d := range r.Dimensions {
			dims[i] = string(d)
		}
		raw, _ := json.Marshal(dims)
		form.Set("dims", string(raw))
	}
	if r.Locale != "" {
		form.Set("locale", r.Locale)
	}
	if !r.ReferenceTime.IsZero() {
		form.Set("reftime", strconv.FormatInt(r.ReferenceTime.UnixMilli(), 10))
	}
	return form
}

// Fetch posts the request and returns the raw response body. Transient
// failures (connection errors, 429 and 5xx) are retried with backoff.
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt, lastErr)
			c.log.Warn("retrying parse request",
				logger.Int("attempt", attempt+1),
				logger.Duration("delay", delay),
				logger.Error(lastErr))
			if err := retrySleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFailedResponse, err)
			}
		}

		body, err := c.fetchOnce(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, req Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(req.Form().Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToConstructURL, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedResponse, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFailedResponse, err)
	}

	c.log.Debug("parse response",
		logger.Int("status", resp.StatusCode),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(body), RetryAfter: retryAfter(resp)}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidResponse, c.maxBytes)
	}

	return body, nil
}

// Parse fetches and decodes. Decode failures satisfy errors.Is for both
// ErrInvalidResponse and the precise entity error kind.
func (c *Client) Parse(ctx context.Context, req Request) ([]entity.Entity, error) {
	body, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	entities, err := entity.Decode(body, entity.WithLocation(req.location()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return entities, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return errors.Is(err, ErrFailedResponse)
}

func backoff(attempt int, lastErr error) time.Duration {
	var se *StatusError
	if errors.As(lastErr, &se) && se.RetryAfter > 0 {
		return min(se.RetryAfter, maxBackoff)
	}
	d := 250 * time.Millisecond << (attempt - 1)
	return min(d, maxBackoff)
}

func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
