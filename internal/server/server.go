// Package server exposes the parse pipeline as a small HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/duckling/internal/client"
	"github.com/ppiankov/duckling/internal/logger"
	"github.com/ppiankov/duckling/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Options wires a Server
type Options struct {
	Listen       string
	Parser       Parser
	Pinger       Pinger           // nil disables /ready
	Metrics      *metrics.Metrics // nil disables /metrics
	Logger       logger.Logger
	Location     *time.Location // zone for requests without tz; nil means time.Local
	MaxBodyBytes int64          // /v1/decode body limit; zero means client.DefaultMaxBodyBytes
	Debug        bool
}

// Server is the HTTP sidecar
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    logger.Logger
}

// New builds the router and HTTP server
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = client.DefaultMaxBodyBytes
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(opts.Logger))

	h := &handler{
		parser:   opts.Parser,
		pinger:   opts.Pinger,
		location: opts.Location,
		maxBody:  opts.MaxBodyBytes,
	}
	router.GET("/health", h.health)
	if opts.Pinger != nil {
		router.GET("/ready", h.ready)
	}
	v1 := router.Group("/v1")
	{
		v1.POST("/parse", h.parse)
		v1.POST("/decode", h.decode)
	}
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              opts.Listen,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: opts.Logger,
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", logger.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// loggerMiddleware stores a request-scoped logger in the request context and
// logs one line per request
func loggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With(
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
		)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		fields := []logger.Field{
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			reqLog.Warn("HTTP request failed", fields...)
			return
		}
		reqLog.Debug("HTTP request", fields...)
	}
}
