package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/duckling/internal/client"
	"github.com/ppiankov/duckling/internal/entity"
	"github.com/ppiankov/duckling/internal/logger"
	"github.com/ppiankov/duckling/internal/model"
	"github.com/ppiankov/duckling/internal/pipeline"
)

// Parser resolves one request; *pipeline.Pipeline implements it
type Parser interface {
	Parse(ctx context.Context, req client.Request) (*pipeline.Result, error)
}

// ParseRequest is the JSON body of POST /v1/parse
type ParseRequest struct {
	Text          string   `json:"text" binding:"required"`
	TimeZone      string   `json:"tz"`
	Dimensions    []string `json:"dims"`
	Locale        string   `json:"locale"`
	ReferenceTime int64    `json:"reftime"` // Unix millis; 0 means now
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Pinger checks the upstream service; *client.Client implements it
type Pinger interface {
	Ping(ctx context.Context) client.PingResult
}

// ErrBodyTooLarge is returned when a /v1/decode body exceeds the limit
var ErrBodyTooLarge = errors.New("request body too large")

type handler struct {
	parser   Parser
	pinger   Pinger
	location *time.Location
	maxBody  int64
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready reports whether the upstream service answers
func (h *handler) ready(c *gin.Context) {
	res := h.pinger.Ping(c.Request.Context())
	status := http.StatusOK
	if !res.Reachable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, res)
}

func (h *handler) parse(c *gin.Context) {
	var body ParseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	req, err := body.toRequest(h.location)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	res, err := h.parser.Parse(c.Request.Context(), req)
	if err != nil {
		status, code := classify(err)
		h.fail(c, status, code, err)
		return
	}

	c.JSON(http.StatusOK, res.Report())
}

// decode takes a raw Duckling response body and returns the typed entities
func (h *handler) decode(c *gin.Context) {
	loc, err := location(c.Query("tz"), h.location)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBody+1))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if int64(len(raw)) > h.maxBody {
		h.fail(c, http.StatusRequestEntityTooLarge, "INVALID_REQUEST",
			fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, h.maxBody))
		return
	}

	entities, err := entity.Decode(raw, entity.WithLocation(loc))
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, "DECODE_ERROR", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entities": entities,
		"summary":  model.Summarize(entities),
	})
}

func (b ParseRequest) toRequest(fallback *time.Location) (client.Request, error) {
	loc, err := location(b.TimeZone, fallback)
	if err != nil {
		return client.Request{}, err
	}

	req := client.Request{Text: b.Text, Location: loc, Locale: b.Locale}
	for _, raw := range b.Dimensions {
		dim, ok := entity.ParseDimension(raw)
		if !ok {
			return client.Request{}, &entity.DecodeError{Kind: entity.ErrUnknownDimension, Raw: raw}
		}
		req.Dimensions = append(req.Dimensions, dim)
	}
	if b.ReferenceTime > 0 {
		req.ReferenceTime = time.UnixMilli(b.ReferenceTime)
	}
	return req, nil
}

// location resolves an IANA zone name; empty means the server's configured zone
func location(name string, fallback *time.Location) (*time.Location, error) {
	if name == "" {
		return fallback, nil
	}
	return time.LoadLocation(name)
}

// classify maps pipeline failures to an HTTP status and error code
func classify(err error) (int, string) {
	var se *client.StatusError
	switch {
	case pipeline.IsDecodeError(err):
		return http.StatusBadGateway, "DECODE_ERROR"
	case errors.As(err, &se):
		return http.StatusBadGateway, "UPSTREAM_STATUS"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case errors.Is(err, client.ErrFailedResponse):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "PARSE_ERROR"
	}
}

func (h *handler) fail(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		Reason:    entity.Reason(err),
		Timestamp: time.Now().UTC(),
	}
	logger.FromContext(c.Request.Context()).Info("request rejected",
		logger.Int("status", status),
		logger.String("code", code),
		logger.String("reason", resp.Reason),
		logger.Error(err))
	c.JSON(status, resp)
}
