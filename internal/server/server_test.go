package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/duckling/internal/client"
	"github.com/ppiankov/duckling/internal/entity"
	"github.com/ppiankov/duckling/internal/logger"
	"github.com/ppiankov/duckling/internal/metrics"
	"github.com/ppiankov/duckling/internal/model"
	"github.com/ppiankov/duckling/internal/pipeline"
)

const distanceResponse = `[{"dim":"distance","body":"over 5 inches","start":0,"end":13,"value":{"type":"interval","from":{"value":5,"unit":"inch"}}}]`

type stubFetcher struct {
	body string
	err  error
	last client.Request
}

func (s *stubFetcher) Fetch(_ context.Context, req client.Request) ([]byte, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func (s *stubFetcher) Endpoint() string { return "http://localhost:8000/parse" }

func newTestServer(f *stubFetcher) (*Server, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	p := pipeline.New(pipeline.Options{Fetcher: f, Metrics: m})
	return New(Options{Listen: ":0", Parser: p, Metrics: m}), m
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(&stubFetcher{})
	w := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestParse_ReturnsReport(t *testing.T) {
	f := &stubFetcher{body: distanceResponse}
	s, _ := newTestServer(f)

	w := do(t, s, http.MethodPost, "/v1/parse",
		`{"text":"over 5 inches","tz":"America/Los_Angeles","dims":["distance"],"locale":"en_US","reftime":1520452800000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct {
		Text     string          `json:"text"`
		TimeZone string          `json:"timezone"`
		Entities json.RawMessage `json:"entities"`
		Summary  model.Summary   `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "over 5 inches", report.Text)
	assert.Equal(t, 1, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.ByDimension["distance"])
	assert.Contains(t, string(report.Entities), `"inch"`)

	assert.Equal(t, "America/Los_Angeles", f.last.Location.String())
	assert.Equal(t, []entity.Dimension{entity.DimensionDistance}, f.last.Dimensions)
	assert.Equal(t, "en_US", f.last.Locale)
	assert.Equal(t, int64(1520452800000), f.last.ReferenceTime.UnixMilli())
}

func TestParse_InvalidRequests(t *testing.T) {
	s, _ := newTestServer(&stubFetcher{body: "[]"})

	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"malformed body", `{"text":`, ""},
		{"missing text", `{"tz":"UTC"}`, ""},
		{"unknown zone", `{"text":"x","tz":"Mars/Olympus"}`, ""},
		{"unknown dimension", `{"text":"x","dims":["color"]}`, "unknown_dimension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/parse", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "INVALID_REQUEST", resp.Code)
			assert.Equal(t, tt.reason, resp.Reason)
			assert.NotEmpty(t, resp.Error)
			assert.False(t, resp.Timestamp.IsZero())
		})
	}
}

func TestParse_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		fetch  *stubFetcher
		status int
		code   string
		reason string
	}{
		{
			name:   "decode error",
			fetch:  &stubFetcher{body: `[{"dim":"time","body":"x","start":0,"end":1,"value":{"type":"value","grain":"hour","value":"yesterday"}}]`},
			status: http.StatusBadGateway,
			code:   "DECODE_ERROR",
			reason: "invalid_date",
		},
		{
			name:   "service status",
			fetch:  &stubFetcher{err: &client.StatusError{Code: http.StatusServiceUnavailable}},
			status: http.StatusBadGateway,
			code:   "UPSTREAM_STATUS",
		},
		{
			name:   "connection failure",
			fetch:  &stubFetcher{err: fmt.Errorf("%w: connection refused", client.ErrFailedResponse)},
			status: http.StatusBadGateway,
			code:   "UPSTREAM_UNAVAILABLE",
		},
		{
			name:   "timeout",
			fetch:  &stubFetcher{err: fmt.Errorf("%w: %w", client.ErrFailedResponse, context.DeadlineExceeded)},
			status: http.StatusGatewayTimeout,
			code:   "UPSTREAM_TIMEOUT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(tt.fetch)
			w := do(t, s, http.MethodPost, "/v1/parse", `{"text":"x"}`)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestDecode_RawResponse(t *testing.T) {
	s, _ := newTestServer(&stubFetcher{})

	body := `[{"dim":"time","body":"at 6pm","start":0,"end":6,"value":{"type":"value","grain":"hour","value":"2018-03-07T18:00:00.000-07:00"}}]`
	w := do(t, s, http.MethodPost, "/v1/decode?tz=Asia/Tokyo", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Entities []json.RawMessage `json:"entities"`
		Summary  model.Summary     `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Entities, 1)
	assert.Equal(t, 1, resp.Summary.ByDimension["time"])
}

func TestDecode_Rejects(t *testing.T) {
	s, _ := newTestServer(&stubFetcher{})

	w := do(t, s, http.MethodPost, "/v1/decode", `{"not":"an array"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "malformed_json", decodeError(t, w).Reason)

	w = do(t, s, http.MethodPost, "/v1/decode?tz=Nowhere/Land", `[]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(&stubFetcher{body: distanceResponse})

	w := do(t, s, http.MethodPost, "/v1/parse", `{"text":"over 5 inches"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `outcome="ok"`)
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	s := New(Options{Parser: pipeline.New(pipeline.Options{Fetcher: &stubFetcher{}})})
	w := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := New(Options{Listen: "127.0.0.1:0", Parser: pipeline.New(pipeline.Options{Fetcher: &stubFetcher{}})})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "server did not shut down")
	}
}

type stubPinger struct{ res client.PingResult }

func (s stubPinger) Ping(context.Context) client.PingResult { return s.res }

func TestReady(t *testing.T) {
	p := pipeline.New(pipeline.Options{Fetcher: &stubFetcher{}})

	up := New(Options{Parser: p, Pinger: stubPinger{client.PingResult{URL: "http://duckling:8000/", Reachable: true, StatusCode: 200}}})
	w := do(t, up, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reachable":true`)

	down := New(Options{Parser: p, Pinger: stubPinger{client.PingResult{URL: "http://duckling:8000/", Error: "request failed"}}})
	w = do(t, down, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	none := New(Options{Parser: p})
	w = do(t, none, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecode_BodyTooLarge(t *testing.T) {
	s := New(Options{Parser: pipeline.New(pipeline.Options{Fetcher: &stubFetcher{}}), MaxBodyBytes: 64})

	w := do(t, s, http.MethodPost, "/v1/decode", distanceResponse)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
	assert.Contains(t, resp.Error, "too large")
	assert.Empty(t, resp.Reason)

	w = do(t, s, http.MethodPost, "/v1/decode", "[]")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDecode_LargeValidBodyWithinLimit(t *testing.T) {
	const item = `{"dim":"number","body":"5","start":0,"end":1,"value":{"value":5}}`
	n := client.DefaultMaxBodyBytes/(len(item)+1) - 1
	body := "[" + strings.TrimSuffix(strings.Repeat(item+",", n), ",") + "]"
	require.LessOrEqual(t, len(body), client.DefaultMaxBodyBytes)

	s, _ := newTestServer(&stubFetcher{})
	w := do(t, s, http.MethodPost, "/v1/decode", body)
	require.Equal(t, http.StatusOK, w.Code)

	over := body + strings.Repeat(" ", client.DefaultMaxBodyBytes-len(body)+1)
	w = do(t, s, http.MethodPost, "/v1/decode", over)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestParse_EmptyZoneUsesConfiguredLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	f := &stubFetcher{body: "[]"}
	s := New(Options{Parser: pipeline.New(pipeline.Options{Fetcher: f}), Location: tokyo})

	w := do(t, s, http.MethodPost, "/v1/parse", `{"text":"tomorrow"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Asia/Tokyo", f.last.Location.String())

	unset := New(Options{Parser: pipeline.New(pipeline.Options{Fetcher: f})})
	w = do(t, unset, http.MethodPost, "/v1/parse", `{"text":"tomorrow"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Local, f.last.Location)
}

func TestRequestLoggerCarriesRoute(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := New(Options{
		Parser: pipeline.New(pipeline.Options{Fetcher: &stubFetcher{}}),
		Logger: logger.NewZap(zap.New(core)),
	})

	w := do(t, s, http.MethodPost, "/v1/parse", `{"text":"x","tz":"Mars/Olympus"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	rejected := logs.FilterMessage("request rejected").All()
	require.Len(t, rejected, 1)
	fields := rejected[0].ContextMap()
	assert.Equal(t, "/v1/parse", fields["path"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "INVALID_REQUEST", fields["code"])
}
