package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PingResult describes one reachability check of the service root
type PingResult struct {
	URL        string        `json:"url"`
	Reachable  bool          `json:"reachable"`
	StatusCode int           `json:"status_code,omitempty"`
	Greeting   string        `json:"greeting,omitempty"` // the service answers "quack!"
	Latency    time.Duration `json:"latency_ns"`
	Error      string        `json:"error,omitempty"`
}

// Ping checks that the service answers on its root URL. It never retries:
// callers poll it.
func (c *Client) Ping(ctx context.Context) PingResult {
	result := PingResult{URL: c.root}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.root, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	result.Greeting = strings.TrimSpace(string(body))

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Reachable = true
	} else {
		result.Error = fmt.Sprintf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return result
}
