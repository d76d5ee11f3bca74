package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Health polling defaults, matching the backend supervisor.
const (
	DefaultReadyTimeout  = 30 * time.Second
	DefaultReadyInterval = 100 * time.Millisecond
)

// HealthStatus is the liveness probe response.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the backend declared itself healthy.
func (h HealthStatus) OK() bool {
	return h.Status == "ok"
}

// Health probes the backend once.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ensureSlash(c.healthPath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TransportError{Op: "status", StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(body))}
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &status, nil
}

// WaitReady polls Health until it succeeds or timeout elapses.
// A zero timeout means DefaultReadyTimeout.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) (*HealthStatus, error) {
	return c.waitReady(ctx, timeout, DefaultReadyInterval)
}

func (c *Client) waitReady(ctx context.Context, timeout, interval time.Duration) (*HealthStatus, error) {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		status, err := c.Health(ctx)
		if err == nil {
			c.log.Info("backend is ready", "message", status.Message)
			return status, nil
		}
		lastErr = err
		c.log.Debug("backend not ready", "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("backend failed to become ready within %s: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}
