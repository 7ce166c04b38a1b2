// Package fetch provides the polite HTTP client shared by the discovery
// and enrichment layers: one user agent, one timeout, and an explicit
// per-domain minimum interval between requests.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 15 * time.Second

// MaxBodyBytes caps how much of a response body is read. Contact pages
// are small; anything larger is truncated, not an error.
const MaxBodyBytes = 2 << 20

// Gate enforces a minimum interval between requests to the same host.
type Gate struct {
	mu   sync.Mutex
	min  time.Duration
	last map[string]time.Time
}

// NewGate creates a gate with the given minimum per-host interval.
func NewGate(min time.Duration) *Gate {
	return &Gate{min: min, last: make(map[string]time.Time)}
}

// Wait blocks until the host's minimum interval has elapsed or the context
// is cancelled. It records the reserved slot before sleeping, so concurrent
// callers queue up rather than stampede.
func (g *Gate) Wait(ctx context.Context, host string) error {
	if g == nil || g.min <= 0 {
		return nil
	}

	g.mu.Lock()
	now := time.Now()
	next := g.last[host].Add(g.min)
	if next.Before(now) {
		next = now
	}
	g.last[host] = next
	g.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// Client is an HTTP client with a fixed user agent and a politeness gate.
type Client struct {
	http      *http.Client
	userAgent string
	gate      *Gate
}

// NewClient creates a polite HTTP client. minInterval is the per-host
// request spacing; zero disables the gate.
func NewClient(userAgent string, minInterval time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: userAgent,
		gate:      NewGate(minInterval),
	}
}

// Get fetches a URL and returns the response body. Non-200 responses are
// errors; callers that tolerate unreachable pages handle them per page.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s failed: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	if err := c.gate.Wait(ctx, req.URL.Host); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("Client.Get: non-200 response", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s failed: %w", url, err)
	}
	return body, nil
}
