// Package fetch retrieves upstream ICS feeds over HTTP, per §6's upstream
// interface, trimmed of any disk-cache fallback: that concern belongs to
// internal/reconcile's last-known-good snapshot, per §7.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "calproxy/1.0 (+calendar reconciliation engine)"

// Result is the outcome of fetching one tenant's upstream feed.
type Result struct {
	StatusCode int
	Body       []byte
}

// Fetcher issues the upstream GET request described in §6: Accept:
// text/calendar, a vendor User-Agent, over a bounded-timeout client.
type Fetcher struct {
	client *http.Client
}

// New constructs a Fetcher with the given per-request timeout.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch performs the upstream GET. A non-2xx response is returned as a
// Result (not an error) so the caller can apply §7's fallback policy based
// on status; only transport-level failures are returned as errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: read body: %w", err)
	}

	return Result{StatusCode: resp.StatusCode, Body: body}, nil
}
