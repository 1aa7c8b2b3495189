// Package linkcheck probes stored artwork URLs.
package linkcheck

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HealthyMax is the highest status code still treated as a working link
const HealthyMax = 209

// Healthy reports whether a probe status means the link still works
func Healthy(status int) bool {
	return status > 0 && status <= HealthyMax
}

// Prober issues GET requests against image URLs
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// NewProber creates a prober; a zero timeout means only the caller's context applies
func NewProber(timeout time.Duration) *Prober {
	return &Prober{client: &http.Client{}, timeout: timeout}
}

// WithHTTPClient replaces the underlying HTTP client
func (p *Prober) WithHTTPClient(c *http.Client) *Prober {
	p.client = c
	return p
}

// Probe returns the status code of a GET to url. The body is discarded.
func (p *Prober) Probe(ctx context.Context, url string) (int, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	return resp.StatusCode, nil
}
