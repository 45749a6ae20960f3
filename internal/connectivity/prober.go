package connectivity

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultProbeURL answers 204 when the internet is reachable.
	DefaultProbeURL     = "https://clients3.google.com/generate_204"
	defaultProbeTimeout = 6 * time.Second
)

// HTTPProber probes a generate_204 style endpoint.
type HTTPProber struct {
	url    string
	client *http.Client
}

var _ Prober = (*HTTPProber)(nil)

// NewHTTPProber builds a prober with its own short-timeout client.
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	if url == "" {
		url = DefaultProbeURL
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	return &HTTPProber{
		url:    url,
		client: &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Probe reports true only for a 204 answer.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	return resp.StatusCode == http.StatusNoContent
}
