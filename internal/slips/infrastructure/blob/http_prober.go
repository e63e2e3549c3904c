package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPProber checks blob existence with HEAD requests against the
// store that serves slip URLs.
type HTTPProber struct {
	client *http.Client
}

// ProberOption configures the prober.
type ProberOption func(*HTTPProber)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ProberOption {
	return func(p *HTTPProber) {
		if client != nil {
			p.client = client
		}
	}
}

// NewHTTPProber constructs a prober.
func NewHTTPProber(opts ...ProberOption) *HTTPProber {
	prober := &HTTPProber{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(prober)
	}
	return prober
}

// Exists issues a HEAD request. 2xx means present, 404/410 absent,
// anything else is a probe error. A transient failure gets one
// immediate retry before the error is surfaced.
func (p *HTTPProber) Exists(ctx context.Context, ref string) (bool, error) {
	if p == nil || p.client == nil {
		return false, errors.New("blob prober: nil client")
	}
	if ref == "" {
		return false, errors.New("blob prober: empty ref")
	}
	present, err := p.probe(ctx, ref)
	if err != nil && ctx.Err() == nil {
		present, err = p.probe(ctx, ref)
	}
	return present, err
}

func (p *HTTPProber) probe(ctx context.Context, ref string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ref, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	default:
		return false, fmt.Errorf("blob prober: unexpected status %d", resp.StatusCode)
	}
}
