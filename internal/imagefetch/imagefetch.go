// Package imagefetch downloads remote images (logos, signatures) with a hard timeout.
package imagefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher retrieves image bytes from a URL
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// DefaultTimeout bounds a single fetch
const DefaultTimeout = 5 * time.Second

const maxImageBytes = 5 << 20

// HTTPFetcher fetches over HTTP(S)
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// New creates a fetcher; timeout <= 0 means DefaultTimeout
func New(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Get downloads url, rejecting non-2xx responses, non-image bodies and oversized bodies
func (f *HTTPFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("unsupported image url %q", url)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image at %s exceeds %d bytes", url, maxImageBytes)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", url, ct)
	}
	return data, nil
}
