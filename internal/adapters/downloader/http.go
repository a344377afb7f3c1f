package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tubebatch/internal/core/domain"
)

// HTTPDownloader implements ports.Downloader using standard HTTP through the configured proxy.
type HTTPDownloader struct {
	timeout time.Duration
}

// NewHTTPDownloader creates a new HTTPDownloader.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		timeout: 30 * time.Minute, // Videos can be large
	}
}

// Download fetches the media from the given URL.
// Connection-level failures are reported as *domain.ProxyError.
func (d *HTTPDownloader) Download(ctx context.Context, mediaURL string, proxy domain.ProxyConfig) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client(proxy).Do(req)
	if err != nil {
		return nil, &domain.ProxyError{Err: fmt.Errorf("failed to download video: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (d *HTTPDownloader) client(proxy domain.ProxyConfig) *http.Client {
	transport := &http.Transport{DisableKeepAlives: true}
	if proxy.HTTP != nil || proxy.HTTPS != nil {
		transport.Proxy = proxy.ProxyFunc()
	}
	return &http.Client{
		Timeout:   d.timeout,
		Transport: transport,
	}
}
