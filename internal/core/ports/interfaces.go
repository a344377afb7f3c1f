package ports

import (
	"context"
	"io"

	"tubebatch/internal/core/domain"
)

// JobSource produces the ordered job list for a run.
type JobSource interface {
	// Jobs returns every job in source order with Index set to its position.
	Jobs(ctx context.Context) ([]domain.Job, error)
}

// ProxyValidator builds the proxy configuration and optionally probes it.
type ProxyValidator interface {
	// Validate always returns the config built from host and port.
	// ok is false only when probe is set and the probe did not return 200.
	Validate(ctx context.Context, host string, port int, probe bool) (bool, domain.ProxyConfig)
}

// VideoFetcher defines the contract for listing the streams of a video.
type VideoFetcher interface {
	// Fetch returns the offered streams in platform order.
	// Failures are *domain.ProxyError, *domain.UnsupportedContentError or plain errors.
	Fetch(ctx context.Context, videoID string, proxy domain.ProxyConfig) ([]domain.Stream, error)
}

// Downloader defines the contract for opening a stream's media bytes.
type Downloader interface {
	// Download fetches the media from the given URL through the proxy.
	// Returns a ReadCloser that the caller must close.
	Download(ctx context.Context, mediaURL string, proxy domain.ProxyConfig) (io.ReadCloser, error)
}

// Storage defines the contract for persisting files.
type Storage interface {
	// EnsureDir creates the directory recursively if absent.
	EnsureDir(ctx context.Context, dir string) error

	// SaveVideo writes the reader to path, replacing any existing file.
	SaveVideo(ctx context.Context, path string, reader io.Reader) error

	// Exists reports whether a regular file is present at path.
	Exists(path string) bool

	// SaveJSON writes v as indented JSON atomically.
	SaveJSON(ctx context.Context, path string, v any) error
}

// StreamWriter persists a selected stream to a destination path.
type StreamWriter interface {
	Write(ctx context.Context, stream domain.Stream, proxy domain.ProxyConfig, dest string) error
}
