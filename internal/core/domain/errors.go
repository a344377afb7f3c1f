package domain

import (
	"errors"
	"fmt"
)

// ProxyError reports that the proxy refused or could not complete a request.
// It is the only transient failure.
type ProxyError struct {
	Err error
}

func (e *ProxyError) Error() string {
	if e.Err == nil {
		return "proxy error"
	}
	return fmt.Sprintf("proxy error: %v", e.Err)
}

func (e *ProxyError) Unwrap() error { return e.Err }

// VideoNotFoundError reports that no stream matches the requested quality.
type VideoNotFoundError struct {
	VideoID string
}

func (e *VideoNotFoundError) Error() string {
	return fmt.Sprintf("no video found %s", e.VideoID)
}

// UnsupportedContentError reports content the platform refuses to serve, e.g. age restricted videos.
type UnsupportedContentError struct {
	VideoID string
	Reason  string
}

func (e *UnsupportedContentError) Error() string {
	return fmt.Sprintf("unsupported content %s: %s", e.VideoID, e.Reason)
}

// FilesystemError reports that a destination could not be created or written.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// Classify maps an error onto the retry policy.
// Anything that is not a ProxyError is fatal.
func Classify(err error) Classification {
	if err == nil {
		return ClassNone
	}
	var proxyErr *ProxyError
	if errors.As(err, &proxyErr) {
		return ClassTransient
	}
	return ClassFatal
}
