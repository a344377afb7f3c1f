package service

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"tubebatch/internal/core/domain"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	streams []domain.Stream
	err     error
}

func (f *stubFetcher) Fetch(ctx context.Context, videoID string, proxy domain.ProxyConfig) ([]domain.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.streams, f.err
}

// fileWriter writes the stream URL as file content. With skip set it reports
// success without creating the file.
type fileWriter struct {
	mu    sync.Mutex
	dests []string
	err   error
	skip  bool
}

func (w *fileWriter) Write(ctx context.Context, stream domain.Stream, proxy domain.ProxyConfig, dest string) error {
	w.mu.Lock()
	w.dests = append(w.dests, dest)
	w.mu.Unlock()
	if w.err != nil || w.skip {
		return w.err
	}
	return os.WriteFile(dest, []byte(stream.URL), 0o644)
}

type attemptResult struct {
	ok  bool
	err error
}

// scriptedRunner returns the scripted results in order and repeats the last one.
type scriptedRunner struct {
	mu     sync.Mutex
	script []attemptResult
	calls  int
}

func (r *scriptedRunner) Execute(ctx context.Context, job domain.Job, proxy domain.ProxyConfig, outputDir string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := min(r.calls, len(r.script)-1)
	r.calls++
	return r.script[i].ok, r.script[i].err
}

type stubDownloader struct {
	mu    sync.Mutex
	calls int
	errs  []error
	body  string
}

func (d *stubDownloader) Download(ctx context.Context, mediaURL string, proxy domain.ProxyConfig) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	return io.NopCloser(strings.NewReader(d.body)), nil
}
