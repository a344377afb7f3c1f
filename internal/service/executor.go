package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"tubebatch/internal/console"
	"tubebatch/internal/core/domain"
	"tubebatch/internal/core/ports"
)

// Executor downloads a single job: fetch, exact quality match, persist, verify.
type Executor struct {
	fetcher ports.VideoFetcher
	writer  ports.StreamWriter
	storage ports.Storage
	logger  *log.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(fetcher ports.VideoFetcher, writer ports.StreamWriter, storage ports.Storage, logger *log.Logger) *Executor {
	return &Executor{
		fetcher: fetcher,
		writer:  writer,
		storage: storage,
		logger:  logger,
	}
}

// Execute runs one download attempt for job.
//
// It returns (true, nil) when the file exists after the write and (false, nil) for
// content the platform will not serve, e.g. age restricted videos. Every other
// failure is returned as a classified error: *domain.ProxyError,
// *domain.VideoNotFoundError or *domain.FilesystemError.
func (e *Executor) Execute(ctx context.Context, job domain.Job, proxy domain.ProxyConfig, outputDir string) (bool, error) {
	streams, err := e.fetcher.Fetch(ctx, job.VideoID, proxy)
	if err != nil {
		var unsupported *domain.UnsupportedContentError
		if errors.As(err, &unsupported) {
			e.logger.Printf("[JOB %d] Downloading %s failed because of %s", job.Index, job.Filename, unsupported.Reason)
			return false, nil
		}
		return false, err
	}

	stream, ok := selectStream(streams, job.Resolution, job.FPS)
	if !ok {
		return false, &domain.VideoNotFoundError{VideoID: job.VideoID}
	}

	e.logger.Printf("[JOB %d] Start downloading video: %s, filesize: %s MB",
		job.Index, console.Success(stream.Title), console.Highlight(fmt.Sprintf("%.2f", stream.SizeMiB())))

	dir, err := resolveOutputDir(outputDir)
	if err != nil {
		return false, err
	}
	if err := e.storage.EnsureDir(ctx, dir); err != nil {
		return false, err
	}

	dest := filepath.Join(dir, destinationName(job.Filename, stream.Ext))
	if err := e.writer.Write(ctx, stream, proxy, dest); err != nil {
		return false, err
	}
	if !e.storage.Exists(dest) {
		return false, &domain.FilesystemError{Op: "verify", Path: dest, Err: errors.New("file missing after write")}
	}
	return true, nil
}

// selectStream returns the first stream matching resolution and fps exactly.
func selectStream(streams []domain.Stream, resolution domain.Resolution, fps int) (domain.Stream, bool) {
	if resolution == domain.ResolutionUnsupported {
		return domain.Stream{}, false
	}
	for _, s := range streams {
		if s.Resolution == resolution && s.FPS == fps {
			return s, true
		}
	}
	return domain.Stream{}, false
}

func resolveOutputDir(dir string) (string, error) {
	if strings.TrimSpace(dir) != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", &domain.FilesystemError{Op: "resolve working directory", Path: ".", Err: err}
	}
	return wd, nil
}

// destinationName appends the stream extension when filename has none.
func destinationName(filename, ext string) string {
	if filepath.Ext(filename) != "" || ext == "" {
		return filename
	}
	return filename + "." + ext
}
