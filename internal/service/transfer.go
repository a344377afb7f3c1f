package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tubebatch/internal/core/domain"
	"tubebatch/internal/core/ports"
)

// DefaultTransferRetries is the number of low-level retries of a single stream transfer.
const DefaultTransferRetries = 3

// Transfer implements ports.StreamWriter by piping a Downloader into Storage.
type Transfer struct {
	downloader ports.Downloader
	storage    ports.Storage
	retries    int
	backoff    time.Duration
	logger     *log.Logger
}

// NewTransfer creates a Transfer with DefaultTransferRetries and a one second backoff.
func NewTransfer(downloader ports.Downloader, storage ports.Storage, logger *log.Logger) *Transfer {
	return &Transfer{
		downloader: downloader,
		storage:    storage,
		retries:    DefaultTransferRetries,
		backoff:    time.Second,
		logger:     logger,
	}
}

// WithBackoff sets the pause between transfer retries.
func (t *Transfer) WithBackoff(d time.Duration) *Transfer {
	t.backoff = d
	return t
}

// Write downloads the stream to dest. Interrupted transfers are retried up to
// t.retries times; filesystem errors are returned immediately.
func (t *Transfer) Write(ctx context.Context, stream domain.Stream, proxy domain.ProxyConfig, dest string) error {
	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(t.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			t.logger.Printf("Retrying transfer to %s, attempt %d", dest, attempt+1)
		}

		err := t.writeOnce(ctx, stream, proxy, dest)
		if err == nil {
			return nil
		}
		lastErr = err

		var fsErr *domain.FilesystemError
		if errors.As(err, &fsErr) {
			return err
		}
		t.logger.Printf("Transfer attempt %d to %s failed: %v", attempt+1, dest, err)
	}
	return fmt.Errorf("transfer failed after %d attempts: %w", t.retries+1, lastErr)
}

func (t *Transfer) writeOnce(ctx context.Context, stream domain.Stream, proxy domain.ProxyConfig, dest string) error {
	body, err := t.downloader.Download(ctx, stream.URL, proxy)
	if err != nil {
		return err
	}
	defer body.Close()
	return t.storage.SaveVideo(ctx, dest, body)
}
