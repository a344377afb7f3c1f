package localstorage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tubebatch/internal/core/domain"
)

// LocalStorage implements ports.Storage for the local filesystem.
type LocalStorage struct{}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// EnsureDir creates the directory and its parents.
func (s *LocalStorage) EnsureDir(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &domain.FilesystemError{Op: "create directory", Path: dir, Err: err}
	}
	return nil
}

// SaveVideo saves the video file.
func (s *LocalStorage) SaveVideo(ctx context.Context, path string, reader io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return &domain.FilesystemError{Op: "create video file", Path: path, Err: err}
	}
	defer file.Close()

	dst := &trackedWriter{w: file}
	if _, err := io.Copy(dst, reader); err != nil {
		if dst.err != nil {
			return &domain.FilesystemError{Op: "write video file", Path: path, Err: dst.err}
		}
		return fmt.Errorf("failed to write video file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return &domain.FilesystemError{Op: "close video file", Path: path, Err: err}
	}
	return nil
}

// Exists reports whether a regular file exists at path.
func (s *LocalStorage) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// SaveJSON writes v as indented JSON through a temp file and rename.
func (s *LocalStorage) SaveJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &domain.FilesystemError{Op: "create directory", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".tubebatch-tmp-*")
	if err != nil {
		return &domain.FilesystemError{Op: "create temp file", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &domain.FilesystemError{Op: "write temp file", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &domain.FilesystemError{Op: "close temp file", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return &domain.FilesystemError{Op: "chmod temp file", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &domain.FilesystemError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// trackedWriter remembers the last write error so copy failures on the
// destination side can be told apart from read failures.
type trackedWriter struct {
	w   io.Writer
	err error
}

func (t *trackedWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
