package audiostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
)

// LocalStorage persists audio files under a base directory on disk.
// On hosts with a mounted persistent disk the uploads survive restarts.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage constructs storage rooted at baseDir, creating it if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "data/audio"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Put writes the blob to disk and returns metadata.
func (s *LocalStorage) Put(_ context.Context, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	path, err := s.resolve(key)
	if err != nil {
		return domain.StoredObject{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.StoredObject{}, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.StoredObject{}, fmt.Errorf("write audio file: %w", err)
	}
	return domain.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     contentETag(data),
	}, nil
}

// Get opens the stored file for reading.
func (s *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the stored file. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// resolve maps a storage key onto the base directory, rejecting path escapes.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ domain.ObjectStorage = (*LocalStorage)(nil)
