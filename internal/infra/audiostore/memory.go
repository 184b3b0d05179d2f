package audiostore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	domain "github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
)

// MemoryStorage keeps audio blobs in process memory, for tests and the
// memory backend. Blobs vanish on restart; a pending note then fails its
// transcription read with a storage error.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]audioBlob
}

type audioBlob struct {
	object domain.StoredObject
	data   []byte
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]audioBlob)}
}

// Put copies the blob in and returns its metadata. Callers may reuse the
// data slice afterwards.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	object := domain.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     contentETag(data),
	}
	owned := make([]byte, len(data))
	copy(owned, data)

	s.mu.Lock()
	s.blobs[key] = audioBlob{object: object, data: owned}
	s.mu.Unlock()
	return object, nil
}

// Get returns a reader over the stored blob.
func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no stored audio for key %q", key)
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Delete removes the blob. Unknown keys are not an error.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

var _ domain.ObjectStorage = (*MemoryStorage)(nil)

// contentETag mirrors the hex MD5 that S3-compatible stores report for
// single-part uploads, so tags stay consistent across backends.
func contentETag(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}
