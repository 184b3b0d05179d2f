package notes

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ObjectStorage abstracts audio blob storage (local disk/S3/memory).
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NoteRepository persists note metadata and derived artifacts.
type NoteRepository interface {
	Create(ctx context.Context, note Note) error
	Update(ctx context.Context, note Note) error
	Get(ctx context.Context, id uuid.UUID) (Note, bool, error)
	List(ctx context.Context) ([]Note, error)
}

// JobQueue enqueues transcription tasks.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}
