package notes

import (
	"time"

	"github.com/google/uuid"

	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/summarizer"
)

// Status tracks a note through the transcription pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Note represents one uploaded recording and everything derived from it.
type Note struct {
	ID            uuid.UUID           `json:"id"`
	Filename      string              `json:"filename"`
	AudioKey      string              `json:"-"`
	SizeBytes     int64               `json:"sizeBytes"`
	MimeType      string              `json:"mimeType,omitempty"`
	Status        Status              `json:"status"`
	Transcript    string              `json:"-"`
	Summary       *summarizer.Summary `json:"summary,omitempty"`
	ActionItems   []string            `json:"actionItems,omitempty"`
	FailureReason *string             `json:"failureReason,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}
