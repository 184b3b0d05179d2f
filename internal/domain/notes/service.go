package notes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/summarizer"
	apperrors "github.com/mitchellalderson/render-note-taker-agent/pkg/errors"
	"github.com/mitchellalderson/render-note-taker-agent/pkg/util"
)

// JobTranscribe names the queue task that transcribes an uploaded note.
const JobTranscribe = "note.transcribe"

// Config drives upload validation.
type Config struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// Service orchestrates the note lifecycle from upload to summary.
type Service struct {
	cfg         Config
	repo        NoteRepository
	storage     ObjectStorage
	transcriber Transcriber
	summarizer  summarizer.Service
	queue       JobQueue
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs a Service.
func NewService(cfg Config, repo NoteRepository, storage ObjectStorage, transcriber Transcriber, sum summarizer.Service, queue JobQueue, logger *slog.Logger) *Service {
	return &Service{
		cfg:         cfg,
		repo:        repo,
		storage:     storage,
		transcriber: transcriber,
		summarizer:  sum,
		queue:       queue,
		logger:      logger.With("component", "notes.service"),
		now:         util.NowUTC,
	}
}

// UploadRequest captures a multipart audio submission.
type UploadRequest struct {
	Filename string
	MimeType string
	Content  []byte
}

// CreateFromUpload stores the audio blob, persists the note, and enqueues transcription.
func (s *Service) CreateFromUpload(ctx context.Context, req UploadRequest) (Note, error) {
	if len(req.Content) == 0 {
		return Note{}, apperrors.Wrap(apperrors.CodeInvalidInput, "audio content cannot be empty", nil)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(req.Content)) > s.cfg.MaxUploadBytes {
		return Note{}, apperrors.Wrap(apperrors.CodeFileTooLarge, fmt.Sprintf("audio exceeds the %d byte limit", s.cfg.MaxUploadBytes), nil)
	}
	filename := sanitizeFilename(req.Filename)
	if filename == "" {
		return Note{}, apperrors.Wrap(apperrors.CodeInvalidInput, "filename is required", nil)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.extensionAllowed(ext) {
		return Note{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unsupported audio format %q", ext), nil)
	}

	mime := req.MimeType
	if mime == "" {
		mime = http.DetectContentType(req.Content)
	}

	now := s.now()
	note := Note{
		ID:        uuid.New(),
		Filename:  filename,
		SizeBytes: int64(len(req.Content)),
		MimeType:  mime,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	key := fmt.Sprintf("notes/%s%s", note.ID, ext)
	obj, err := s.storage.Put(ctx, key, req.Content, mime)
	if err != nil {
		return Note{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to store audio", err)
	}
	note.AudioKey = obj.Key

	if err := s.repo.Create(ctx, note); err != nil {
		if delErr := s.storage.Delete(ctx, note.AudioKey); delErr != nil {
			s.logger.Warn("could not remove audio for unpersisted note", "key", note.AudioKey, "error", delErr)
		}
		return Note{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to persist note", err)
	}

	if s.queue != nil {
		payload := map[string]any{"note_id": note.ID.String()}
		if err := s.queue.Enqueue(ctx, JobTranscribe, payload); err != nil {
			s.logger.Warn("enqueue transcription failed", "note_id", note.ID, "error", err)
		}
	}

	s.logger.Info("note uploaded", "note_id", note.ID, "filename", filename, "bytes", note.SizeBytes)
	return note, nil
}

// ProcessTranscription fetches the stored audio, transcribes it, and records the result.
func (s *Service) ProcessTranscription(ctx context.Context, noteID uuid.UUID) error {
	s.logger.Info("transcription start", "note_id", noteID)
	note, found, err := s.repo.Get(ctx, noteID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to load note", err)
	}
	if !found {
		return apperrors.Wrap(apperrors.CodeNotFound, "note not found", nil)
	}
	if note.Status == StatusCompleted {
		return nil
	}

	note.Status = StatusProcessing
	note.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, note); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to update note status", err)
	}

	reader, err := s.storage.Get(ctx, note.AudioKey)
	if err != nil {
		s.markFailed(ctx, note, "failed to read stored audio")
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to fetch stored audio", err)
	}
	defer reader.Close()
	audio, err := io.ReadAll(reader)
	if err != nil {
		s.markFailed(ctx, note, "failed to read stored audio")
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to read stored audio", err)
	}

	text, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		s.markFailed(ctx, note, "transcription failed")
		return apperrors.Wrap(apperrors.CodeTranscriptionError, "transcription failed", err)
	}

	note.Status = StatusCompleted
	note.Transcript = text
	note.FailureReason = nil
	note.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, note); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to finalize note", err)
	}
	s.logger.Info("transcription complete", "note_id", noteID, "chars", len(text))
	return nil
}

// Summarize produces the summary and action items for a transcribed note.
// Results are cached on the note, so repeat calls do not hit the provider again.
func (s *Service) Summarize(ctx context.Context, noteID uuid.UUID) (Note, error) {
	note, found, err := s.repo.Get(ctx, noteID)
	if err != nil {
		return Note{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to load note", err)
	}
	if !found {
		return Note{}, apperrors.Wrap(apperrors.CodeNotFound, "note not found", nil)
	}
	if note.Status != StatusCompleted {
		return Note{}, apperrors.Wrap(apperrors.CodeNotReady, fmt.Sprintf("note is %s, transcription must complete first", note.Status), nil)
	}
	if note.Summary != nil {
		return note, nil
	}

	summary, err := s.summarizer.Summarize(ctx, note.Transcript)
	if err != nil {
		return Note{}, err
	}

	items, err := s.summarizer.ExtractActionItems(ctx, note.Transcript)
	if err != nil {
		s.logger.Warn("action item extraction failed", "note_id", noteID, "error", err)
		items = nil
	}

	note.Summary = &summary
	note.ActionItems = items
	note.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, note); err != nil {
		return Note{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to persist summary", err)
	}
	return note, nil
}

// Get returns a single note.
func (s *Service) Get(ctx context.Context, noteID uuid.UUID) (Note, error) {
	note, found, err := s.repo.Get(ctx, noteID)
	if err != nil {
		return Note{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to load note", err)
	}
	if !found {
		return Note{}, apperrors.Wrap(apperrors.CodeNotFound, "note not found", nil)
	}
	return note, nil
}

// Transcript returns the transcript text once transcription has completed.
func (s *Service) Transcript(ctx context.Context, noteID uuid.UUID) (string, error) {
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return "", err
	}
	if note.Status != StatusCompleted {
		return "", apperrors.Wrap(apperrors.CodeNotReady, fmt.Sprintf("note is %s, transcription must complete first", note.Status), nil)
	}
	return note.Transcript, nil
}

// List returns all notes.
func (s *Service) List(ctx context.Context) ([]Note, error) {
	return s.repo.List(ctx)
}

func (s *Service) markFailed(ctx context.Context, note Note, reason string) {
	note.Status = StatusFailed
	note.FailureReason = &reason
	note.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, note); err != nil {
		s.logger.Warn("marking note failed did not persist", "note_id", note.ID, "error", err)
	}
}

// extensionAllowed accepts entries with or without a leading dot.
func (s *Service) extensionAllowed(ext string) bool {
	if len(s.cfg.AllowedExtensions) == 0 {
		return true
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	return strings.ReplaceAll(name, " ", "_")
}
