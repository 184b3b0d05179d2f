package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
)

// NoteService is the slice of the notes domain the transport needs.
type NoteService interface {
	CreateFromUpload(ctx context.Context, req notes.UploadRequest) (notes.Note, error)
	Get(ctx context.Context, id uuid.UUID) (notes.Note, error)
	List(ctx context.Context) ([]notes.Note, error)
	Transcript(ctx context.Context, id uuid.UUID) (string, error)
	Summarize(ctx context.Context, id uuid.UUID) (notes.Note, error)
}

// NoteHandler wires the HTTP transport to the notes domain.
type NoteHandler struct {
	notesSvc NoteService
	logger   *slog.Logger
}

// NewNoteHandler constructs the handler.
func NewNoteHandler(svc NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		notesSvc: svc,
		logger:   logger.With("component", "http.handler"),
	}
}

// UploadNote accepts a multipart audio file and enqueues transcription.
// The note is returned immediately; clients poll for status.
func (h *NoteHandler) UploadNote(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "audio file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read file", err))
		return
	}

	note, err := h.notesSvc.CreateFromUpload(c.Request.Context(), notes.UploadRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  data,
	})
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"note": note})
}

// ListNotes returns all notes, newest first.
func (h *NoteHandler) ListNotes(c *gin.Context) {
	items, err := h.notesSvc.List(c.Request.Context())
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetNote returns a single note's metadata and status.
func (h *NoteHandler) GetNote(c *gin.Context) {
	id, ok := parseNoteID(c)
	if !ok {
		return
	}
	note, err := h.notesSvc.Get(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// GetTranscript returns the transcript once transcription has completed.
func (h *NoteHandler) GetTranscript(c *gin.Context) {
	id, ok := parseNoteID(c)
	if !ok {
		return
	}
	text, err := h.notesSvc.Transcript(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": text})
}

// SummarizeNote runs the summarization pipeline and returns the enriched note.
func (h *NoteHandler) SummarizeNote(c *gin.Context) {
	id, ok := parseNoteID(c)
	if !ok {
		return
	}
	note, err := h.notesSvc.Summarize(c.Request.Context(), id)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func parseNoteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid note id", err))
		return uuid.UUID{}, false
	}
	return id, true
}
