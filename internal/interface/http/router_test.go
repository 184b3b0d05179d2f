package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/summarizer"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/config"
	apperrors "github.com/mitchellalderson/render-note-taker-agent/pkg/errors"
)

type stubNoteService struct {
	createFn     func(ctx context.Context, req notes.UploadRequest) (notes.Note, error)
	getFn        func(ctx context.Context, id uuid.UUID) (notes.Note, error)
	listFn       func(ctx context.Context) ([]notes.Note, error)
	transcriptFn func(ctx context.Context, id uuid.UUID) (string, error)
	summarizeFn  func(ctx context.Context, id uuid.UUID) (notes.Note, error)
}

func (s *stubNoteService) CreateFromUpload(ctx context.Context, req notes.UploadRequest) (notes.Note, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return notes.Note{}, nil
}

func (s *stubNoteService) Get(ctx context.Context, id uuid.UUID) (notes.Note, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return notes.Note{}, nil
}

func (s *stubNoteService) List(ctx context.Context) ([]notes.Note, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubNoteService) Transcript(ctx context.Context, id uuid.UUID) (string, error) {
	if s.transcriptFn != nil {
		return s.transcriptFn(ctx, id)
	}
	return "", nil
}

func (s *stubNoteService) Summarize(ctx context.Context, id uuid.UUID) (notes.Note, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, id)
	}
	return notes.Note{}, nil
}

func newRouterUnderTest(t *testing.T, svc NoteService) *http.Server {
	t.Helper()
	handler := NewNoteHandler(svc, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewRouter(cfg, handler)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func performGet(path string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func performPost(path string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func performUpload(t *testing.T, path, filename string, content []byte, server *http.Server) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestRouter_Health(t *testing.T) {
	rec := performGet("/health", newRouterUnderTest(t, &stubNoteService{}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_UploadNote(t *testing.T) {
	noteID := uuid.New()
	svc := &stubNoteService{
		createFn: func(ctx context.Context, req notes.UploadRequest) (notes.Note, error) {
			require.Equal(t, "standup.webm", req.Filename)
			require.Equal(t, []byte("fake-audio"), req.Content)
			return notes.Note{ID: noteID, Filename: req.Filename, Status: notes.StatusPending}, nil
		},
	}

	rec := performUpload(t, "/api/v1/notes", "standup.webm", []byte("fake-audio"), newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Note notes.Note `json:"note"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, noteID, body.Note.ID)
	require.Equal(t, notes.StatusPending, body.Note.Status)
}

func TestRouter_UploadNoteMissingFile(t *testing.T) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "no audio attached"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, &stubNoteService{}).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_UploadNoteDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "file too large",
			err:        apperrors.Wrap(apperrors.CodeFileTooLarge, "audio exceeds the 1000 byte limit", nil),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "file_too_large",
		},
		{
			name:       "unsupported format",
			err:        apperrors.Wrap(apperrors.CodeInvalidInput, `unsupported audio format ".txt"`, nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
		{
			name:       "storage down",
			err:        apperrors.Wrap(apperrors.CodeStorageError, "failed to store audio", nil),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "storage_error",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubNoteService{
				createFn: func(ctx context.Context, req notes.UploadRequest) (notes.Note, error) {
					return notes.Note{}, tt.err
				},
			}
			rec := performUpload(t, "/api/v1/notes", "a.webm", []byte("x"), newRouterUnderTest(t, svc))
			require.Equal(t, tt.wantStatus, rec.Code)
			errBody := decodeErrorBody(t, rec.Body.Bytes())
			require.Equal(t, tt.wantCode, errBody["error"]["code"])
		})
	}
}

func TestRouter_GetNote(t *testing.T) {
	noteID := uuid.New()
	svc := &stubNoteService{
		getFn: func(ctx context.Context, id uuid.UUID) (notes.Note, error) {
			require.Equal(t, noteID, id)
			return notes.Note{ID: noteID, Status: notes.StatusCompleted}, nil
		},
	}

	rec := performGet("/api/v1/notes/"+noteID.String(), newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusOK, rec.Code)

	var got notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, noteID, got.ID)
	require.Equal(t, notes.StatusCompleted, got.Status)
}

func TestRouter_GetNoteInvalidID(t *testing.T) {
	rec := performGet("/api/v1/notes/not-a-uuid", newRouterUnderTest(t, &stubNoteService{}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
}

func TestRouter_GetNoteNotFound(t *testing.T) {
	svc := &stubNoteService{
		getFn: func(ctx context.Context, id uuid.UUID) (notes.Note, error) {
			return notes.Note{}, apperrors.Wrap(apperrors.CodeNotFound, "note not found", nil)
		},
	}
	rec := performGet("/api/v1/notes/"+uuid.NewString(), newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "not_found", errBody["error"]["code"])
}

func TestRouter_ListNotes(t *testing.T) {
	svc := &stubNoteService{
		listFn: func(ctx context.Context) ([]notes.Note, error) {
			return []notes.Note{{ID: uuid.New()}, {ID: uuid.New()}}, nil
		},
	}
	rec := performGet("/api/v1/notes", newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []notes.Note `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
}

func TestRouter_GetTranscript(t *testing.T) {
	noteID := uuid.New()
	svc := &stubNoteService{
		transcriptFn: func(ctx context.Context, id uuid.UUID) (string, error) {
			require.Equal(t, noteID, id)
			return "hello from the recording", nil
		},
	}
	rec := performGet("/api/v1/notes/"+noteID.String()+"/transcript", newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"transcript":"hello from the recording"}`, rec.Body.String())
}

func TestRouter_GetTranscriptNotReady(t *testing.T) {
	svc := &stubNoteService{
		transcriptFn: func(ctx context.Context, id uuid.UUID) (string, error) {
			return "", apperrors.Wrap(apperrors.CodeNotReady, "note is processing, transcription must complete first", nil)
		},
	}
	rec := performGet("/api/v1/notes/"+uuid.NewString()+"/transcript", newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "not_ready", errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "transcription must complete")
}

func TestRouter_SummarizeNote(t *testing.T) {
	noteID := uuid.New()
	svc := &stubNoteService{
		summarizeFn: func(ctx context.Context, id uuid.UUID) (notes.Note, error) {
			require.Equal(t, noteID, id)
			return notes.Note{
				ID:          noteID,
				Status:      notes.StatusCompleted,
				Summary:     &summarizer.Summary{Text: "short summary", Chunked: true, ChunkCount: 4},
				ActionItems: []string{"book the room"},
			}, nil
		},
	}

	rec := performPost("/api/v1/notes/"+noteID.String()+"/summary", newRouterUnderTest(t, svc))
	require.Equal(t, http.StatusOK, rec.Code)

	var got notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.Summary)
	require.Equal(t, "short summary", got.Summary.Text)
	require.True(t, got.Summary.Chunked)
	require.Equal(t, 4, got.Summary.ChunkCount)
	require.Equal(t, []string{"book the room"}, got.ActionItems)
}

func TestRouter_SummarizeNoteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "empty transcript",
			err:        apperrors.Wrap(apperrors.CodeEmptyInput, "transcript cannot be empty", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "empty_input",
		},
		{
			name:       "transcription pending",
			err:        apperrors.Wrap(apperrors.CodeNotReady, "note is pending, transcription must complete first", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "not_ready",
		},
		{
			name:       "chunk failed",
			err:        apperrors.Wrap(apperrors.CodeChunkFailed, "summarize chunk 2 of 4", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   "chunk_failed",
		},
		{
			name:       "provider rejected request",
			err:        apperrors.Wrap(apperrors.CodeProviderFatal, "completion rejected", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   "provider_fatal",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubNoteService{
				summarizeFn: func(ctx context.Context, id uuid.UUID) (notes.Note, error) {
					return notes.Note{}, tt.err
				},
			}
			rec := performPost("/api/v1/notes/"+uuid.NewString()+"/summary", newRouterUnderTest(t, svc))
			require.Equal(t, tt.wantStatus, rec.Code)
			errBody := decodeErrorBody(t, rec.Body.Bytes())
			require.Equal(t, tt.wantCode, errBody["error"]["code"])
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	handler := NewNoteHandler(&stubNoteService{}, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			RateLimit: config.RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 1,
				Burst:             1,
			},
		},
	}
	server := NewRouter(cfg, handler)

	first := performGet("/api/v1/notes", server)
	require.Equal(t, http.StatusOK, first.Code)

	second := performGet("/api/v1/notes", server)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	retryAfter, err := strconv.Atoi(second.Header().Get("Retry-After"))
	require.NoError(t, err)
	require.Positive(t, retryAfter)
	require.LessOrEqual(t, retryAfter, 60)
	errBody := decodeErrorBody(t, second.Body.Bytes())
	require.Equal(t, "rate_limit_exceeded", errBody["error"]["code"])

	health := performGet("/health", server)
	require.Equal(t, http.StatusOK, health.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/notes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, &stubNoteService{}).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRouter_CORSAllowedOrigins(t *testing.T) {
	handler := NewNoteHandler(&stubNoteService{}, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			CorsOrigins:  []string{"https://notes.example.com", "https://admin.example.com"},
		},
	}
	server := NewRouter(cfg, handler)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/notes", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/notes", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, "https://notes.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
