package main

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
	"github.com/mitchellalderson/render-note-taker-agent/internal/domain/summarizer"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/audiostore"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/config"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/jobqueue"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/llm/openaichat"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/notestore"
	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/stt/assemblyai"
)

func provideSummarizerConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		SystemPrompt:      cfg.Summarizer.SystemPrompt,
		TokenThreshold:    cfg.Summarizer.TokenThreshold,
		TargetChunkTokens: cfg.Summarizer.TargetChunkTokens,
		MaxAttempts:       cfg.Summarizer.MaxAttempts,
		BaseBackoff:       cfg.Summarizer.BaseBackoff,
		MapConcurrency:    cfg.Summarizer.MapConcurrency,
		ResponseMaxTokens: cfg.Summarizer.ResponseMaxTokens,
		DegradedFallback:  cfg.Summarizer.DegradedFallback,
	}
}

func provideOpenAIClient(cfg *config.Config) (*openaichat.Client, error) {
	return openaichat.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.RequestTimeout)
}

// provideEstimator prefers exact BPE counts when enabled, falling back to
// the heuristic when the encoding cannot be loaded (it is fetched on first use).
func provideEstimator(cfg *config.Config, logger *slog.Logger) summarizer.Estimator {
	if cfg.Summarizer.ExactTokenCounts {
		est, err := summarizer.NewTiktokenEstimator(cfg.LLM.Model)
		if err != nil {
			logger.Warn("tiktoken encoding unavailable, using heuristic estimator", "error", err)
			return summarizer.NewHeuristicEstimator()
		}
		return est
	}
	return summarizer.NewHeuristicEstimator()
}

func provideTranscriber(cfg *config.Config) (*assemblyai.Client, error) {
	return assemblyai.NewClient(
		cfg.Transcription.APIKey,
		cfg.Transcription.BaseURL,
		cfg.Transcription.PollInterval,
		cfg.Transcription.PollTimeout,
	)
}

func provideNotesConfig(cfg *config.Config) notes.Config {
	return notes.Config{
		MaxUploadBytes:    cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}
}

func provideNoteRepository() notes.NoteRepository {
	return notestore.NewMemoryRepository()
}

func provideAudioStorage(cfg *config.Config, logger *slog.Logger) (notes.ObjectStorage, error) {
	switch cfg.Upload.Storage.Backend {
	case "s3":
		s3 := cfg.Upload.Storage.S3
		return audiostore.NewS3Storage(audiostore.S3Options{
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			Region:    s3.Region,
			UseSSL:    s3.UseSSL,
		}, logger)
	case "memory":
		return audiostore.NewMemoryStorage(), nil
	default:
		return audiostore.NewLocalStorage(cfg.Upload.Storage.LocalDir)
	}
}

func provideJobQueue() *jobqueue.ImmediateQueue {
	return jobqueue.NewImmediateQueue(nil)
}

// provideNotesService builds the service and registers it as the consumer
// of queued transcription jobs.
func provideNotesService(cfg notes.Config, repo notes.NoteRepository, storage notes.ObjectStorage, transcriber notes.Transcriber, sum summarizer.Service, queue *jobqueue.ImmediateQueue, logger *slog.Logger) *notes.Service {
	svc := notes.NewService(cfg, repo, storage, transcriber, sum, queue, logger)
	queue.SetHandler(func(ctx context.Context, name string, payload map[string]any) {
		switch name {
		case notes.JobTranscribe:
			raw, _ := payload["note_id"].(string)
			id, err := uuid.Parse(raw)
			if err != nil {
				logger.Error("transcribe job has invalid note id", "note_id", raw, "error", err)
				return
			}
			if err := svc.ProcessTranscription(ctx, id); err != nil {
				logger.Error("transcription job failed", "note_id", id, "error", err)
			}
		default:
			logger.Warn("job has no registered handler", "name", name)
		}
	})
	return svc
}
