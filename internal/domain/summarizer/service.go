package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/llm/openaichat"
	apperrors "github.com/mitchellalderson/render-note-taker-agent/pkg/errors"
	"github.com/mitchellalderson/render-note-taker-agent/pkg/metrics"
)

const (
	roleSystem = "system"
	roleUser   = "user"

	singlePassPromptFormat = "Please summarize the following transcription:\n\n%s"
	chunkPromptFormat      = "This is part %d of %d of a longer transcription. Summarize this section, capturing its key points, decisions and any action items:\n\n%s"
	combinePromptFormat    = "The following are summaries of %d consecutive sections of one long transcription, in order. Merge them into a single coherent summary of the entire recording. Remove redundancy, resolve references that span sections, and keep the structure: Main Topics/Themes, Key Points, Action Items/Next Steps (if any), and Notable Details.\n\n%s"

	degradedPreamble = "Combining the section summaries failed, so they are listed below in transcript order."
)

// Service exposes summarization capabilities over transcribed audio.
type Service interface {
	Summarize(ctx context.Context, transcript string) (Summary, error)
	ExtractActionItems(ctx context.Context, transcript string) ([]string, error)
}

// CompletionClient is the slice of the OpenAI client the pipeline needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openaichat.ChatCompletionRequest) (openaichat.ChatCompletionResponse, error)
}

type service struct {
	cfg      Config
	client   CompletionClient
	splitter *Splitter
	logger   *slog.Logger

	// mapSlots caps in-flight chunk completions across all requests.
	mapSlots chan struct{}
}

// NewService is a wire provider for the summarizer domain.
func NewService(cfg Config, client CompletionClient, estimator Estimator, logger *slog.Logger) Service {
	cfg = cfg.withDefaults()
	if estimator == nil {
		estimator = NewHeuristicEstimator()
	}
	return &service{
		cfg:      cfg,
		client:   client,
		splitter: NewSplitter(estimator, cfg.TargetChunkTokens),
		logger:   logger.With("component", "summarizer.service"),
		mapSlots: make(chan struct{}, cfg.MapConcurrency),
	}
}

func (s *service) Summarize(ctx context.Context, transcript string) (Summary, error) {
	text := normalize(transcript)
	if text == "" {
		return Summary{}, apperrors.Wrap(apperrors.CodeEmptyInput, "transcript cannot be empty", nil)
	}

	total := s.splitter.estimator.Count(text)
	if total < s.cfg.TokenThreshold {
		s.logger.Debug("summarizing transcript in a single pass", "tokens", total)
		return s.singlePass(ctx, text)
	}

	chunks := s.splitter.Split(text)
	if len(chunks) <= 1 {
		// One unsplittable block, e.g. a single enormous sentence.
		s.logger.Warn("transcript above threshold could not be split", "tokens", total)
		return s.singlePass(ctx, text)
	}

	s.logger.Info("summarizing transcript in chunks",
		"tokens", total, "threshold", s.cfg.TokenThreshold, "chunks", len(chunks))

	partials, usage, err := s.mapChunks(ctx, chunks)
	if err != nil {
		return Summary{}, err
	}

	merged, reduceUsage, err := s.reduce(ctx, partials)
	usage.Add(reduceUsage)
	if err != nil {
		// Only exhausted retries degrade; fatal rejections surface as errors.
		if s.cfg.DegradedFallback && apperrors.IsCode(err, apperrors.CodeProviderTransient) {
			s.logger.Warn("combine step exhausted retries, returning concatenated section summaries", "error", err)
			return Summary{
				Text:       degradedConcat(partials),
				Chunked:    true,
				ChunkCount: len(chunks),
				Degraded:   true,
				Usage:      usage,
			}, nil
		}
		return Summary{}, apperrors.Wrap(apperrors.CodeReduceFailed, "combine section summaries", err)
	}

	return Summary{
		Text:       merged,
		Chunked:    true,
		ChunkCount: len(chunks),
		Usage:      usage,
	}, nil
}

func (s *service) singlePass(ctx context.Context, text string) (Summary, error) {
	messages := []openaichat.Message{
		{Role: roleSystem, Content: s.cfg.SystemPrompt},
		{Role: roleUser, Content: fmt.Sprintf(singlePassPromptFormat, text)},
	}
	content, usage, err := s.completeWithRetry(ctx, messages, s.cfg.Temperature, s.cfg.ResponseMaxTokens)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Text: content, Usage: usage}, nil
}

// mapChunks summarizes every chunk with bounded concurrency. Results land
// in an index-addressed slice so transcript order survives regardless of
// completion order. The first failed chunk cancels the rest.
func (s *service) mapChunks(ctx context.Context, chunks []Chunk) ([]string, metrics.TokenUsage, error) {
	mapCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		out    = make([]string, len(chunks))
		usages = make([]metrics.TokenUsage, len(chunks))
		errc   = make(chan error, 1)
	)

	for i := range chunks {
		chunk := chunks[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case s.mapSlots <- struct{}{}:
			case <-mapCtx.Done():
				return
			}
			defer func() { <-s.mapSlots }()

			content, usage, err := s.summarizeChunk(mapCtx, chunk, len(chunks))
			if err != nil {
				select {
				case errc <- apperrors.Wrap(apperrors.CodeChunkFailed,
					fmt.Sprintf("summarize chunk %d of %d", chunk.Index+1, len(chunks)), err):
					cancel()
				default:
				}
				return
			}
			out[chunk.Index] = content
			usages[chunk.Index] = usage
		}()
	}
	wg.Wait()
	close(errc)

	if err := <-errc; err != nil {
		return nil, metrics.TokenUsage{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, metrics.TokenUsage{}, apperrors.Wrap(apperrors.CodeChunkFailed, "chunk summarization aborted", err)
	}

	var usage metrics.TokenUsage
	for _, u := range usages {
		usage.Add(u)
	}
	return out, usage, nil
}

func (s *service) summarizeChunk(ctx context.Context, chunk Chunk, total int) (string, metrics.TokenUsage, error) {
	messages := []openaichat.Message{
		{Role: roleSystem, Content: s.cfg.SystemPrompt},
		{Role: roleUser, Content: fmt.Sprintf(chunkPromptFormat, chunk.Index+1, total, chunk.Text)},
	}
	content, usage, err := s.completeWithRetry(ctx, messages, s.cfg.Temperature, s.cfg.ResponseMaxTokens)
	if err != nil {
		return "", usage, err
	}
	s.logger.Debug("chunk summarized", "chunk", chunk.Index+1, "total", total, "summary", snippet(content, 120))
	return content, usage, nil
}

func (s *service) reduce(ctx context.Context, partials []string) (string, metrics.TokenUsage, error) {
	messages := []openaichat.Message{
		{Role: roleSystem, Content: s.cfg.SystemPrompt},
		{Role: roleUser, Content: fmt.Sprintf(combinePromptFormat, len(partials), combineInput(partials))},
	}
	return s.completeWithRetry(ctx, messages, s.cfg.Temperature, s.cfg.ResponseMaxTokens)
}

// completeWithRetry performs one provider call, retrying transient
// failures with exponential backoff. Fatal provider rejections return
// immediately.
func (s *service) completeWithRetry(ctx context.Context, messages []openaichat.Message, temperature float32, maxTokens int) (string, metrics.TokenUsage, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := s.cfg.BaseBackoff * time.Duration(1<<(attempt-2))
			s.logger.Debug("retrying completion", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", metrics.TokenUsage{}, apperrors.Wrap(apperrors.CodeProviderTransient, "completion aborted", ctx.Err())
			}
		}

		resp, err := s.client.CreateChatCompletion(ctx, openaichat.ChatCompletionRequest{
			Model:       s.cfg.Model,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", metrics.TokenUsage{}, apperrors.Wrap(apperrors.CodeProviderTransient, "completion aborted", ctx.Err())
			}
			if !isTransient(err) {
				return "", metrics.TokenUsage{}, apperrors.Wrap(apperrors.CodeProviderFatal, "completion rejected", err)
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("completion returned no choices")
			continue
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			lastErr = errors.New("completion returned empty content")
			continue
		}
		return content, metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}, nil
	}
	return "", metrics.TokenUsage{}, apperrors.Wrap(apperrors.CodeProviderTransient,
		fmt.Sprintf("completion failed after %d attempts", s.cfg.MaxAttempts), lastErr)
}

func isTransient(err error) bool {
	var apiErr *openaichat.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	// Transport failures and timeouts are worth another attempt.
	return true
}

func combineInput(partials []string) string {
	var b strings.Builder
	for i, partial := range partials {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Section %d:\n%s", i+1, partial)
	}
	return b.String()
}

func degradedConcat(partials []string) string {
	var b strings.Builder
	b.WriteString(degradedPreamble)
	for i, partial := range partials {
		fmt.Fprintf(&b, "\n\n== Part %d of %d ==\n%s", i+1, len(partials), partial)
	}
	return b.String()
}

func normalize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return text
}

func snippet(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return strings.TrimSpace(text[:limit]) + "..."
}
