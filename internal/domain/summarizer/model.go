package summarizer

import (
	"time"

	"github.com/mitchellalderson/render-note-taker-agent/pkg/metrics"
)

// Config tunes the chunked summarization pipeline.
type Config struct {
	Model             string
	Temperature       float32
	SystemPrompt      string
	TokenThreshold    int
	TargetChunkTokens int
	MaxAttempts       int
	BaseBackoff       time.Duration
	MapConcurrency    int
	ResponseMaxTokens int
	DegradedFallback  bool
}

func (c Config) withDefaults() Config {
	if c.TokenThreshold <= 0 {
		c.TokenThreshold = 12000
	}
	if c.TargetChunkTokens <= 0 || c.TargetChunkTokens >= c.TokenThreshold {
		c.TargetChunkTokens = c.TokenThreshold / 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.MapConcurrency <= 0 {
		c.MapConcurrency = 4
	}
	if c.ResponseMaxTokens <= 0 {
		c.ResponseMaxTokens = 1500
	}
	return c
}

// Chunk is a contiguous slice of the transcript produced by the splitter.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

// Summary is the final result of a summarization request.
type Summary struct {
	Text       string             `json:"text"`
	Chunked    bool               `json:"chunked"`
	ChunkCount int                `json:"chunkCount,omitempty"`
	Degraded   bool               `json:"degraded,omitempty"`
	Usage      metrics.TokenUsage `json:"usage"`
}
