package summarizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const (
	heuristicCharsPerToken = 4
	fallbackEncoding       = "cl100k_base"
)

// Estimator approximates how many model tokens a piece of text costs.
// The split decision and the chunk budget both run on these counts, so
// implementations must be deterministic and must never call a provider.
type Estimator interface {
	Count(text string) int
}

type heuristicEstimator struct{}

// NewHeuristicEstimator counts roughly four characters per token, and
// never less than one token per word.
func NewHeuristicEstimator() Estimator {
	return heuristicEstimator{}
}

func (heuristicEstimator) Count(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	tokens := utf8.RuneCountInString(trimmed) / heuristicCharsPerToken
	if tokens < words {
		tokens = words
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

type tiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenEstimator counts with the BPE vocabulary of the given model,
// falling back to the cl100k_base encoding for unknown model names.
func NewTiktokenEstimator(model string) (Estimator, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("load %s encoding: %w", fallbackEncoding, err)
		}
	}
	return &tiktokenEstimator{encoding: encoding}, nil
}

func (e *tiktokenEstimator) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(e.encoding.Encode(text, nil, nil))
}
