package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellalderson/render-note-taker-agent/internal/infra/llm/openaichat"
	apperrors "github.com/mitchellalderson/render-note-taker-agent/pkg/errors"
)

const (
	actionItemsSystemPrompt = "You are an expert at extracting action items and tasks from transcriptions. Extract all action items, tasks, and to-dos mentioned in the text. Return them as a simple list, one item per line, starting each line with '- '. If no action items are found, return 'No action items found.'"
	actionItemsPromptFormat = "Extract action items and tasks from this transcription:\n\n%s"

	actionItemsTemperature = 0.6
	actionItemsMaxTokens   = 750

	noActionItemsMarker = "no action items"
)

func (s *service) ExtractActionItems(ctx context.Context, transcript string) ([]string, error) {
	text := normalize(transcript)
	if text == "" {
		return nil, apperrors.Wrap(apperrors.CodeEmptyInput, "transcript cannot be empty", nil)
	}

	messages := []openaichat.Message{
		{Role: roleSystem, Content: actionItemsSystemPrompt},
		{Role: roleUser, Content: fmt.Sprintf(actionItemsPromptFormat, text)},
	}
	content, _, err := s.completeWithRetry(ctx, messages, actionItemsTemperature, actionItemsMaxTokens)
	if err != nil {
		return nil, err
	}

	items := parseActionItems(content)
	s.logger.Debug("action items extracted", "count", len(items))
	return items, nil
}

func parseActionItems(content string) []string {
	if strings.Contains(strings.ToLower(content), noActionItemsMarker) {
		return nil
	}
	var items []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		after, ok := strings.CutPrefix(line, "- ")
		if !ok {
			continue
		}
		if item := strings.TrimSpace(after); item != "" {
			items = append(items, item)
		}
	}
	return items
}
