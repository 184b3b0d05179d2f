package summarizer

import (
	"regexp"
	"strings"
)

var (
	// A paragraph break is a blank line; spaces, tabs or CR inside it count.
	paragraphBoundaryRe = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)
	sentenceBoundaryRe  = regexp.MustCompile(`[.!?]['")\]]*\s+`)
)

// Splitter breaks a transcript into chunks near a token budget without
// ever cutting inside a word. Paragraph boundaries are preferred; a
// paragraph that alone exceeds the budget is split at sentence ends, and
// a single oversized sentence is emitted whole rather than truncated.
type Splitter struct {
	estimator Estimator
	target    int
}

// NewSplitter builds a splitter aiming at targetTokens per chunk.
func NewSplitter(estimator Estimator, targetTokens int) *Splitter {
	if targetTokens <= 0 {
		targetTokens = 3000
	}
	return &Splitter{estimator: estimator, target: targetTokens}
}

// Split partitions text into ordered chunks. Every input character ends
// up in exactly one chunk, modulo whitespace collapsed at boundaries.
// Blank text comes back unchanged as a single chunk.
func (s *Splitter) Split(text string) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []Chunk{{Index: 0, Text: text, Tokens: s.estimator.Count(text)}}
	}
	text = trimmed

	var (
		out     []Chunk
		current strings.Builder
	)

	flush := func() {
		content := strings.TrimSpace(current.String())
		current.Reset()
		if content == "" {
			return
		}
		out = append(out, Chunk{
			Index:  len(out),
			Text:   content,
			Tokens: s.estimator.Count(content),
		})
	}

	appendUnit := func(unit, sep string) {
		if current.Len() == 0 {
			current.WriteString(unit)
			return
		}
		if s.estimator.Count(current.String()+sep+unit) > s.target {
			flush()
			current.WriteString(unit)
			return
		}
		current.WriteString(sep)
		current.WriteString(unit)
	}

	for _, paragraph := range splitParagraphs(text) {
		if s.estimator.Count(paragraph) <= s.target {
			appendUnit(paragraph, "\n\n")
			continue
		}
		for i, sentence := range splitSentences(paragraph) {
			if i == 0 {
				appendUnit(sentence, "\n\n")
			} else {
				appendUnit(sentence, " ")
			}
		}
	}
	flush()

	return out
}

func splitParagraphs(text string) []string {
	parts := paragraphBoundaryRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitSentences(text string) []string {
	var (
		out  []string
		last int
	)
	for _, loc := range sentenceBoundaryRe.FindAllStringIndex(text, -1) {
		if piece := strings.TrimSpace(text[last:loc[1]]); piece != "" {
			out = append(out, piece)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
