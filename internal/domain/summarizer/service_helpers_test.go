package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "control characters removed",
			in:   " \tHello\x01world\n",
			want: "Helloworld",
		},
		{
			name: "newlines and tabs survive",
			in:   "line one\nline two\tend",
			want: "line one\nline two\tend",
		},
		{
			name: "carriage returns dropped",
			in:   "one\r\n\r\ntwo",
			want: "one\n\ntwo",
		},
		{
			name: "empty remains empty",
			in:   "   ",
			want: "",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, normalize(tt.in))
		})
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "short text unchanged", text: "short", limit: 10, want: "short"},
		{name: "long text truncated", text: "this sentence keeps going", limit: 9, want: "this sent..."},
		{name: "whitespace trimmed", text: "  padded  ", limit: 20, want: "padded"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, snippet(tt.text, tt.limit))
		})
	}
}

func TestCombineInputKeepsOrder(t *testing.T) {
	got := combineInput([]string{"first part", "second part", "third part"})
	require.Equal(t, "Section 1:\nfirst part\n\nSection 2:\nsecond part\n\nSection 3:\nthird part", got)
}

func TestDegradedConcatLabelsParts(t *testing.T) {
	got := degradedConcat([]string{"alpha", "beta"})
	require.Contains(t, got, degradedPreamble)
	require.Contains(t, got, "== Part 1 of 2 ==\nalpha")
	require.Contains(t, got, "== Part 2 of 2 ==\nbeta")
	require.Less(t, indexOf(t, got, "Part 1 of 2"), indexOf(t, got, "Part 2 of 2"))
}

func TestParseActionItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "bulleted list",
			content: "Here are the tasks:\n- Buy milk\n- Ship the release\n\n- Email the team",
			want:    []string{"Buy milk", "Ship the release", "Email the team"},
		},
		{
			name:    "none found",
			content: "No action items found.",
			want:    nil,
		},
		{
			name:    "ignores unbulleted lines",
			content: "preamble text\n-not a bullet\n- real item",
			want:    []string{"real item"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, parseActionItems(tt.content))
		})
	}
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "expected %q in %q", needle, haystack)
	return idx
}
