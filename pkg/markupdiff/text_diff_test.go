package markupdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onlyUnchanged(t *testing.T, tokens []DiffToken) {
	t.Helper()
	for _, tok := range tokens {
		assert.Equal(t, StatusUnchanged, tok.Status, "token %q", tok.Text)
	}
}

func TestDiffText(t *testing.T) {
	tests := []struct {
		name     string
		original string
		current  string
		opts     Options
		expected []DiffToken
	}{
		{
			name:     "identical",
			original: "Hello world",
			current:  "Hello world",
			expected: []DiffToken{
				{Status: StatusUnchanged, Text: "Hello"},
				{Status: StatusUnchanged, Text: " "},
				{Status: StatusUnchanged, Text: "world"},
			},
		},
		{
			name:     "insertion within lookahead",
			original: "Hello world",
			current:  "Hello beautiful world",
			expected: []DiffToken{
				{Status: StatusUnchanged, Text: "Hello"},
				{Status: StatusUnchanged, Text: " "},
				{Status: StatusAdded, Text: "beautiful"},
				{Status: StatusAdded, Text: " "},
				{Status: StatusUnchanged, Text: "world"},
			},
		},
		{
			name:     "substitution",
			original: "Led team",
			current:  "Managed team",
			expected: []DiffToken{
				{Status: StatusRemoved, Text: "Led"},
				{Status: StatusAdded, Text: "Managed"},
				{Status: StatusUnchanged, Text: " "},
				{Status: StatusUnchanged, Text: "team"},
			},
		},
		{
			name:     "deletion is reported greedily",
			original: "a b c",
			current:  "a c",
			expected: []DiffToken{
				{Status: StatusUnchanged, Text: "a"},
				{Status: StatusUnchanged, Text: " "},
				{Status: StatusRemoved, Text: "b"},
				{Status: StatusAdded, Text: "c"},
				{Status: StatusRemoved, Text: " "},
				{Status: StatusRemoved, Text: "c"},
			},
		},
		{
			name:     "ignore case keeps original text",
			original: "Hello World",
			current:  "hello world",
			opts:     Options{IgnoreCase: true},
			expected: []DiffToken{
				{Status: StatusUnchanged, Text: "Hello"},
				{Status: StatusUnchanged, Text: " "},
				{Status: StatusUnchanged, Text: "World"},
			},
		},
		{
			name:     "empty original",
			original: "",
			current:  "new text",
			expected: []DiffToken{
				{Status: StatusAdded, Text: "new"},
				{Status: StatusAdded, Text: " "},
				{Status: StatusAdded, Text: "text"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DiffText(tt.original, tt.current, tt.opts))
		})
	}
}

func TestDiffText_IgnoreWhitespace(t *testing.T) {
	tokens := DiffText("Hello    world", "Hello world", Options{IgnoreWhitespace: true})
	require.Len(t, tokens, 3)
	onlyUnchanged(t, tokens)
	assert.Equal(t, "    ", tokens[1].Text)

	tokens = DiffText("Hello    world", "Hello world", Options{})
	assert.True(t, Summarize(tokens).Changed())
}

func TestDiffText_BeyondLookahead(t *testing.T) {
	original := "a z"
	current := "a b c d e f g z"

	tokens := DiffText(original, current, Options{})

	assert.Equal(t, original, Original(tokens))
	assert.Equal(t, current, Current(tokens))
	// z sits more than LookaheadWindow runs away, so it is replaced rather than realigned.
	assert.Contains(t, tokens, DiffToken{Status: StatusRemoved, Text: "z"})
}

func TestDiffText_RoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"one two three", "one three"},
		{"Led development of microservices", "Spearheaded development of scalable microservices at scale"},
		{"  leading", "leading  "},
		{"x y z", ""},
		{"same", "same"},
	}
	for _, p := range pairs {
		tokens := DiffText(p[0], p[1], Options{})
		assert.Equal(t, p[0], Original(tokens), "original of %q -> %q", p[0], p[1])
		assert.Equal(t, p[1], Current(tokens), "current of %q -> %q", p[0], p[1])
		for _, tok := range tokens {
			assert.False(t, tok.IsMarkup)
		}
	}
}
