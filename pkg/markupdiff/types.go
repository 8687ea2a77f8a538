// Package markupdiff computes word-level diffs between two rich-text markup strings
// and renders them as markup with added/removed markers.
//
// The differ is a greedy heuristic with a bounded lookahead, not a minimum edit
// distance algorithm. It runs in O(n·k) for k = LookaheadWindow and can produce a
// non-minimal diff when a change spans more runs than the window.
package markupdiff

// TokenKind 词法单元类型
type TokenKind string

const (
	TokenTag        TokenKind = "tag"
	TokenWhitespace TokenKind = "whitespace"
	TokenWord       TokenKind = "word"
)

// Token 是 Tokenize 产出的最小词法单元
type Token struct {
	Kind TokenKind `json:"kind"`
	Text string    `json:"text"`
}

// DiffStatus 差异状态
type DiffStatus string

const (
	StatusUnchanged DiffStatus = "unchanged"
	StatusAdded     DiffStatus = "added"
	StatusRemoved   DiffStatus = "removed"
)

// DiffToken is one element of a diff result. Concatenating the Text of all
// unchanged and removed tokens yields the original input; unchanged and added
// tokens yield the current input.
type DiffToken struct {
	Status   DiffStatus `json:"status"`
	Text     string     `json:"text"`
	IsMarkup bool       `json:"isMarkup"`
}

// Options control how runs are compared. They never change the text that ends
// up in a DiffToken.
type Options struct {
	IgnoreWhitespace bool `json:"ignoreWhitespace"`
	IgnoreCase       bool `json:"ignoreCase"`
}

// Summary 差异摘要
type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Changed reports whether the diff contains any added or removed token.
func (s Summary) Changed() bool {
	return s.Added+s.Removed > 0
}

// Summarize counts tokens per status.
func Summarize(tokens []DiffToken) Summary {
	var summary Summary
	for _, t := range tokens {
		switch t.Status {
		case StatusAdded:
			summary.Added++
		case StatusRemoved:
			summary.Removed++
		case StatusUnchanged:
			summary.Unchanged++
		}
	}
	return summary
}

// Original reassembles the original input from a diff.
func Original(tokens []DiffToken) string {
	return join(tokens, StatusRemoved)
}

// Current reassembles the current input from a diff.
func Current(tokens []DiffToken) string {
	return join(tokens, StatusAdded)
}

func join(tokens []DiffToken, side DiffStatus) string {
	n := 0
	for _, t := range tokens {
		if t.Status == StatusUnchanged || t.Status == side {
			n += len(t.Text)
		}
	}
	buf := make([]byte, 0, n)
	for _, t := range tokens {
		if t.Status == StatusUnchanged || t.Status == side {
			buf = append(buf, t.Text...)
		}
	}
	return string(buf)
}
