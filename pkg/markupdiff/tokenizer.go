package markupdiff

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits markup into tag, whitespace and word tokens. It never fails:
// a '<' without a closing '>' is kept as part of a word. Concatenating the Text
// of the result reproduces markup exactly.
func Tokenize(markup string) []Token {
	tokens := make([]Token, 0, len(markup)/4+1)
	last := strings.LastIndexByte(markup, '>')
	i := 0
	for i < len(markup) {
		if end, ok := tagEnd(markup, i, last); ok {
			tokens = append(tokens, Token{Kind: TokenTag, Text: markup[i:end]})
			i = end
			continue
		}

		r, size := utf8.DecodeRuneInString(markup[i:])
		start := i
		if unicode.IsSpace(r) {
			i += size
			for i < len(markup) {
				r, size = utf8.DecodeRuneInString(markup[i:])
				if !unicode.IsSpace(r) {
					break
				}
				i += size
			}
			tokens = append(tokens, Token{Kind: TokenWhitespace, Text: markup[start:i]})
			continue
		}

		i += size
		for i < len(markup) {
			if _, ok := tagEnd(markup, i, last); ok {
				break
			}
			r, size = utf8.DecodeRuneInString(markup[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}
		tokens = append(tokens, Token{Kind: TokenWord, Text: markup[start:i]})
	}
	return tokens
}

// tagEnd returns the index just past the '>' closing a tag that opens at i.
// A tag needs at least one byte between '<' and '>'. last is the index of the
// final '>' in s, so unterminated '<' runs are rejected without rescanning.
func tagEnd(s string, i, last int) (int, bool) {
	if s[i] != '<' || last <= i+1 || s[i+1] == '>' {
		return 0, false
	}
	k := strings.IndexByte(s[i+1:], '>')
	return i + 1 + k + 1, true
}

// splitRuns splits plain text into alternating whitespace and non-whitespace runs.
func splitRuns(text string) []string {
	runs := make([]string, 0, len(text)/4+1)
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			runs = append(runs, text[start:i])
			start = i
			inSpace = space
		}
	}
	if start < len(text) {
		runs = append(runs, text[start:])
	}
	return runs
}
