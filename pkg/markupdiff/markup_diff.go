package markupdiff

import "strings"

// segment is either one tag or a maximal run of adjacent text tokens.
type segment struct {
	text  string
	isTag bool
}

// DiffMarkup diffs two markup strings. Tags are opaque units compared as a whole;
// the text between tags is diffed word by word with DiffText.
func DiffMarkup(original, current string, opts Options) []DiffToken {
	orig := segments(Tokenize(original))
	cur := segments(Tokenize(current))
	cmp := newComparer(opts)

	result := make([]DiffToken, 0, len(orig)+len(cur))
	i, j := 0, 0
	for i < len(orig) || j < len(cur) {
		switch {
		case i >= len(orig):
			result = append(result, cur[j].token(StatusAdded))
			j++
			continue
		case j >= len(cur):
			result = append(result, orig[i].token(StatusRemoved))
			i++
			continue
		}

		o, c := orig[i], cur[j]
		switch {
		case o.text == c.text:
			result = append(result, o.token(StatusUnchanged))
		case o.isTag && c.isTag:
			if cmp.equal(o.text, c.text) {
				result = append(result, o.token(StatusUnchanged))
			} else {
				result = append(result, o.token(StatusRemoved), c.token(StatusAdded))
			}
		case o.isTag != c.isTag:
			result = append(result, o.token(StatusRemoved), c.token(StatusAdded))
		default:
			result = append(result, diffRuns(splitRuns(o.text), splitRuns(c.text), cmp)...)
		}
		i++
		j++
	}
	return result
}

func (s segment) token(status DiffStatus) DiffToken {
	return DiffToken{Status: status, Text: s.text, IsMarkup: s.isTag}
}

func segments(tokens []Token) []segment {
	out := make([]segment, 0, len(tokens))
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, segment{text: text.String()})
			text.Reset()
		}
	}
	for _, t := range tokens {
		if t.Kind == TokenTag {
			flush()
			out = append(out, segment{text: t.Text, isTag: true})
			continue
		}
		text.WriteString(t.Text)
	}
	flush()
	return out
}
