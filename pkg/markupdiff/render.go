package markupdiff

import (
	"strings"

	"golang.org/x/net/html"
)

// CSS classes shared with the presentation layer.
const (
	ClassAdded   = "diff-added"
	ClassRemoved = "diff-removed"
)

// Render turns a diff into markup. Text tokens are escaped, tag tokens are
// emitted verbatim, and consecutive tokens with the same status share one
// marker span.
func Render(tokens []DiffToken) string {
	var b strings.Builder
	open := StatusUnchanged

	closeSpan := func() {
		if open != StatusUnchanged {
			b.WriteString("</span>")
			open = StatusUnchanged
		}
	}

	for _, t := range tokens {
		if t.Status != open {
			closeSpan()
			switch t.Status {
			case StatusAdded:
				b.WriteString(`<span class="` + ClassAdded + `">`)
			case StatusRemoved:
				b.WriteString(`<span class="` + ClassRemoved + `">`)
			}
			if t.Status == StatusAdded || t.Status == StatusRemoved {
				open = t.Status
			}
		}
		if t.IsMarkup {
			b.WriteString(t.Text)
		} else {
			b.WriteString(html.EscapeString(t.Text))
		}
	}
	closeSpan()
	return b.String()
}

// GenerateMarkupDiff diffs original against current and renders the result.
func GenerateMarkupDiff(original, current string, opts Options) string {
	return Render(DiffMarkup(original, current, opts))
}
