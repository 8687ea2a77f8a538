package markupdiff

import (
	"strings"

	"golang.org/x/text/cases"
)

// comparer decides whether two runs are equal under Options. A cases.Caser is
// stateful, so each diff call builds its own comparer.
type comparer struct {
	opts Options
	fold cases.Caser
}

func newComparer(opts Options) *comparer {
	c := &comparer{opts: opts}
	if opts.IgnoreCase {
		c.fold = cases.Fold()
	}
	return c
}

// equal tries raw equality first and falls back to the normalized form.
func (c *comparer) equal(a, b string) bool {
	if a == b {
		return true
	}
	if !c.opts.IgnoreCase && !c.opts.IgnoreWhitespace {
		return false
	}
	return c.normalize(a) == c.normalize(b)
}

func (c *comparer) normalize(s string) string {
	if c.opts.IgnoreWhitespace {
		s = strings.Join(strings.Fields(s), " ")
	}
	if c.opts.IgnoreCase {
		s = c.fold.String(s)
	}
	return s
}
