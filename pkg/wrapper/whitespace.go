package wrapper

import (
	"strings"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/config"
)

// WhiteSpace is the mutable layout of the gap before a token.
//
// When LineFeeds is zero the gap renders as Spaces+IndentSpaces spaces.
// Otherwise it renders as LineFeeds line breaks followed by IndentSpaces of
// indentation (tabs when configured) and Spaces of alignment padding.
type WhiteSpace struct {
	// Range is the gap in the original text.
	Range block.TextRange

	// Initial is the original gap text.
	Initial string

	Spaces       int
	IndentSpaces int
	LineFeeds    int

	// ReadOnly whitespace is measured but never modified.
	ReadOnly bool

	// InitialLineFeeds is the number of line breaks in Initial.
	InitialLineFeeds int
}

// newWhiteSpace parses gap text into a whitespace record. The column after
// the last line break becomes Spaces; tabs advance to the next tab stop.
func newWhiteSpace(r block.TextRange, text string, tabSize int) *WhiteSpace {
	ws := &WhiteSpace{Range: r, Initial: text}
	ws.reset(tabSize)
	return ws
}

func (ws *WhiteSpace) reset(tabSize int) {
	lines := strings.Split(ws.Initial, "\n")
	ws.LineFeeds = len(lines) - 1
	ws.InitialLineFeeds = ws.LineFeeds
	ws.IndentSpaces = 0
	ws.Spaces = columnWidth(lines[len(lines)-1], tabSize)
}

// ContainsLineFeeds reports whether the whitespace currently breaks the line.
func (ws *WhiteSpace) ContainsLineFeeds() bool { return ws.LineFeeds > 0 }

// ContainsLineFeedsInitially reports whether the original text broke the
// line.
func (ws *WhiteSpace) ContainsLineFeedsInitially() bool { return ws.InitialLineFeeds > 0 }

// TotalSpaces returns the column the following token starts at when the
// whitespace breaks the line, or the width of the gap otherwise.
func (ws *WhiteSpace) TotalSpaces() int { return ws.Spaces + ws.IndentSpaces }

// ArrangeLineFeeds raises the line-feed count to at least minLineFeeds.
// Existing line breaks are kept.
func (ws *WhiteSpace) ArrangeLineFeeds(minLineFeeds int) {
	if ws.ReadOnly {
		return
	}
	if ws.LineFeeds < minLineFeeds {
		ws.LineFeeds = minLineFeeds
	}
}

// ArrangeSpaces clamps the width of a single-line gap into the bounds of c.
// Gaps containing a line break are left alone; their width is decided by
// indentation.
func (ws *WhiteSpace) ArrangeSpaces(c block.SpaceConstraint) {
	if ws.ReadOnly || ws.LineFeeds > 0 {
		return
	}
	total := min(max(ws.TotalSpaces(), c.MinSpaces), c.MaxSpaces)
	ws.Spaces, ws.IndentSpaces = total, 0
}

// RemoveLineFeeds drops every line break and rebuilds the gap from the
// constraint alone.
func (ws *WhiteSpace) RemoveLineFeeds(c block.SpaceConstraint, minLineFeeds int) {
	if ws.ReadOnly {
		return
	}
	ws.LineFeeds, ws.Spaces, ws.IndentSpaces = 0, 0, 0
	ws.ArrangeLineFeeds(minLineFeeds)
	ws.ArrangeSpaces(c)
}

// EnsureLineFeed inserts a line break if there is none.
func (ws *WhiteSpace) EnsureLineFeed() {
	if ws.ReadOnly || ws.LineFeeds > 0 {
		return
	}
	ws.LineFeeds = 1
	ws.Spaces = 0
}

// SetSpaces sets the alignment padding and the indentation.
func (ws *WhiteSpace) SetSpaces(spaces, indent int) {
	if ws.ReadOnly {
		return
	}
	ws.Spaces, ws.IndentSpaces = spaces, indent
}

// Render returns the text the whitespace should have. Read-only whitespace
// renders as its original text.
func (ws *WhiteSpace) Render(opts config.IndentOptions) string {
	if ws.ReadOnly {
		return ws.Initial
	}
	if ws.LineFeeds == 0 {
		return strings.Repeat(" ", max(ws.TotalSpaces(), 0))
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat("\n", ws.LineFeeds))
	sb.WriteString(IndentText(ws.IndentSpaces, opts))
	sb.WriteString(strings.Repeat(" ", max(ws.Spaces, 0)))
	return sb.String()
}

// Changed reports whether Render differs from the original text.
func (ws *WhiteSpace) Changed(opts config.IndentOptions) bool {
	return !ws.ReadOnly && ws.Render(opts) != ws.Initial
}

// IndentText renders n columns of indentation, using tabs when the options
// ask for them.
func IndentText(n int, opts config.IndentOptions) string {
	if n <= 0 {
		return ""
	}
	if !opts.UseTabs || opts.TabSize <= 0 {
		return strings.Repeat(" ", n)
	}
	return strings.Repeat("\t", n/opts.TabSize) + strings.Repeat(" ", n%opts.TabSize)
}
