package wrapper

import (
	"strings"

	"github.com/rivo/uniseg"
)

// columnWidth returns the number of columns s occupies when it starts at
// column zero. Wide characters count twice and tabs advance to the next tab
// stop.
func columnWidth(s string, tabSize int) int {
	col := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		switch cluster {
		case "\t":
			if tabSize > 0 {
				col += tabSize - col%tabSize
			} else {
				col++
			}
		case "\r":
		default:
			col += width
		}
	}
	return col
}

// Token describes the text of a leaf as measured at build time.
type Token struct {
	// Len is the byte length of the token.
	Len int

	// HasLineFeed reports whether the token spans several lines.
	HasLineFeed bool

	// LastLineWidth is the display width of the token's last line, or of
	// the whole token when it has no line break.
	LastLineWidth int
}

func measureToken(text string, tabSize int) Token {
	tok := Token{Len: len(text)}
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		tok.HasLineFeed = true
		text = text[i+1:]
	}
	tok.LastLineWidth = columnWidth(text, tabSize)
	return tok
}
