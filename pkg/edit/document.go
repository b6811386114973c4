package edit

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/matzehuels/blockfmt/pkg/block"
)

// Sentinel errors returned by Document.
var (
	// ErrReadOnly is returned when an edit touches a protected range.
	ErrReadOnly = stderrors.New("range is read-only")

	// ErrNotWhiteSpace is returned when an edit would replace or insert
	// anything other than whitespace.
	ErrNotWhiteSpace = stderrors.New("not whitespace")
)

// Document is an in-memory [Model].
//
// Protected ranges simulate a buffer that refuses some edits. They are
// given in current coordinates and are not shifted by edits.
type Document struct {
	text      string
	protected []block.TextRange
	edits     int
}

// NewDocument creates a document holding text.
func NewDocument(text string) *Document {
	return &Document{text: text}
}

// Text implements [Model].
func (d *Document) Text() string { return d.text }

// TextLength implements [Model].
func (d *Document) TextLength() int { return len(d.text) }

// Edits returns the number of replacements performed.
func (d *Document) Edits() int { return d.edits }

// Protect makes edits overlapping r fail with [ErrReadOnly].
func (d *Document) Protect(r block.TextRange) {
	d.protected = append(d.protected, r)
}

// ReplaceWhiteSpace implements [Model].
func (d *Document) ReplaceWhiteSpace(r block.TextRange, text string) error {
	if r.Start < 0 || r.End < r.Start || r.End > len(d.text) {
		return fmt.Errorf("range %s outside document of length %d", r, len(d.text))
	}
	for _, p := range d.protected {
		if overlaps(r, p) {
			return fmt.Errorf("replace %s: %w", r, ErrReadOnly)
		}
	}
	if !isWhiteSpace(d.text[r.Start:r.End]) || !isWhiteSpace(text) {
		return fmt.Errorf("replace %s with %q: %w", r, text, ErrNotWhiteSpace)
	}
	d.text = d.text[:r.Start] + text + d.text[r.End:]
	d.edits++
	return nil
}

// overlaps reports whether r shares a byte with p, or is an empty range
// strictly inside it.
func overlaps(r, p block.TextRange) bool {
	if r.IsEmpty() {
		return p.Contains(r.Start)
	}
	return r.Start < p.End && p.Start < r.End
}

func isWhiteSpace(s string) bool {
	return strings.Trim(s, " \t\r\n") == ""
}

var _ Model = (*Document)(nil)
