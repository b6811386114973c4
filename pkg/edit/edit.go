// Package edit writes a solved whitespace layout back into a text model.
//
// [Apply] walks the leaves of a solved [wrapper.Tree] once and replaces every
// writable whitespace whose rendered text differs from the original. Ranges
// are addressed in original coordinates plus a running shift, so the model
// sees edits in ascending order and never needs to be re-measured.
//
// If the model rejects an edit, Apply stops and returns an
// [errors.ModelMutationError]. Edits already applied stay in place.
//
// [errors.ModelMutationError]: github.com/matzehuels/blockfmt/pkg/errors.ModelMutationError
package edit

import (
	"context"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

// Model is the text buffer receiving edits.
type Model interface {
	// Text returns the current content.
	Text() string

	// TextLength returns the current content length in bytes.
	TextLength() int

	// ReplaceWhiteSpace replaces the whitespace in r, given in current
	// coordinates, with text.
	ReplaceWhiteSpace(r block.TextRange, text string) error
}

// Edit is one whitespace replacement. Range is in original coordinates.
type Edit struct {
	Range block.TextRange `json:"range"`
	Old   string          `json:"old"`
	New   string          `json:"new"`
}

// Pending returns the edits Apply would make, without a model.
func Pending(tree *wrapper.Tree, opts config.IndentOptions) []Edit {
	var edits []Edit
	var last *wrapper.WhiteSpace
	for l := 0; l < tree.NumLeaves(); l++ {
		ws := tree.WhiteSpace(l)
		if ws == last {
			continue
		}
		last = ws
		if ws.Changed(opts) {
			edits = append(edits, Edit{Range: ws.Range, Old: ws.Initial, New: ws.Render(opts)})
		}
	}
	return edits
}

// Apply writes every changed whitespace of tree into model, in leaf order,
// and returns the edits made.
func Apply(ctx context.Context, tree *wrapper.Tree, model Model, opts config.IndentOptions) ([]Edit, error) {
	var applied []Edit
	var last *wrapper.WhiteSpace
	shift := 0

	for l := 0; l < tree.NumLeaves(); l++ {
		if err := ctx.Err(); err != nil {
			return applied, errors.Canceled(err)
		}

		ws := tree.WhiteSpace(l)
		if ws == last {
			continue
		}
		last = ws
		if !ws.Changed(opts) {
			continue
		}

		text := ws.Render(opts)
		r := ws.Range.Shift(shift)
		err := errors.ValidateRange(r.Start, r.End, model.TextLength())
		if err == nil {
			err = model.ReplaceWhiteSpace(r, text)
		}
		if err != nil {
			return applied, &errors.ModelMutationError{Start: r.Start, End: r.End, Applied: len(applied), Cause: err}
		}
		applied = append(applied, Edit{Range: ws.Range, Old: ws.Initial, New: text})

		shift += len(text) - ws.Range.Len()
		shift += tokenDelta(tree, l)
	}
	return applied, nil
}

// tokenDelta returns how much the token after a whitespace grew since the
// tree was measured.
func tokenDelta(tree *wrapper.Tree, l int) int {
	current := tree.Node(tree.LeafNode(l)).Block.TextRange().Len()
	return current - tree.Token(l).Len
}
