package block

import "fmt"

// TextRange is a half-open byte range [Start, End) in the formatted text.
type TextRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r TextRange) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range covers no bytes.
func (r TextRange) IsEmpty() bool { return r.End <= r.Start }

// Contains reports whether offset lies strictly inside the range,
// excluding both boundaries.
func (r TextRange) Contains(offset int) bool {
	return r.Start < offset && offset < r.End
}

// ContainsRange reports whether other lies within r (boundaries included).
func (r TextRange) ContainsRange(other TextRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Intersects reports whether the two ranges overlap or touch.
// Touching ranges count as intersecting so that an empty range sitting on
// the boundary of another is considered part of it.
func (r TextRange) Intersects(other TextRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Shift returns the range moved by delta bytes.
func (r TextRange) Shift(delta int) TextRange {
	return TextRange{Start: r.Start + delta, End: r.End + delta}
}

// String formats the range as "[start,end)".
func (r TextRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// ChildHint describes the layout a new child would receive if it were
// inserted into a composite block at a given index. It is only consulted by
// the incremental indent query.
type ChildHint struct {
	Indent    *Indent
	Alignment *Alignment
}

// Block is a node of the layout tree.
//
// Implementations must be immutable for the duration of a formatting call.
// Leaves have no sub-blocks. The text ranges of children must be ordered,
// non-overlapping and nested within the parent's range.
type Block interface {
	// TextRange returns the range of text covered by the block.
	TextRange() TextRange

	// SubBlocks returns the ordered children. An empty result marks a leaf.
	SubBlocks() []Block

	// Alignment returns the shared column anchor of the block, or nil.
	Alignment() *Alignment

	// Wrap returns the wrap directive of the block, or nil.
	Wrap() *Wrap

	// Indent returns the indent of the block relative to its parent, or nil
	// for no indent.
	Indent() *Indent

	// Spacing returns the constraint for the whitespace between two adjacent
	// children. A nil result leaves the existing whitespace untouched.
	Spacing(left, right Block) *SpaceConstraint

	// ChildHint returns the indent and alignment a child inserted at index
	// would get.
	ChildHint(index int) ChildHint

	// IsIncomplete reports whether the block is still being typed, for
	// example an unterminated argument list.
	IsIncomplete() bool
}

// IsLeaf reports whether b has no sub-blocks.
func IsLeaf(b Block) bool { return len(b.SubBlocks()) == 0 }
