// Package block defines the constraint model consumed by the whitespace
// layout solver.
//
// # Overview
//
// A formatted document is described by a tree of [Block] values. Leaf blocks
// are tokens: indivisible runs of text that the formatter never changes.
// Composite blocks group their children and scope the constraints that decide
// what whitespace goes between tokens:
//
//   - [SpaceConstraint]: minimum/maximum spaces and minimum line feeds between
//     two adjacent children, optionally conditional on whether another text
//     range currently contains a line break
//   - [Alignment]: a shared column anchor; every block carrying the same
//     alignment that starts a new line is placed at the same column
//   - [Wrap]: a directive deciding when a line break is forced before the
//     first token of a block
//   - [Indent]: the indentation applied relative to the parent block when the
//     block starts a new line
//
// Blocks are immutable from the solver's point of view. All mutable layout
// state (alignment offsets, wrap activation) is owned by the solver and
// keyed by the identity of the shared [Alignment] and [Wrap] values.
//
// # Building Trees
//
// Producers normally implement [Block] directly on top of their syntax tree.
// [Node] is a ready-made implementation used by fixtures and tests:
//
//	a := block.NewLeaf(block.TextRange{Start: 0, End: 1})
//	b := block.NewLeaf(block.TextRange{Start: 2, End: 3})
//	root := block.NewComposite(a, b)
//	root.SetSpacing(0, block.Space(1, 1, 0))
//
// # Spacing Lookup
//
// The spacing between two adjacent leaves is asked of their lowest common
// ancestor, passing the two children of that ancestor which contain the
// leaves. For siblings these are the leaves themselves.
package block
