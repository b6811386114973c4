// Package wrapper builds the mutable layout state that mirrors a block tree.
//
// # Overview
//
// [Build] walks a [block.Block] tree once, validates it and flattens it into
// an arena of [Node] values addressed by index. Parent and child links are
// plain indices, so the tree has no ownership cycles and can be copied or
// reset cheaply.
//
// Leaves are additionally numbered left to right. Leaf l owns the
// [WhiteSpace] immediately before it: the gap between the end of leaf l-1
// and the start of leaf l. The chain of leaves covers the formatted range
// without gaps.
//
// # Validation
//
// Build reports an [errors.InvalidBlockTreeError] when children overlap, are
// out of order, escape their parent's range, or when the text between two
// tokens is not whitespace. Every problem found is reported, not just the
// first one.
//
// # Read-Only Whitespace
//
// When an affected range is given, whitespace that does not touch it is
// marked read-only. The solver still measures read-only whitespace to know
// where tokens sit, but never changes it.
//
// # Glued Tokens
//
// A zero-length leaf shares its whitespace with the leaf that follows it, so
// a placeholder token never splits a gap in two. The constraint of the
// following leaf applies to the shared whitespace, and the edit applier
// writes it once.
//
// [errors.InvalidBlockTreeError]: github.com/matzehuels/blockfmt/pkg/errors.InvalidBlockTreeError
package wrapper
