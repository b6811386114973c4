// Package solver computes the whitespace between tokens of a wrapper tree.
//
// # Overview
//
// A [Processor] visits the leaves of a [wrapper.Tree] left to right. For
// each leaf it arranges the whitespace before it according to the spacing
// constraint, decides whether a wrap directive forces a line break, and
// computes the indentation of tokens that start a line. The decisions are
// written into the tree's [wrapper.WhiteSpace] records; [Processor.Solve]
// never touches the text itself.
//
// # Passes and Jumps
//
// A pass is a walk of a cursor over the leaves. The walk is not strictly
// forward: when a line grows past the right margin the cursor jumps back to
// the leaf where a line break is best inserted and re-derives everything
// after it.
//
// Some constraints depend on whether another, possibly later, range of text
// contains a line break. The processor records what it observed for every
// such range. When a pass ends and one of those ranges changed, all
// pass-scoped state is cleared and another pass runs. Whitespace decisions
// carry over between passes, which is what makes the loop converge.
//
// # Pass-Scoped State
//
// Alignment offsets, wrap activation and the dependency snapshots live in
// side tables keyed by the identity of the shared [block.Alignment] and
// [block.Wrap] values. The blocks themselves are never mutated, so one block
// tree can be formatted by many processors.
//
// # Termination
//
// The number of passes is bounded by [config.Settings.MaxPasses], raised to
// one more than the number of distinct dependency ranges so that acyclic
// dependencies always converge. The number of steps in one pass by a quadratic function of the leaf count.
// Exceeding either returns an [errors.FormattingDivergedError]. The context
// is checked before every step.
//
// # Incremental Indent Query
//
// [Processor.IndentAt] answers which indentation a line break inserted at an
// offset would receive, running the solver only over the leaves before it.
//
// [errors.FormattingDivergedError]: github.com/matzehuels/blockfmt/pkg/errors.FormattingDivergedError
package solver
