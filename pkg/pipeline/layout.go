package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/blockfmt/pkg/edit"
	"github.com/matzehuels/blockfmt/pkg/observability"
	"github.com/matzehuels/blockfmt/pkg/solver"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

// =============================================================================
// Layout
// =============================================================================

// Layout solves the whitespace of tree. No text is edited; on error the
// tree is left in an undefined state and must not be applied.
func Layout(ctx context.Context, tree *wrapper.Tree, opts Options) (solver.Stats, error) {
	hooks := observability.Pipeline()
	hooks.OnSolveStart(ctx, tree.NumLeaves())
	start := time.Now()

	stats, err := solver.New(tree, opts.Settings).Solve(ctx)
	hooks.OnSolveComplete(ctx, stats.Passes, time.Since(start), err)
	return stats, err
}

// =============================================================================
// Apply
// =============================================================================

// Apply writes the solved whitespace of tree into model.
func Apply(ctx context.Context, tree *wrapper.Tree, model edit.Model, opts Options) ([]edit.Edit, error) {
	pending := edit.Pending(tree, opts.Settings.Indent)

	hooks := observability.Pipeline()
	hooks.OnApplyStart(ctx, len(pending))
	start := time.Now()

	edits, err := edit.Apply(ctx, tree, model, opts.Settings.Indent)
	hooks.OnApplyComplete(ctx, len(edits), time.Since(start), err)
	return edits, err
}
