package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/fixture"
	"github.com/matzehuels/blockfmt/pkg/observability"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

// Parse builds the fixture in opts and wraps its block tree. Whitespace
// outside opts.Affected is read-only.
func Parse(ctx context.Context, opts Options) (*fixture.Fixture, *wrapper.Tree, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, opts.Name)
	start := time.Now()

	fx, tree, err := parse(opts)
	leaves := 0
	if tree != nil {
		leaves = tree.NumLeaves()
	}
	hooks.OnParseComplete(ctx, opts.Name, leaves, time.Since(start), err)
	return fx, tree, err
}

func parse(opts Options) (*fixture.Fixture, *wrapper.Tree, error) {
	fx, err := fixture.Parse(opts.Name, strings.NewReader(opts.Fixture))
	if err != nil {
		return nil, nil, err
	}
	if a := opts.Affected; a != nil {
		if err := errors.ValidateRange(a.Start, a.End, len(fx.Source)); err != nil {
			return nil, nil, err
		}
	}

	tree, err := wrapper.Build(fx.Root, fx.Source, wrapper.Options{
		Affected: opts.Affected,
		TabSize:  opts.Settings.Indent.TabSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return fx, tree, nil
}
