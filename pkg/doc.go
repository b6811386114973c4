// Package pkg provides the core libraries of blockfmt, a whitespace layout
// engine for block trees.
//
// # Overview
//
// A formatter describes source code as a tree of blocks. Each block carries
// its indent, an optional alignment and an optional wrap, and the spacing
// between neighbouring leaf blocks is described by constraints. blockfmt
// computes the whitespace between the tokens so that every constraint,
// indent, alignment and wrap holds, and reports the result as a list of
// whitespace replacements. The pkg directory is organized as follows:
//
//  1. [block] - The block tree model (blocks, indents, alignments, wraps, spacing)
//  2. [wrapper] - Flattened tree with the whitespace before each leaf
//  3. [solver] - The layout loop and the incremental indent query
//  4. [edit] - Applying solved whitespace to a document model
//  5. [pipeline] - Orchestration (parse → layout → apply/render) with caching
//
// # Architecture
//
// The typical data flow:
//
//	.blk fixture
//	     ↓
//	[fixture] package (parse the block tree and its source)
//	     ↓
//	[wrapper] package (leaves, whitespace, spacing, wraps)
//	     ↓
//	[solver] package (spaces, line feeds, indent, alignment, wrapping)
//	     ↓
//	[edit] package (replace changed whitespace in text order)
//
// # Quick Start
//
//	fx, _ := fixture.ParseString("call.blk", src)
//	tree, _ := wrapper.Build(fx.Root, fx.Source, wrapper.Options{})
//	p := solver.New(tree, config.Default())
//	if _, err := p.Solve(ctx); err != nil {
//	    return err
//	}
//	edits, _ := edit.Apply(ctx, tree, edit.NewDocument(fx.Source), config.Default().Indent)
//
// Most callers use [pipeline.Runner], which runs the same steps and caches
// results through [cache].
//
// # Supporting Packages
//
// [config] - Indent settings loaded from TOML or YAML.
//
// [dump] - Text, JSON, DOT and SVG renderings of a wrapper tree.
//
// [errors] - Error codes shared by every layer, including the HTTP server.
//
// [observability] - Hooks for solver, pipeline, cache and HTTP events.
//
// [server] - JSON HTTP API over a [pipeline.Runner].
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/solver/...             # Specific package
//
// [block]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/block
// [wrapper]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/wrapper
// [solver]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/solver
// [edit]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/edit
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/pipeline#Runner
// [fixture]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/fixture
// [cache]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/config
// [dump]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/dump
// [errors]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/observability
// [server]: https://pkg.go.dev/github.com/matzehuels/blockfmt/pkg/server
package pkg
