package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/observability"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

const none = wrapper.None

// Stats summarizes the work done by a processor.
type Stats struct {
	Leaves int `json:"leaves"`
	Passes int `json:"passes"`
	Steps  int `json:"steps"`
	Jumps  int `json:"jumps"`
}

// wrapState is the pass-scoped state of a wrap directive.
type wrapState struct {
	// firstPos is the start offset of the first leaf the wrap was seen at.
	firstPos int

	// firstEntry is the first leaf a chop directive could break at. Once
	// recorded it stays until the next pass.
	firstEntry int

	// used is set once the cursor has jumped back to firstEntry.
	used bool

	active bool
}

// alignState is the pass-scoped offset of an alignment and the leaf that
// set it.
type alignState struct {
	offset int
	setBy  int
}

// Processor solves the whitespace of one wrapper tree. It is not safe for
// concurrent use; the tree it was created with must not be shared with
// another processor while it runs.
type Processor struct {
	tree      *wrapper.Tree
	opts      config.IndentOptions
	maxPasses int
	hooks     observability.SolverHooks

	cursor        int
	candidate     int
	candidateWrap *block.Wrap

	alignments map[*block.Alignment]alignState
	wraps      map[*block.Wrap]*wrapState
	deps       map[block.TextRange]bool

	stats Stats
}

// New creates a processor for tree. Zero-valued settings take their
// defaults. The pass limit is raised to one more than the number of
// distinct dependency ranges, which any acyclic set of dependencies
// converges within.
func New(tree *wrapper.Tree, settings config.Settings) *Processor {
	settings.SetDefaults()
	p := &Processor{
		tree:      tree,
		opts:      settings.Indent,
		maxPasses: max(settings.MaxPasses, dependencyCount(tree)+1),
		hooks:     observability.Solver(),
	}
	p.stats.Leaves = tree.NumLeaves()
	p.reset()
	return p
}

func dependencyCount(tree *wrapper.Tree) int {
	seen := make(map[block.TextRange]struct{})
	for l := 0; l < tree.NumLeaves(); l++ {
		if dep := tree.Constraint(l).Dependency; dep != nil {
			seen[*dep] = struct{}{}
		}
	}
	return len(seen)
}

// Tree returns the wrapper tree being solved.
func (p *Processor) Tree() *wrapper.Tree { return p.tree }

// Stats returns the work done so far.
func (p *Processor) Stats() Stats { return p.stats }

// Solve runs passes over every leaf until no dependency changes. On success
// every writable whitespace of the tree holds its final layout.
func (p *Processor) Solve(ctx context.Context) (Stats, error) {
	err := p.converge(ctx, math.MaxInt)
	return p.stats, err
}

// SetAllWhiteSpacesReadOnly freezes every whitespace of the tree. The
// processor then only measures the existing layout.
func (p *Processor) SetAllWhiteSpacesReadOnly() {
	for l := 0; l < p.tree.NumLeaves(); l++ {
		p.tree.WhiteSpace(l).ReadOnly = true
	}
}

// WhiteSpaceBefore returns the whitespace of the first leaf starting at or
// after offset, or nil if there is none.
func (p *Processor) WhiteSpaceBefore(offset int) *wrapper.WhiteSpace {
	l := p.tree.LeafAtOrAfter(offset)
	if l == none {
		return nil
	}
	return p.tree.WhiteSpace(l)
}

// AlignmentOffset returns the column a resolved in the current pass, or -1.
func (p *Processor) AlignmentOffset(a *block.Alignment) int {
	if st, ok := p.alignments[a]; ok {
		return st.offset
	}
	return -1
}

// Wrapped reports whether w was activated in the current pass.
func (p *Processor) Wrapped(w *block.Wrap) bool {
	st, ok := p.wraps[w]
	return ok && st.active
}

// =============================================================================
// Convergence Loop
// =============================================================================

// converge runs passes over the leaves starting before limit until a pass
// completes without a dependency flip.
func (p *Processor) converge(ctx context.Context, limit int) error {
	for pass := 1; ; pass++ {
		if pass > p.maxPasses {
			return &errors.FormattingDivergedError{
				Passes: pass - 1,
				Limit:  p.maxPasses,
				Reason: "dependent line breaks kept changing",
			}
		}
		p.reset()
		steps, err := p.pass(ctx, limit)
		if err != nil {
			return err
		}
		p.stats.Passes++
		flipped := p.flipped()
		p.hooks.OnPassComplete(ctx, pass, steps, flipped)
		if !flipped {
			return nil
		}
	}
}

func (p *Processor) reset() {
	p.cursor = 0
	p.candidate = none
	p.candidateWrap = nil
	p.alignments = make(map[*block.Alignment]alignState)
	p.wraps = make(map[*block.Wrap]*wrapState)
	p.deps = make(map[block.TextRange]bool)
}

func (p *Processor) pass(ctx context.Context, limit int) (int, error) {
	n := p.tree.NumLeaves()
	maxSteps := 4*(n+1)*(n+1) + 64
	steps := 0
	for p.cursor != none && p.tree.LeafRange(p.cursor).Start < limit {
		if err := ctx.Err(); err != nil {
			return steps, errors.Canceled(err)
		}
		if steps >= maxSteps {
			return steps, &errors.FormattingDivergedError{
				Passes: p.stats.Passes + 1,
				Limit:  p.maxPasses,
				Reason: fmt.Sprintf("pass exceeded %d steps", maxSteps),
			}
		}
		steps++
		p.stats.Steps++
		p.step(ctx)
	}
	return steps, nil
}

// flipped reports whether a dependency range observed during the pass has
// a different line-break status now.
func (p *Processor) flipped() bool {
	for r, had := range p.deps {
		if p.tree.ContainsLineFeeds(r) != had {
			return true
		}
	}
	return false
}

// =============================================================================
// Leaf Step
// =============================================================================

// step processes the leaf under the cursor and moves the cursor, either to
// the next leaf or to a jump target chosen by wrap resolution.
func (p *Processor) step(ctx context.Context) {
	l := p.cursor
	ws := p.tree.WhiteSpace(l)
	c := p.tree.Constraint(l)
	minLF := p.minLineFeeds(c)

	ws.ArrangeLineFeeds(minLF)
	if !ws.ContainsLineFeeds() {
		ws.ArrangeSpaces(c)
	}

	jumped := p.processWrap(ctx, l, ws, c, minLF)
	if ws.ContainsLineFeeds() {
		p.clearCandidate()
	}
	if jumped {
		return
	}

	if ws.ContainsLineFeeds() {
		p.adjustLineIndent(l, ws)
	} else {
		ws.ArrangeSpaces(c)
	}

	p.setAlignOffset(l, p.offsetBefore(l))

	if p.tree.Token(l).HasLineFeed {
		p.clearCandidate()
	}

	if dep := c.Dependency; dep != nil && ws.Range.Start < dep.End {
		p.deps[*dep] = p.tree.ContainsLineFeeds(*dep)
	}

	p.cursor = p.next(l)
}

func (p *Processor) next(l int) int {
	if l+1 >= p.tree.NumLeaves() {
		return none
	}
	return l + 1
}

// minLineFeeds returns the line breaks c requires right now. A dependent
// constraint requires them only while its dependency contains a line break.
func (p *Processor) minLineFeeds(c block.SpaceConstraint) int {
	if c.Dependency == nil {
		return c.MinLineFeeds
	}
	if p.tree.ContainsLineFeeds(*c.Dependency) {
		return max(1, c.MinLineFeeds)
	}
	return 0
}

func (p *Processor) clearCandidate() {
	p.candidate = none
	p.candidateWrap = nil
}

// jump moves the cursor to leaf to. Alignments resolved by leaves that will
// be processed again are forgotten, as is a candidate that lies ahead of the
// target.
func (p *Processor) jump(ctx context.Context, from, to int, reason string) bool {
	for a, st := range p.alignments {
		if st.setBy >= to {
			delete(p.alignments, a)
		}
	}
	if p.candidate != none && p.candidate > to {
		p.clearCandidate()
	}
	p.cursor = to
	p.stats.Jumps++
	p.hooks.OnJump(ctx, from, to, reason)
	return true
}

// offsetBefore returns the column leaf l starts at under the current
// layout.
func (p *Processor) offsetBefore(l int) int {
	col := 0
	var last *wrapper.WhiteSpace
	for i := l; i >= 0; i-- {
		if i < l {
			tok := p.tree.Token(i)
			col += tok.LastLineWidth
			if tok.HasLineFeed {
				return col
			}
		}
		ws := p.tree.WhiteSpace(i)
		if ws == last {
			continue
		}
		last = ws
		col += ws.TotalSpaces()
		if ws.ContainsLineFeeds() {
			return col
		}
	}
	return col
}

// lineOver reports whether leaf l ends past the right margin.
func (p *Processor) lineOver(l int) bool {
	tok := p.tree.Token(l)
	return !tok.HasLineFeed && p.offsetBefore(l)+tok.LastLineWidth > p.opts.RightMargin
}
