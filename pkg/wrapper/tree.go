package wrapper

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/errors"
)

// None marks a missing index, such as the parent of the root.
const None = -1

// Node is one wrapper in the arena. It mirrors a block and records where it
// sits in the tree and in the leaf chain.
type Node struct {
	Block    block.Block
	Range    block.TextRange
	Parent   int
	Children []int
	Depth    int

	// Leaf is the leaf index of a token, or None for composites.
	Leaf int

	// FirstLeaf and LastLeaf bound the leaves covered by the node.
	FirstLeaf int
	LastLeaf  int
}

// IsLeaf reports whether the node is a token.
func (n *Node) IsLeaf() bool { return n.Leaf != None }

// Options control how a tree is built.
type Options struct {
	// Affected restricts which whitespace may change. Whitespace not
	// touching it is read-only. Nil makes everything writable.
	Affected *block.TextRange

	// TabSize is used to measure columns of text containing tabs.
	TabSize int
}

// Tree is the arena of wrappers built over a block tree and its text.
type Tree struct {
	text        string
	nodes       []Node
	leaves      []int
	whiteSpaces []*WhiteSpace
	constraints []block.SpaceConstraint
	wraps       [][]*block.Wrap
	tokens      []Token
}

// Build validates root against text and builds the wrapper tree.
func Build(root block.Block, text string, opts Options) (*Tree, error) {
	if root == nil {
		return nil, &errors.InvalidBlockTreeError{Problems: []string{"nil root block"}}
	}
	if opts.TabSize <= 0 {
		opts.TabSize = 4
	}

	b := &builder{t: &Tree{text: text}}
	b.add(root, None, 0)
	b.checkGaps()
	if b.err != nil {
		errs := multierr.Errors(b.err)
		problems := make([]string, len(errs))
		for i, e := range errs {
			problems[i] = e.Error()
		}
		return nil, &errors.InvalidBlockTreeError{Problems: problems, Cause: b.err}
	}

	t := b.t
	t.buildWhiteSpaces(opts)
	t.buildConstraints()
	t.buildWraps()
	return t, nil
}

type builder struct {
	t   *Tree
	err error
}

func (b *builder) problem(format string, args ...any) {
	b.err = multierr.Append(b.err, fmt.Errorf(format, args...))
}

func (b *builder) add(blk block.Block, parent, depth int) int {
	t := b.t
	r := blk.TextRange()
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		Block:  blk,
		Range:  r,
		Parent: parent,
		Depth:  depth,
		Leaf:   None,
	})

	if r.Start < 0 || r.End < r.Start || r.End > len(t.text) {
		b.problem("block %s is outside text of length %d", r, len(t.text))
	}

	subs := blk.SubBlocks()
	if len(subs) == 0 {
		leaf := len(t.leaves)
		t.leaves = append(t.leaves, idx)
		n := &t.nodes[idx]
		n.Leaf, n.FirstLeaf, n.LastLeaf = leaf, leaf, leaf
		return idx
	}

	children := make([]int, 0, len(subs))
	prevEnd := r.Start
	for i, sub := range subs {
		if sub == nil {
			b.problem("block %s has nil child %d", r, i)
			continue
		}
		cr := sub.TextRange()
		if !r.ContainsRange(cr) {
			b.problem("child %s does not nest within parent %s", cr, r)
		}
		if i > 0 && cr.Start < prevEnd {
			b.problem("child %s overlaps or precedes its sibling ending at %d", cr, prevEnd)
		}
		prevEnd = max(prevEnd, cr.End)
		children = append(children, b.add(sub, idx, depth+1))
	}

	n := &t.nodes[idx]
	n.Children = children
	if len(children) == 0 {
		// Every child was nil; keep the node as a token so the chain stays
		// well formed while the problems are reported.
		leaf := len(t.leaves)
		t.leaves = append(t.leaves, idx)
		n.Leaf, n.FirstLeaf, n.LastLeaf = leaf, leaf, leaf
		return idx
	}
	n.FirstLeaf = t.nodes[children[0]].FirstLeaf
	n.LastLeaf = t.nodes[children[len(children)-1]].LastLeaf
	return idx
}

// checkGaps verifies that only whitespace separates consecutive tokens.
func (b *builder) checkGaps() {
	t := b.t
	prevEnd := t.nodes[0].Range.Start
	for _, idx := range t.leaves {
		r := t.nodes[idx].Range
		if r.Start < prevEnd {
			b.problem("token %s starts before the previous token ends at %d", r, prevEnd)
			prevEnd = max(prevEnd, r.End)
			continue
		}
		if prevEnd >= 0 && r.Start <= len(t.text) {
			if gap := t.text[prevEnd:r.Start]; strings.TrimLeft(gap, " \t\r\n") != "" {
				b.problem("text %q between %d and %d is not whitespace", gap, prevEnd, r.Start)
			}
		}
		prevEnd = r.End
	}
}

func (t *Tree) buildWhiteSpaces(opts Options) {
	t.whiteSpaces = make([]*WhiteSpace, len(t.leaves))
	t.tokens = make([]Token, len(t.leaves))

	prevEnd := t.nodes[0].Range.Start
	var shared *WhiteSpace
	for l, idx := range t.leaves {
		r := t.nodes[idx].Range
		ws := shared
		if ws == nil {
			ws = &WhiteSpace{Range: block.TextRange{Start: prevEnd, End: r.Start}}
		} else {
			ws.Range.End = r.Start
		}
		t.whiteSpaces[l] = ws
		t.tokens[l] = measureToken(t.text[r.Start:r.End], opts.TabSize)

		shared = nil
		if r.IsEmpty() && l < len(t.leaves)-1 {
			shared = ws
		}
		prevEnd = r.End
	}

	var last *WhiteSpace
	for _, ws := range t.whiteSpaces {
		if ws == last {
			continue
		}
		last = ws
		ws.Initial = t.text[ws.Range.Start:ws.Range.End]
		ws.reset(opts.TabSize)
		if opts.Affected != nil && !ws.Range.Intersects(*opts.Affected) {
			ws.ReadOnly = true
		}
	}
}

// buildConstraints asks the lowest common ancestor of every adjacent pair of
// tokens for the spacing between them. Glued tokens take the constraint of
// the token their shared whitespace ends at.
func (t *Tree) buildConstraints() {
	t.constraints = make([]block.SpaceConstraint, len(t.leaves))
	t.constraints[0] = block.Free().Normalize()
	for l := 1; l < len(t.leaves); l++ {
		t.constraints[l] = t.spacingBetween(t.leaves[l-1], t.leaves[l]).Normalize()
	}
	for l := len(t.leaves) - 2; l >= 0; l-- {
		if t.whiteSpaces[l] == t.whiteSpaces[l+1] {
			t.constraints[l] = t.constraints[l+1]
		}
	}
}

func (t *Tree) spacingBetween(left, right int) *block.SpaceConstraint {
	for t.nodes[left].Depth > t.nodes[right].Depth {
		left = t.nodes[left].Parent
	}
	for t.nodes[right].Depth > t.nodes[left].Depth {
		right = t.nodes[right].Parent
	}
	for t.nodes[left].Parent != t.nodes[right].Parent {
		left, right = t.nodes[left].Parent, t.nodes[right].Parent
	}
	parent := t.nodes[left].Parent
	if parent == None {
		return nil
	}
	return t.nodes[parent].Block.Spacing(t.nodes[left].Block, t.nodes[right].Block)
}

// buildWraps attaches to every token the wrap directives of the blocks it is
// the first token of, innermost first.
func (t *Tree) buildWraps() {
	t.wraps = make([][]*block.Wrap, len(t.leaves))
	for l, idx := range t.leaves {
		var wraps []*block.Wrap
		for i := idx; i != None && t.nodes[i].FirstLeaf == l; i = t.nodes[i].Parent {
			w := t.nodes[i].Block.Wrap()
			if w == nil || containsWrap(wraps, w) {
				continue
			}
			wraps = append(wraps, w)
		}
		t.wraps[l] = wraps
	}
}

func containsWrap(wraps []*block.Wrap, w *block.Wrap) bool {
	for _, x := range wraps {
		if x == w {
			return true
		}
	}
	return false
}

// =============================================================================
// Queries
// =============================================================================

// Text returns the text the tree was built over.
func (t *Tree) Text() string { return t.text }

// Root returns the index of the root node.
func (t *Tree) Root() int { return 0 }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node at index i.
func (t *Tree) Node(i int) *Node { return &t.nodes[i] }

// Parent returns the parent of node i, or None for the root.
func (t *Tree) Parent(i int) int { return t.nodes[i].Parent }

// Children returns the children of node i.
func (t *Tree) Children(i int) []int { return t.nodes[i].Children }

// NodeText returns the original text covered by node i.
func (t *Tree) NodeText(i int) string {
	r := t.nodes[i].Range
	return t.text[r.Start:r.End]
}

// NumLeaves returns the number of tokens.
func (t *Tree) NumLeaves() int { return len(t.leaves) }

// LeafNode returns the node index of leaf l.
func (t *Tree) LeafNode(l int) int { return t.leaves[l] }

// LeafRange returns the text range of leaf l.
func (t *Tree) LeafRange(l int) block.TextRange { return t.nodes[t.leaves[l]].Range }

// WhiteSpace returns the whitespace before leaf l.
func (t *Tree) WhiteSpace(l int) *WhiteSpace { return t.whiteSpaces[l] }

// Constraint returns the normalized spacing constraint of the whitespace
// before leaf l.
func (t *Tree) Constraint(l int) block.SpaceConstraint { return t.constraints[l] }

// Wraps returns the wrap directives starting at leaf l, innermost first.
func (t *Tree) Wraps(l int) []*block.Wrap { return t.wraps[l] }

// Token returns the measurements of leaf l.
func (t *Tree) Token(l int) Token { return t.tokens[l] }

// LeafAtOrAfter returns the first leaf starting at or after offset, or None.
func (t *Tree) LeafAtOrAfter(offset int) int {
	l := sort.Search(len(t.leaves), func(i int) bool {
		return t.LeafRange(i).Start >= offset
	})
	if l == len(t.leaves) {
		return None
	}
	return l
}

// ContainsLineFeeds reports whether the tokens in r, or the whitespace
// between them, currently contain a line break. The whitespace before the
// first token of r is not part of it.
func (t *Tree) ContainsLineFeeds(r block.TextRange) bool {
	l := t.LeafAtOrAfter(r.Start)
	if l == None {
		return false
	}
	if t.tokens[l].HasLineFeed {
		return true
	}
	for t.LeafRange(l).End < r.End {
		l++
		if l >= len(t.leaves) {
			return false
		}
		if t.whiteSpaces[l].ContainsLineFeeds() || t.tokens[l].HasLineFeed {
			return true
		}
	}
	return false
}

// LeafWhiteSpaceOf returns the whitespace before the first token of node i.
func (t *Tree) LeafWhiteSpaceOf(i int) *WhiteSpace {
	return t.whiteSpaces[t.nodes[i].FirstLeaf]
}

// Ancestors calls fn for node i and each of its ancestors, innermost first,
// until fn returns false.
func (t *Tree) Ancestors(i int, fn func(int) bool) {
	for ; i != None; i = t.nodes[i].Parent {
		if !fn(i) {
			return
		}
	}
}
