package block

// Node is a concrete, builder-style [Block].
//
// Leaves are created with [NewLeaf] over an explicit range; composites are
// created with [NewComposite] and take the union of their children's ranges.
// Setters return the node so construction can be chained. A Node must not be
// modified while a formatting call is using it.
type Node struct {
	rng        TextRange
	children   []*Node
	blocks     []Block
	alignment  *Alignment
	wrap       *Wrap
	indent     *Indent
	spacing    map[int]*SpaceConstraint
	defSpacing *SpaceConstraint
	hints      map[int]ChildHint
	defHint    ChildHint
	incomplete bool
	label      string
}

// NewLeaf creates a token block covering r.
func NewLeaf(r TextRange) *Node {
	return &Node{rng: r}
}

// NewComposite creates a block grouping children. Its range spans from the
// first child's start to the last child's end.
func NewComposite(children ...*Node) *Node {
	n := &Node{}
	n.children = children
	n.blocks = make([]Block, len(children))
	for i, c := range children {
		n.blocks[i] = c
	}
	if len(children) > 0 {
		n.rng = TextRange{Start: children[0].rng.Start, End: children[len(children)-1].rng.End}
	}
	return n
}

// TextRange implements [Block].
func (n *Node) TextRange() TextRange { return n.rng }

// SubBlocks implements [Block].
func (n *Node) SubBlocks() []Block { return n.blocks }

// Children returns the typed children.
func (n *Node) Children() []*Node { return n.children }

// Alignment implements [Block].
func (n *Node) Alignment() *Alignment { return n.alignment }

// Wrap implements [Block].
func (n *Node) Wrap() *Wrap { return n.wrap }

// Indent implements [Block].
func (n *Node) Indent() *Indent { return n.indent }

// IsIncomplete implements [Block].
func (n *Node) IsIncomplete() bool { return n.incomplete }

// Label returns the debug label, usually the token text for leaves.
func (n *Node) Label() string { return n.label }

// Spacing implements [Block]. Constraints are registered per left child
// index with [Node.SetSpacing]; pairs without one fall back to the default
// set by [Node.SetDefaultSpacing].
func (n *Node) Spacing(left, right Block) *SpaceConstraint {
	for i, c := range n.blocks {
		if c == left {
			if s, ok := n.spacing[i]; ok {
				return s
			}
			break
		}
	}
	return n.defSpacing
}

// ChildHint implements [Block].
func (n *Node) ChildHint(index int) ChildHint {
	if h, ok := n.hints[index]; ok {
		return h
	}
	return n.defHint
}

// SetRange overrides the text range. Composites normally derive it from
// their children.
func (n *Node) SetRange(r TextRange) *Node {
	n.rng = r
	return n
}

// SetAlignment attaches an alignment anchor.
func (n *Node) SetAlignment(a *Alignment) *Node {
	n.alignment = a
	return n
}

// SetWrap attaches a wrap directive.
func (n *Node) SetWrap(w *Wrap) *Node {
	n.wrap = w
	return n
}

// SetIndent sets the indent relative to the parent.
func (n *Node) SetIndent(in *Indent) *Node {
	n.indent = in
	return n
}

// SetSpacing sets the constraint between child i and child i+1.
func (n *Node) SetSpacing(i int, c *SpaceConstraint) *Node {
	if n.spacing == nil {
		n.spacing = make(map[int]*SpaceConstraint)
	}
	n.spacing[i] = c
	return n
}

// SetDefaultSpacing sets the constraint used for child pairs without an
// explicit one.
func (n *Node) SetDefaultSpacing(c *SpaceConstraint) *Node {
	n.defSpacing = c
	return n
}

// SetHint sets the layout hint for a child inserted at index.
func (n *Node) SetHint(index int, h ChildHint) *Node {
	if n.hints == nil {
		n.hints = make(map[int]ChildHint)
	}
	n.hints[index] = h
	return n
}

// SetDefaultHint sets the hint used for indices without an explicit one.
func (n *Node) SetDefaultHint(h ChildHint) *Node {
	n.defHint = h
	return n
}

// SetIncomplete marks the block as still being typed.
func (n *Node) SetIncomplete(v bool) *Node {
	n.incomplete = v
	return n
}

// SetLabel sets the debug label.
func (n *Node) SetLabel(s string) *Node {
	n.label = s
	return n
}

var _ Block = (*Node)(nil)
