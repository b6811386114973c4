package solver

import (
	"context"
	"strings"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

// IndentInfo is the layout of a line start: BaseIndent columns of
// indentation followed by AdditionalIndent columns of alignment padding.
// AlignmentOffset is the target column of an alignment, or -1.
type IndentInfo struct {
	BaseIndent       int `json:"base_indent"`
	AdditionalIndent int `json:"additional_indent"`
	AlignmentOffset  int `json:"alignment_offset"`
}

// Column returns the column the line content starts at.
func (i IndentInfo) Column() int { return i.BaseIndent + i.AdditionalIndent }

// Text renders the indentation.
func (i IndentInfo) Text(opts config.IndentOptions) string {
	return wrapper.IndentText(i.BaseIndent, opts) + strings.Repeat(" ", max(i.AdditionalIndent, 0))
}

// indentData is an indentation split into indent and alignment padding.
type indentData struct {
	indent int
	spaces int
}

// =============================================================================
// Live Leaves
// =============================================================================

// adjustLineIndent sets the indentation of a whitespace that breaks the
// line before leaf l.
func (p *Processor) adjustLineIndent(l int, ws *wrapper.WhiteSpace) {
	node := p.tree.LeafNode(l)
	if off := p.alignOffset(l); off >= 0 {
		d := p.splitAlignment(p.tree.Parent(node), ws, off)
		ws.SetSpaces(d.spaces, d.indent)
		return
	}
	d := p.chainIndent(node, ws)
	ws.SetSpaces(d.spaces, d.indent)
}

// alignOffset returns the resolved offset of the first alignment found on
// leaf l or on an ancestor l is the first token of, or -1.
func (p *Processor) alignOffset(l int) int {
	off := -1
	p.tree.Ancestors(p.tree.LeafNode(l), func(i int) bool {
		if p.tree.Node(i).FirstLeaf != l {
			return false
		}
		if a := p.tree.Node(i).Block.Alignment(); a != nil {
			if st, ok := p.alignments[a]; ok {
				off = st.offset
				return false
			}
		}
		return true
	})
	return off
}

// setAlignOffset resolves every unresolved alignment of leaf l and of the
// ancestors l is the first token of.
func (p *Processor) setAlignOffset(l, offset int) {
	p.tree.Ancestors(p.tree.LeafNode(l), func(i int) bool {
		if p.tree.Node(i).FirstLeaf != l {
			return false
		}
		a := p.tree.Node(i).Block.Alignment()
		if a == nil {
			return true
		}
		if _, ok := p.alignments[a]; !ok {
			p.alignments[a] = alignState{offset: offset, setBy: l}
		}
		return true
	})
}

// chainIndent computes the indentation of node i from the indent types of
// i and its ancestors. The walk stops at the first ancestor that starts its
// own line, other than through self; that ancestor contributes its column.
func (p *Processor) chainIndent(i int, self *wrapper.WhiteSpace) indentData {
	var d indentData
	p.tree.Ancestors(i, func(j int) bool {
		if ws := p.tree.LeafWhiteSpaceOf(j); ws != self && ws.ContainsLineFeeds() {
			d.indent += ws.IndentSpaces
			d.spaces += ws.Spaces
			return false
		}
		in := p.tree.Node(j).Block.Indent()
		if in != nil && in.Type == block.IndentAbsolute {
			return false
		}
		d.indent += p.indentWidth(in)
		return true
	})
	d.indent = max(d.indent, 0)
	return d
}

// splitAlignment places a line start at column target. The indentation of
// the nearest enclosing block that starts its own line is kept as the base
// unless it lies right of the target.
func (p *Processor) splitAlignment(from int, self *wrapper.WhiteSpace, target int) indentData {
	d := indentData{spaces: target}
	p.tree.Ancestors(from, func(i int) bool {
		ws := p.tree.LeafWhiteSpaceOf(i)
		if ws == self || !ws.ContainsLineFeeds() {
			return true
		}
		if ws.IndentSpaces <= target {
			d = indentData{indent: ws.IndentSpaces, spaces: target - ws.IndentSpaces}
		}
		return false
	})
	return d
}

func (p *Processor) indentWidth(in *block.Indent) int {
	if in == nil {
		return 0
	}
	switch in.Type {
	case block.IndentNormal:
		return p.opts.IndentSize
	case block.IndentContinuation:
		return p.opts.ContinuationIndentSize
	case block.IndentSpaces:
		return in.Spaces
	case block.IndentLabel:
		return -p.opts.IndentSize / 2
	default:
		return 0
	}
}

// =============================================================================
// Incremental Indent Query
// =============================================================================

// IndentAt returns the indentation a line break inserted at offset would
// receive. Only the leaves starting before offset are solved. Combine with
// [Processor.SetAllWhiteSpacesReadOnly] to measure the existing layout
// without changing it.
func (p *Processor) IndentAt(ctx context.Context, offset int) (IndentInfo, error) {
	if err := errors.ValidateOffset(offset, len(p.tree.Text())); err != nil {
		return IndentInfo{}, err
	}
	if err := p.converge(ctx, offset); err != nil {
		return IndentInfo{}, err
	}

	parent := p.parentFor(offset, p.cursor)
	if parent == none && p.cursor != none && p.cursor > 0 {
		parent = p.parentFor(offset, p.cursor-1)
	}

	info := IndentInfo{AlignmentOffset: -1}
	if parent != none {
		info = p.childIndent(parent, p.insertionIndex(parent, offset))
	}

	if p.cursor != none {
		p.stats.Steps++
		p.step(ctx)
	}
	return info, nil
}

// parentFor finds the composite a new line at offset belongs to, starting
// at leaf l or at the last leaf when l is none. An incomplete block right
// before offset is preferred: it is still being typed, so the new line
// continues it.
func (p *Processor) parentFor(offset, l int) int {
	if l == none {
		l = p.tree.NumLeaves() - 1
	}
	if inc := p.previousIncomplete(l, offset); inc != none {
		if p.tree.Node(inc).IsLeaf() {
			return p.tree.Parent(inc)
		}
		return inc
	}
	for i := p.tree.Parent(p.tree.LeafNode(l)); i != none; i = p.tree.Parent(i) {
		r := p.tree.Node(i).Range
		if r.Start < offset && offset < r.End {
			return i
		}
	}
	// No block strictly contains the end of the text. A line appended there
	// becomes the root's next child.
	if offset == len(p.tree.Text()) && p.tree.Len() > 0 {
		return p.tree.Root()
	}
	return none
}

// previousIncomplete returns the deepest incomplete block ending at or
// before offset next to the path from leaf l to the root, or none.
func (p *Processor) previousIncomplete(l, offset int) int {
	cur := p.tree.LeafNode(l)
	for {
		par := p.tree.Parent(cur)
		if par == none || p.tree.Node(par).Range.Start <= offset {
			break
		}
		cur = par
	}
	if p.tree.Parent(cur) == none {
		return none
	}

	if p.tree.Node(cur).Range.End <= offset {
		for !p.incomplete(cur) {
			par := p.tree.Parent(cur)
			if par == none || p.tree.Node(par).Range.End > offset {
				break
			}
			cur = par
		}
		if p.incomplete(cur) {
			return cur
		}
	}

	par := p.tree.Parent(cur)
	if par == none {
		return none
	}
	siblings := p.tree.Children(par)
	idx := indexOf(siblings, cur)
	if idx <= 0 {
		return none
	}
	res := siblings[idx-1]
	if !p.incomplete(res) {
		return none
	}
	for {
		children := p.tree.Children(res)
		if len(children) == 0 || !p.incomplete(children[len(children)-1]) {
			return res
		}
		res = children[len(children)-1]
	}
}

func (p *Processor) incomplete(i int) bool { return p.tree.Node(i).Block.IsIncomplete() }

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// insertionIndex returns the index a child starting at offset would get.
func (p *Processor) insertionIndex(parent, offset int) int {
	children := p.tree.Children(parent)
	for i, c := range children {
		if p.tree.Node(c).Range.Start >= offset {
			return i
		}
	}
	return len(children)
}

// childIndent computes the indentation of a hypothetical child of parent
// at index, using the layout hint of the parent block.
func (p *Processor) childIndent(parent, index int) IndentInfo {
	hint := p.tree.Node(parent).Block.ChildHint(index)
	if hint.Alignment != nil {
		if off := p.AlignmentOffset(hint.Alignment); off >= 0 {
			d := p.splitAlignment(parent, nil, off)
			return IndentInfo{BaseIndent: d.indent, AdditionalIndent: d.spaces, AlignmentOffset: off}
		}
	}

	if hint.Indent != nil && hint.Indent.Type == block.IndentAbsolute {
		return IndentInfo{AlignmentOffset: -1}
	}
	d := p.chainIndent(parent, nil)
	d.indent = max(d.indent+p.indentWidth(hint.Indent), 0)
	return IndentInfo{BaseIndent: d.indent, AdditionalIndent: d.spaces, AlignmentOffset: -1}
}
