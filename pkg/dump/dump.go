// Package dump renders a wrapper tree for debugging.
//
// Every node is reported with its text range, alignment id, indent type and
// wrap directive. Every token additionally carries the whitespace before it
// and the space constraint governing that whitespace, so a dump of a solved
// tree shows exactly why each gap has its layout.
//
// # Formats
//
//   - [JSON]: the [Node] tree, for fixtures and the HTTP API
//   - [Text]: an indented outline, for terminals
//   - [ToDOT] / [RenderSVG]: a Graphviz diagram
package dump

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

// Node is the dump of one wrapper.
type Node struct {
	ID         int     `json:"id"`
	Label      string  `json:"label,omitempty"`
	Range      [2]int  `json:"range"`
	Text       string  `json:"text,omitempty"`
	Indent     string  `json:"indent,omitempty"`
	Alignment  string  `json:"alignment,omitempty"`
	Wrap       *Wrap   `json:"wrap,omitempty"`
	Incomplete bool    `json:"incomplete,omitempty"`
	Space      *Space  `json:"space,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// Wrap describes a wrap directive.
type Wrap struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	First  bool   `json:"first,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// Space describes the whitespace before a token.
type Space struct {
	Constraint string `json:"constraint"`
	Before     string `json:"before"`
	LineFeeds  int    `json:"line_feeds"`
	Spaces     int    `json:"spaces"`
	Indent     int    `json:"indent"`
	ReadOnly   bool   `json:"read_only,omitempty"`
}

// Build converts tree into a dump. Whitespace is rendered with opts.
func Build(tree *wrapper.Tree, opts config.IndentOptions) *Node {
	return build(tree, tree.Root(), opts)
}

func build(tree *wrapper.Tree, i int, opts config.IndentOptions) *Node {
	w := tree.Node(i)
	b := w.Block
	n := &Node{
		ID:         i,
		Label:      label(b),
		Range:      [2]int{w.Range.Start, w.Range.End},
		Incomplete: b.IsIncomplete(),
	}
	if in := b.Indent(); in != nil {
		n.Indent = indentName(in)
	}
	if a := b.Alignment(); a != nil {
		n.Alignment = a.ID
	}
	if wr := b.Wrap(); wr != nil {
		n.Wrap = &Wrap{ID: wr.ID, Type: wr.Type.String(), First: wr.WrapFirstElement}
		if wr.Parent != nil {
			n.Wrap.Parent = wr.Parent.ID
		}
	}

	if w.IsLeaf() {
		n.Text = tree.NodeText(i)
		ws := tree.WhiteSpace(w.Leaf)
		n.Space = &Space{
			Constraint: tree.Constraint(w.Leaf).String(),
			Before:     ws.Render(opts),
			LineFeeds:  ws.LineFeeds,
			Spaces:     ws.Spaces,
			Indent:     ws.IndentSpaces,
			ReadOnly:   ws.ReadOnly,
		}
		return n
	}

	for _, c := range tree.Children(i) {
		n.Children = append(n.Children, build(tree, c, opts))
	}
	return n
}

func label(b block.Block) string {
	if l, ok := b.(interface{ Label() string }); ok {
		return l.Label()
	}
	return ""
}

func indentName(in *block.Indent) string {
	if in.Type == block.IndentSpaces {
		return fmt.Sprintf("spaces(%d)", in.Spaces)
	}
	return in.Type.String()
}

// JSON returns the indented JSON dump of tree.
func JSON(tree *wrapper.Tree, opts config.IndentOptions) ([]byte, error) {
	return json.MarshalIndent(Build(tree, opts), "", "  ")
}

// Text returns an indented outline of tree, one node per line.
func Text(tree *wrapper.Tree, opts config.IndentOptions) string {
	var sb strings.Builder
	writeText(&sb, Build(tree, opts), 0)
	return sb.String()
}

func writeText(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if n.Space != nil {
		fmt.Fprintf(sb, "%q [%d,%d)", n.Text, n.Range[0], n.Range[1])
	} else {
		fmt.Fprintf(sb, "block [%d,%d)", n.Range[0], n.Range[1])
		if n.Label != "" {
			fmt.Fprintf(sb, " %q", n.Label)
		}
	}
	for _, attr := range attrs(n) {
		sb.WriteString(" " + attr)
	}
	if n.Space != nil {
		fmt.Fprintf(sb, " before=%q %s", n.Space.Before, n.Space.Constraint)
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		writeText(sb, c, depth+1)
	}
}

// attrs lists the layout attributes of n as key=value pairs.
func attrs(n *Node) []string {
	var out []string
	if n.Indent != "" {
		out = append(out, "indent="+n.Indent)
	}
	if n.Alignment != "" {
		out = append(out, "align="+n.Alignment)
	}
	if n.Wrap != nil {
		out = append(out, fmt.Sprintf("wrap=%s:%s", n.Wrap.ID, n.Wrap.Type))
	}
	if n.Incomplete {
		out = append(out, "incomplete")
	}
	return out
}
