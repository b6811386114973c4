package dump

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

// DOTOptions configures the Graphviz dump.
type DOTOptions struct {
	// Detailed adds layout attributes and the constraint to node labels.
	Detailed bool
}

// ToDOT converts tree to Graphviz DOT. Composites are ellipses and tokens
// rounded boxes; an edge into a token is labeled with its whitespace.
func ToDOT(tree *wrapper.Tree, opts config.IndentOptions, dopts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Blocks {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=12, style=filled, fillcolor=white];\n")
	buf.WriteString("  edge [arrowhead=none, fontsize=10];\n\n")

	writeDOT(&buf, Build(tree, opts), dopts.Detailed)

	buf.WriteString("}\n")
	return buf.String()
}

func writeDOT(buf *bytes.Buffer, n *Node, detailed bool) {
	lines := []string{fmt.Sprintf("[%d,%d)", n.Range[0], n.Range[1])}
	if n.Space != nil {
		lines[0] = fmt.Sprintf("%q %s", n.Text, lines[0])
	} else if n.Label != "" {
		lines[0] = n.Label + " " + lines[0]
	}
	if detailed {
		lines = append(lines, attrs(n)...)
		if n.Space != nil {
			lines = append(lines, n.Space.Constraint)
		}
	}
	label := strings.Join(lines, "\n")

	if n.Space != nil {
		fmt.Fprintf(buf, "  n%d [label=%q, shape=box, style=\"filled,rounded\"];\n", n.ID, label)
	} else {
		fmt.Fprintf(buf, "  n%d [label=%q, shape=ellipse];\n", n.ID, label)
	}

	for _, c := range n.Children {
		if c.Space != nil {
			fmt.Fprintf(buf, "  n%d -> n%d [label=%q];\n", n.ID, c.ID, c.Space.Before)
		} else {
			fmt.Fprintf(buf, "  n%d -> n%d;\n", n.ID, c.ID)
		}
		writeDOT(buf, c, detailed)
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
