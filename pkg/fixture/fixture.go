package fixture

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/errors"
)

// Fixture is a block tree built over its source text.
type Fixture struct {
	Name   string
	Source string
	Root   *block.Node

	Wraps      map[string]*block.Wrap
	Alignments map[string]*block.Alignment

	// Leaves lists the token blocks in text order.
	Leaves []*block.Node
}

// Parse reads and builds a fixture. Name is used in error positions.
func Parse(name string, r io.Reader) (*Fixture, error) {
	file, err := fileParser.Parse(name, r)
	if err != nil {
		return nil, syntaxError(name, err)
	}
	return Build(name, file)
}

// ParseString builds a fixture from its text.
func ParseString(name, input string) (*Fixture, error) {
	file, err := fileParser.ParseString(name, input)
	if err != nil {
		return nil, syntaxError(name, err)
	}
	return Build(name, file)
}

// Load builds the fixture stored at path.
func Load(path string) (*Fixture, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "fixture %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFixture, err, "open %s", path)
	}
	defer f.Close()
	return Parse(path, f)
}

func syntaxError(name string, err error) error {
	var perr participle.Error
	if stderrors.As(err, &perr) {
		return errors.Wrap(errors.ErrCodeInvalidFixture, err, "%s: %s", perr.Position(), perr.Message())
	}
	return errors.Wrap(errors.ErrCodeInvalidFixture, err, "parse %s", name)
}

// Build resolves declarations and locates every token in the source.
// Tokens are matched in order: each is searched for from the end of the
// previous one.
func Build(name string, file *File) (*Fixture, error) {
	b := &builder{
		fx: &Fixture{
			Name:       name,
			Source:     string(file.Source),
			Wraps:      make(map[string]*block.Wrap),
			Alignments: make(map[string]*block.Alignment),
		},
	}
	if err := b.declare(file.Decls); err != nil {
		return nil, err
	}
	root, err := b.block(file.Root)
	if err != nil {
		return nil, err
	}
	b.fx.Root = root
	return b.fx, nil
}

type builder struct {
	fx     *Fixture
	cursor int
}

func (b *builder) errorf(pos lexer.Position, format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidFixture, "%s: %s", pos, fmt.Sprintf(format, args...))
}

func (b *builder) declare(decls []*Decl) error {
	parents := make(map[*block.Wrap]*WrapDecl)
	for _, d := range decls {
		switch {
		case d.Wrap != nil:
			w := d.Wrap
			if _, dup := b.fx.Wraps[w.ID]; dup {
				return b.errorf(w.Pos, "wrap %q declared twice", w.ID)
			}
			t, err := block.ParseWrapType(w.Type)
			if err != nil {
				return b.errorf(w.Pos, "%v", err)
			}
			wrap := block.NewWrap(w.ID, t)
			wrap.WrapFirstElement = w.First
			b.fx.Wraps[w.ID] = wrap
			if w.Parent != "" {
				parents[wrap] = w
			}
		case d.Align != nil:
			a := d.Align
			if _, dup := b.fx.Alignments[a.ID]; dup {
				return b.errorf(a.Pos, "alignment %q declared twice", a.ID)
			}
			b.fx.Alignments[a.ID] = block.NewAlignment(a.ID)
		}
	}

	for wrap, w := range parents {
		p, ok := b.fx.Wraps[w.Parent]
		if !ok {
			return b.errorf(w.Pos, "wrap %q: unknown parent %q", w.ID, w.Parent)
		}
		if p == wrap || p.IsChildOf(wrap) {
			return b.errorf(w.Pos, "wrap %q: parent cycle through %q", w.ID, w.Parent)
		}
		wrap.Parent = p
	}
	return nil
}

func (b *builder) block(d *BlockDecl) (*block.Node, error) {
	var children []*block.Node
	var spaces []*SpaceDecl
	var hints []*HintDecl

	for _, item := range d.Items {
		switch {
		case item.Block != nil:
			child, err := b.block(item.Block)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		case item.Token != nil:
			child, err := b.token(item.Token)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		case item.Space != nil:
			spaces = append(spaces, item.Space)
		case item.Hint != nil:
			hints = append(hints, item.Hint)
		}
	}
	if len(children) == 0 {
		return nil, b.errorf(d.Pos, "block has no children")
	}

	n := block.NewComposite(children...)
	if err := b.attrs(n, d.Attrs); err != nil {
		return nil, err
	}
	for _, s := range spaces {
		if err := b.space(n, len(children), s); err != nil {
			return nil, err
		}
	}
	for _, h := range hints {
		if err := b.hint(n, len(children), h); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *builder) token(d *TokenDecl) (*block.Node, error) {
	text := string(d.Text)
	src := b.fx.Source
	at := strings.Index(src[b.cursor:], text)
	if at < 0 {
		return nil, b.errorf(d.Pos, "token %q not found in source after offset %d", text, b.cursor)
	}
	start := b.cursor + at
	if text == "" {
		start = b.cursor
	}
	if gap := src[b.cursor:start]; strings.TrimLeft(gap, " \t\r\n") != "" {
		return nil, b.errorf(d.Pos, "token %q skips source text %q", text, gap)
	}
	b.cursor = start + len(text)

	n := block.NewLeaf(block.TextRange{Start: start, End: b.cursor}).SetLabel(text)
	if err := b.attrs(n, d.Attrs); err != nil {
		return nil, err
	}
	b.fx.Leaves = append(b.fx.Leaves, n)
	return n, nil
}

func (b *builder) attrs(n *block.Node, attrs []*Attr) error {
	for _, a := range attrs {
		switch {
		case a.Indent != nil:
			in, err := b.indent(a.Pos, a.Indent)
			if err != nil {
				return err
			}
			n.SetIndent(in)
		case a.Align != nil:
			al, err := b.alignment(a.Pos, *a.Align)
			if err != nil {
				return err
			}
			n.SetAlignment(al)
		case a.Wrap != nil:
			w, ok := b.fx.Wraps[*a.Wrap]
			if !ok {
				return b.errorf(a.Pos, "unknown wrap %q", *a.Wrap)
			}
			n.SetWrap(w)
		case a.Incomplete:
			n.SetIncomplete(true)
		case a.Label != nil:
			n.SetLabel(string(*a.Label))
		}
	}
	return nil
}

func (b *builder) indent(pos lexer.Position, spec *IndentSpec) (*block.Indent, error) {
	t, err := block.ParseIndentType(spec.Type)
	if err != nil {
		return nil, b.errorf(pos, "%v", err)
	}
	in := &block.Indent{Type: t}
	switch {
	case t == block.IndentSpaces && spec.Spaces == nil:
		return nil, b.errorf(pos, "indent spaces needs a width, e.g. spaces(2)")
	case t != block.IndentSpaces && spec.Spaces != nil:
		return nil, b.errorf(pos, "indent %s takes no width", t)
	case spec.Spaces != nil:
		in.Spaces = *spec.Spaces
	}
	return in, nil
}

func (b *builder) alignment(pos lexer.Position, id string) (*block.Alignment, error) {
	a, ok := b.fx.Alignments[id]
	if !ok {
		return nil, b.errorf(pos, "unknown alignment %q", id)
	}
	return a, nil
}

func (b *builder) space(n *block.Node, children int, d *SpaceDecl) error {
	var c *block.SpaceConstraint
	switch {
	case d.Free && d.Bounds != nil:
		return b.errorf(d.Pos, "space is either free or bounded")
	case d.Free:
		c = block.Free()
	case d.Bounds != nil:
		sb := d.Bounds
		if sb.Dep != nil {
			dep := block.TextRange{Start: sb.Dep.Start, End: sb.Dep.End}
			if err := errors.ValidateRange(dep.Start, dep.End, len(b.fx.Source)); err != nil {
				return b.errorf(d.Pos, "dependency: %v", err)
			}
			c = block.DependentSpace(sb.Min, sb.Max, dep)
			c.MinLineFeeds = sb.LF
		} else {
			c = block.Space(sb.Min, sb.Max, sb.LF)
		}
	default:
		return b.errorf(d.Pos, "space needs bounds or free")
	}

	if d.Index == nil {
		n.SetDefaultSpacing(c)
		return nil
	}
	if *d.Index >= children-1 {
		return b.errorf(d.Pos, "space [%d]: block has %d children", *d.Index, children)
	}
	n.SetSpacing(*d.Index, c)
	return nil
}

func (b *builder) hint(n *block.Node, children int, d *HintDecl) error {
	var h block.ChildHint
	if d.Indent != nil {
		in, err := b.indent(d.Pos, d.Indent)
		if err != nil {
			return err
		}
		h.Indent = in
	}
	if d.Align != nil {
		a, err := b.alignment(d.Pos, *d.Align)
		if err != nil {
			return err
		}
		h.Alignment = a
	}

	if d.Index == nil {
		n.SetDefaultHint(h)
		return nil
	}
	if *d.Index > children {
		return b.errorf(d.Pos, "hint [%d]: block has %d children", *d.Index, children)
	}
	n.SetHint(*d.Index, h)
	return nil
}
