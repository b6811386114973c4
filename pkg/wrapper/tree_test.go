package wrapper

import (
	"testing"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/errors"
)

func leaf(s, e int) *block.Node { return block.NewLeaf(block.TextRange{Start: s, End: e}) }

func TestBuildLeafChain(t *testing.T) {
	// "A B\n  C"
	text := "A B\n  C"
	a, b, c := leaf(0, 1), leaf(2, 3), leaf(6, 7)
	inner := block.NewComposite(b, c)
	root := block.NewComposite(a, inner)

	tree, err := Build(root, text, Options{TabSize: 4})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := tree.NumLeaves(); got != 3 {
		t.Fatalf("NumLeaves() = %d, want 3", got)
	}
	if tree.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tree.Len())
	}

	tests := []struct {
		leaf      int
		wantRange block.TextRange
		wantLF    int
		wantSp    int
	}{
		{0, block.TextRange{Start: 0, End: 0}, 0, 0},
		{1, block.TextRange{Start: 1, End: 2}, 0, 1},
		{2, block.TextRange{Start: 3, End: 6}, 1, 2},
	}
	for _, tt := range tests {
		ws := tree.WhiteSpace(tt.leaf)
		if ws.Range != tt.wantRange || ws.LineFeeds != tt.wantLF || ws.Spaces != tt.wantSp {
			t.Errorf("leaf %d whitespace = %+v, want range %s lf %d spaces %d", tt.leaf, ws, tt.wantRange, tt.wantLF, tt.wantSp)
		}
	}

	innerIdx := tree.Parent(tree.LeafNode(1))
	if tree.Node(innerIdx).FirstLeaf != 1 || tree.Node(innerIdx).LastLeaf != 2 {
		t.Errorf("inner leaves = %d..%d, want 1..2", tree.Node(innerIdx).FirstLeaf, tree.Node(innerIdx).LastLeaf)
	}
	if tree.LeafWhiteSpaceOf(innerIdx).ContainsLineFeeds() {
		t.Error("inner block should not start a line")
	}
	if !tree.LeafWhiteSpaceOf(tree.LeafNode(2)).ContainsLineFeeds() {
		t.Error("C should start a line")
	}

	var path []int
	tree.Ancestors(tree.LeafNode(2), func(i int) bool {
		path = append(path, i)
		return true
	})
	if len(path) != 3 || path[1] != innerIdx || path[2] != tree.Root() {
		t.Errorf("Ancestors(C) = %v, want C, inner, root", path)
	}
	var visited int
	tree.Ancestors(tree.LeafNode(2), func(int) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("Ancestors kept walking after fn returned false: %d calls", visited)
	}
}

func TestBuildInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
		root func() block.Block
	}{
		{
			name: "overlapping children",
			text: "abcdef",
			root: func() block.Block {
				return block.NewComposite(leaf(0, 3), leaf(2, 5)).SetRange(block.TextRange{Start: 0, End: 5})
			},
		},
		{
			name: "child outside parent",
			text: "abcdef",
			root: func() block.Block {
				return block.NewComposite(leaf(0, 2), leaf(3, 4)).SetRange(block.TextRange{Start: 0, End: 3})
			},
		},
		{
			name: "non-whitespace gap",
			text: "a x b",
			root: func() block.Block { return block.NewComposite(leaf(0, 1), leaf(4, 5)) },
		},
		{
			name: "past end of text",
			text: "ab",
			root: func() block.Block { return block.NewComposite(leaf(0, 1), leaf(1, 9)) },
		},
		{
			name: "nil root",
			text: "ab",
			root: func() block.Block { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.root(), tt.text, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidBlockTree) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidBlockTree)
			}
		})
	}
}

func TestBuildReportsAllProblems(t *testing.T) {
	root := block.NewComposite(leaf(0, 1), leaf(4, 5), leaf(8, 9))
	_, err := Build(root, "a x b y c", Options{})
	var ibt *errors.InvalidBlockTreeError
	if !asInvalid(err, &ibt) {
		t.Fatalf("expected InvalidBlockTreeError, got %v", err)
	}
	if len(ibt.Problems) != 2 {
		t.Errorf("Problems = %v, want 2 entries", ibt.Problems)
	}
}

func asInvalid(err error, target **errors.InvalidBlockTreeError) bool {
	e, ok := err.(*errors.InvalidBlockTreeError)
	if ok {
		*target = e
	}
	return ok
}

func TestSpacingFromCommonAncestor(t *testing.T) {
	text := "a b c"
	a, b, c := leaf(0, 1), leaf(2, 3), leaf(4, 5)
	inner := block.NewComposite(b, c).SetSpacing(0, block.Space(2, 2, 0))
	root := block.NewComposite(a, inner).SetSpacing(0, block.Space(0, 0, 1))

	tree, err := Build(root, text, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Constraint(1); got.MinLineFeeds != 1 || got.MaxSpaces != 0 {
		t.Errorf("a-b constraint = %v, want root spacing", got)
	}
	if got := tree.Constraint(2); got.MinSpaces != 2 {
		t.Errorf("b-c constraint = %v, want inner spacing", got)
	}
	if got := tree.Constraint(0); got.MaxSpaces != block.Unlimited {
		t.Errorf("first constraint = %v, want free", got)
	}
}

func TestWrapsInnermostFirst(t *testing.T) {
	outer := block.NewWrap("outer", block.ChopIfNeeded)
	inner := block.NewWrap("inner", block.WrapAlways)
	a, b := leaf(0, 1), leaf(2, 3)
	a.SetWrap(inner)
	group := block.NewComposite(a, b).SetWrap(outer)
	root := block.NewComposite(group)

	tree, err := Build(root, "a b", Options{})
	if err != nil {
		t.Fatal(err)
	}
	wraps := tree.Wraps(0)
	if len(wraps) != 2 || wraps[0] != inner || wraps[1] != outer {
		t.Errorf("Wraps(0) = %v, want [inner outer]", wraps)
	}
	if len(tree.Wraps(1)) != 0 {
		t.Errorf("Wraps(1) = %v, want none", tree.Wraps(1))
	}
}

func TestGluedZeroLengthLeaf(t *testing.T) {
	// "a  b" with an empty placeholder at offset 2
	a, p, b := leaf(0, 1), leaf(2, 2), leaf(3, 4)
	root := block.NewComposite(a, p, b).
		SetSpacing(0, block.Space(0, 0, 0)).
		SetSpacing(1, block.Space(1, 1, 0))

	tree, err := Build(root, "a  b", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if tree.WhiteSpace(1) != tree.WhiteSpace(2) {
		t.Fatal("placeholder should share whitespace with its successor")
	}
	ws := tree.WhiteSpace(2)
	if ws.Range != (block.TextRange{Start: 1, End: 3}) || ws.Initial != "  " {
		t.Errorf("shared whitespace = %+v", ws)
	}
	if tree.Constraint(1) != tree.Constraint(2) || tree.Constraint(1).MinSpaces != 1 {
		t.Errorf("glued constraint should be the successor's, got %v", tree.Constraint(1))
	}
}

func TestReadOnlyOutsideAffected(t *testing.T) {
	text := "a b c d"
	root := block.NewComposite(leaf(0, 1), leaf(2, 3), leaf(4, 5), leaf(6, 7))
	tree, err := Build(root, text, Options{Affected: &block.TextRange{Start: 4, End: 5}})
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{true, true, false, false}
	for l, ro := range want {
		if got := tree.WhiteSpace(l).ReadOnly; got != ro {
			t.Errorf("leaf %d ReadOnly = %v, want %v", l, got, ro)
		}
	}
}

func TestContainsLineFeeds(t *testing.T) {
	text := "a b\nc d"
	root := block.NewComposite(leaf(0, 1), leaf(2, 3), leaf(4, 5), leaf(6, 7))
	tree, err := Build(root, text, Options{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		r    block.TextRange
		want bool
	}{
		{block.TextRange{Start: 0, End: 3}, false},
		{block.TextRange{Start: 0, End: 5}, true},
		{block.TextRange{Start: 2, End: 5}, true},
		{block.TextRange{Start: 4, End: 7}, false},
		{block.TextRange{Start: 9, End: 10}, false},
	}
	for _, tt := range tests {
		if got := tree.ContainsLineFeeds(tt.r); got != tt.want {
			t.Errorf("ContainsLineFeeds(%s) = %v, want %v", tt.r, got, tt.want)
		}
	}

	tree.WhiteSpace(3).EnsureLineFeed()
	if !tree.ContainsLineFeeds(block.TextRange{Start: 4, End: 7}) {
		t.Error("ContainsLineFeeds should see the inserted line break")
	}
}

func TestMultiLineToken(t *testing.T) {
	text := "x \"ab\ncde\" y"
	root := block.NewComposite(leaf(0, 1), leaf(2, 10), leaf(11, 12))
	tree, err := Build(root, text, Options{})
	if err != nil {
		t.Fatal(err)
	}
	tok := tree.Token(1)
	if !tok.HasLineFeed || tok.LastLineWidth != 4 {
		t.Errorf("Token(1) = %+v, want line feed and width 4", tok)
	}
	if !tree.ContainsLineFeeds(block.TextRange{Start: 2, End: 10}) {
		t.Error("multi-line token should contain line feeds")
	}
}

func TestWhiteSpaceRender(t *testing.T) {
	spaces := config.Default().Indent
	tabs := spaces
	tabs.UseTabs = true

	tests := []struct {
		name string
		ws   WhiteSpace
		opts config.IndentOptions
		want string
	}{
		{"single line", WhiteSpace{Spaces: 2}, spaces, "  "},
		{"indent", WhiteSpace{LineFeeds: 1, IndentSpaces: 4}, spaces, "\n    "},
		{"indent and align", WhiteSpace{LineFeeds: 2, IndentSpaces: 4, Spaces: 3}, spaces, "\n\n       "},
		{"tabs", WhiteSpace{LineFeeds: 1, IndentSpaces: 6, Spaces: 1}, tabs, "\n\t   "},
		{"read only", WhiteSpace{Initial: " \t", ReadOnly: true, Spaces: 9}, spaces, " \t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ws.Render(tt.opts); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWhiteSpaceArrange(t *testing.T) {
	ws := newWhiteSpace(block.TextRange{}, "     ", 4)
	ws.ArrangeSpaces(block.SpaceConstraint{MinSpaces: 1, MaxSpaces: 2})
	if ws.Spaces != 2 {
		t.Errorf("Spaces = %d, want 2", ws.Spaces)
	}

	ws.ArrangeLineFeeds(1)
	if ws.LineFeeds != 1 {
		t.Errorf("LineFeeds = %d, want 1", ws.LineFeeds)
	}
	ws.RemoveLineFeeds(block.SpaceConstraint{MinSpaces: 1, MaxSpaces: 1}, 0)
	if ws.LineFeeds != 0 || ws.Spaces != 1 {
		t.Errorf("after RemoveLineFeeds = %+v", ws)
	}

	ro := newWhiteSpace(block.TextRange{}, " ", 4)
	ro.ReadOnly = true
	ro.EnsureLineFeed()
	ro.SetSpaces(3, 3)
	if ro.LineFeeds != 0 || ro.Spaces != 1 {
		t.Errorf("read-only whitespace changed: %+v", ro)
	}
}

func TestInitialColumnWithTabs(t *testing.T) {
	ws := newWhiteSpace(block.TextRange{}, "\n\t  ", 4)
	if ws.LineFeeds != 1 || ws.Spaces != 6 {
		t.Errorf("got %+v, want 1 line feed and column 6", ws)
	}
	if ws.Changed(config.Default().Indent) != true {
		t.Error("tab indentation should render differently with spaces")
	}
}

func TestColumnWidth(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"\tx", 5},
		{"ab\t", 4},
		{"日本", 4},
	}
	for _, tt := range tests {
		if got := columnWidth(tt.s, 4); got != tt.want {
			t.Errorf("columnWidth(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}
