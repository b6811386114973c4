package block

import "testing"

func TestTextRangeContains(t *testing.T) {
	r := TextRange{Start: 2, End: 6}
	tests := []struct {
		offset int
		want   bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{5, true},
		{6, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.offset); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestTextRangeIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b TextRange
		want bool
	}{
		{"overlap", TextRange{0, 5}, TextRange{3, 8}, true},
		{"touching", TextRange{0, 5}, TextRange{5, 8}, true},
		{"empty on boundary", TextRange{5, 5}, TextRange{0, 5}, true},
		{"disjoint", TextRange{0, 2}, TextRange{3, 8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpaceConstraintNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   *SpaceConstraint
		want SpaceConstraint
	}{
		{"nil is free", nil, SpaceConstraint{MaxSpaces: Unlimited}},
		{"max below min", Space(3, 1, 0), SpaceConstraint{MinSpaces: 3, MaxSpaces: 3}},
		{"negative values", Space(-2, -1, -4), SpaceConstraint{}},
		{"consistent", Space(1, 2, 1), SpaceConstraint{MinSpaces: 1, MaxSpaces: 2, MinLineFeeds: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.MinSpaces != tt.want.MinSpaces || got.MaxSpaces != tt.want.MaxSpaces || got.MinLineFeeds != tt.want.MinLineFeeds {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWrapIsChildOf(t *testing.T) {
	outer := NewWrap("outer", ChopIfNeeded)
	mid := &Wrap{ID: "mid", Type: WrapAsNeeded, Parent: outer}
	inner := &Wrap{ID: "inner", Type: WrapAsNeeded, Parent: mid}

	if !inner.IsChildOf(outer) {
		t.Error("inner should be a child of outer")
	}
	if outer.IsChildOf(inner) {
		t.Error("outer should not be a child of inner")
	}
	if outer.IsChildOf(outer) {
		t.Error("a wrap is not its own child")
	}
	var nilWrap *Wrap
	if nilWrap.IsChildOf(outer) {
		t.Error("nil wrap has no parents")
	}
}

func TestParseTypes(t *testing.T) {
	for _, wt := range []WrapType{WrapNone, WrapAlways, WrapAsNeeded, ChopIfNeeded} {
		got, err := ParseWrapType(wt.String())
		if err != nil || got != wt {
			t.Errorf("ParseWrapType(%q) = %v, %v", wt.String(), got, err)
		}
	}
	if _, err := ParseWrapType("sometimes"); err == nil {
		t.Error("expected error for unknown wrap type")
	}
	for _, it := range []IndentType{IndentNone, IndentNormal, IndentContinuation, IndentAbsolute, IndentSpaces, IndentLabel} {
		got, err := ParseIndentType(it.String())
		if err != nil || got != it {
			t.Errorf("ParseIndentType(%q) = %v, %v", it.String(), got, err)
		}
	}
}

func TestNodeSpacing(t *testing.T) {
	a := NewLeaf(TextRange{0, 1})
	b := NewLeaf(TextRange{2, 3})
	c := NewLeaf(TextRange{4, 5})
	root := NewComposite(a, b, c)
	root.SetSpacing(0, Space(1, 1, 0))
	root.SetDefaultSpacing(Space(0, 0, 1))

	if got := root.TextRange(); got != (TextRange{0, 5}) {
		t.Errorf("TextRange() = %v, want [0,5)", got)
	}
	if s := root.Spacing(a, b); s == nil || s.MinSpaces != 1 {
		t.Errorf("Spacing(a, b) = %v, want min 1", s)
	}
	if s := root.Spacing(b, c); s == nil || s.MinLineFeeds != 1 {
		t.Errorf("Spacing(b, c) = %v, want default", s)
	}
	if !IsLeaf(a) || IsLeaf(root) {
		t.Error("IsLeaf mismatch")
	}
}

func TestNodeChildHint(t *testing.T) {
	align := NewAlignment("args")
	root := NewComposite(NewLeaf(TextRange{0, 1}))
	root.SetDefaultHint(ChildHint{Indent: NormalIndent()})
	root.SetHint(1, ChildHint{Indent: ContinuationIndent(), Alignment: align})

	if h := root.ChildHint(0); h.Indent.Type != IndentNormal || h.Alignment != nil {
		t.Errorf("ChildHint(0) = %+v, want default", h)
	}
	if h := root.ChildHint(1); h.Indent.Type != IndentContinuation || h.Alignment != align {
		t.Errorf("ChildHint(1) = %+v, want explicit", h)
	}
}
