package block

import (
	"fmt"
	"math"
)

// =============================================================================
// Spacing
// =============================================================================

// Unlimited is used as MaxSpaces when no upper bound applies.
const Unlimited = math.MaxInt32

// SpaceConstraint bounds the whitespace placed before a token.
//
// When the whitespace contains no line break, the number of spaces is
// clamped to [MinSpaces, MaxSpaces]. When it does, at least MinLineFeeds
// line breaks are kept.
//
// A non-nil Dependency makes the line-feed requirement conditional: the
// whitespace requires max(1, MinLineFeeds) line feeds if the dependency
// range currently contains a line break, and none otherwise.
type SpaceConstraint struct {
	MinSpaces    int        `json:"min_spaces"`
	MaxSpaces    int        `json:"max_spaces"`
	MinLineFeeds int        `json:"min_line_feeds"`
	Dependency   *TextRange `json:"dependency,omitempty"`
}

// Space returns a constraint with fixed bounds.
func Space(minSpaces, maxSpaces, minLineFeeds int) *SpaceConstraint {
	return &SpaceConstraint{MinSpaces: minSpaces, MaxSpaces: maxSpaces, MinLineFeeds: minLineFeeds}
}

// DependentSpace returns a constraint that requires a line break exactly when
// dep contains one.
func DependentSpace(minSpaces, maxSpaces int, dep TextRange) *SpaceConstraint {
	return &SpaceConstraint{MinSpaces: minSpaces, MaxSpaces: maxSpaces, MinLineFeeds: 1, Dependency: &dep}
}

// Free returns a constraint that accepts any whitespace.
func Free() *SpaceConstraint {
	return &SpaceConstraint{MaxSpaces: Unlimited}
}

// Normalize returns a copy with inconsistent bounds clamped: negative values
// become zero and a maximum below the minimum is raised to the minimum.
// A nil receiver normalizes to [Free].
func (c *SpaceConstraint) Normalize() SpaceConstraint {
	if c == nil {
		return *Free()
	}
	n := *c
	n.MinSpaces = max(n.MinSpaces, 0)
	n.MaxSpaces = max(n.MaxSpaces, n.MinSpaces)
	n.MinLineFeeds = max(n.MinLineFeeds, 0)
	return n
}

// String formats the constraint for debug output.
func (c SpaceConstraint) String() string {
	s := fmt.Sprintf("space(min=%d max=%d lf=%d", c.MinSpaces, c.MaxSpaces, c.MinLineFeeds)
	if c.Dependency != nil {
		s += " dep=" + c.Dependency.String()
	}
	return s + ")"
}

// =============================================================================
// Alignment
// =============================================================================

// Alignment is a shared column anchor. Blocks referencing the same
// *Alignment are aligned to each other; the value itself carries no mutable
// state.
type Alignment struct {
	ID string
}

// NewAlignment creates an alignment anchor with a debug identifier.
func NewAlignment(id string) *Alignment { return &Alignment{ID: id} }

// =============================================================================
// Wrap
// =============================================================================

// WrapType selects when a wrap directive forces a line break.
type WrapType int

const (
	// WrapNone never breaks.
	WrapNone WrapType = iota
	// WrapAlways breaks before every covered element.
	WrapAlways
	// WrapAsNeeded breaks only where the line would exceed the right margin.
	WrapAsNeeded
	// ChopIfNeeded breaks before every covered element once any of them
	// would exceed the right margin.
	ChopIfNeeded
)

var wrapTypeNames = map[WrapType]string{
	WrapNone:     "none",
	WrapAlways:   "always",
	WrapAsNeeded: "as-needed",
	ChopIfNeeded: "chop",
}

// String returns the lower-case name used in fixtures and dumps.
func (t WrapType) String() string {
	if s, ok := wrapTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("WrapType(%d)", int(t))
}

// ParseWrapType parses the names produced by [WrapType.String].
func ParseWrapType(s string) (WrapType, error) {
	for t, name := range wrapTypeNames {
		if name == s {
			return t, nil
		}
	}
	return WrapNone, fmt.Errorf("unknown wrap type %q", s)
}

// Wrap is a shared wrap directive. The same *Wrap may be attached to many
// blocks; a chop directive then breaks before all of them or none.
type Wrap struct {
	ID   string
	Type WrapType

	// WrapFirstElement makes the directive applicable at the first element it
	// covers. Otherwise the first element never breaks.
	WrapFirstElement bool

	// Parent is the enclosing directive, if any.
	Parent *Wrap
}

// NewWrap creates a wrap directive.
func NewWrap(id string, t WrapType) *Wrap { return &Wrap{ID: id, Type: t} }

// IsChildOf reports whether parent is a strict ancestor of w.
func (w *Wrap) IsChildOf(parent *Wrap) bool {
	if w == nil || parent == nil {
		return false
	}
	for p := w.Parent; p != nil; p = p.Parent {
		if p == parent {
			return true
		}
	}
	return false
}

// =============================================================================
// Indent
// =============================================================================

// IndentType selects how an indent is computed.
type IndentType int

const (
	// IndentNone adds nothing to the parent's indentation.
	IndentNone IndentType = iota
	// IndentNormal adds one indent unit.
	IndentNormal
	// IndentContinuation adds one continuation indent unit.
	IndentContinuation
	// IndentAbsolute places the block at column zero regardless of nesting.
	IndentAbsolute
	// IndentSpaces adds a fixed number of spaces.
	IndentSpaces
	// IndentLabel outdents by half an indent unit, clamped at column zero.
	IndentLabel
)

var indentTypeNames = map[IndentType]string{
	IndentNone:         "none",
	IndentNormal:       "normal",
	IndentContinuation: "continuation",
	IndentAbsolute:     "absolute",
	IndentSpaces:       "spaces",
	IndentLabel:        "label",
}

// String returns the lower-case name used in fixtures and dumps.
func (t IndentType) String() string {
	if s, ok := indentTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("IndentType(%d)", int(t))
}

// ParseIndentType parses the names produced by [IndentType.String].
func ParseIndentType(s string) (IndentType, error) {
	for t, name := range indentTypeNames {
		if name == s {
			return t, nil
		}
	}
	return IndentNone, fmt.Errorf("unknown indent type %q", s)
}

// Indent is the indentation of a block relative to its parent.
type Indent struct {
	Type IndentType
	// Spaces is the width used by IndentSpaces.
	Spaces int
}

// NoneIndent returns an indent adding nothing.
func NoneIndent() *Indent { return &Indent{Type: IndentNone} }

// NormalIndent returns a one-unit indent.
func NormalIndent() *Indent { return &Indent{Type: IndentNormal} }

// ContinuationIndent returns a continuation indent.
func ContinuationIndent() *Indent { return &Indent{Type: IndentContinuation} }

// AbsoluteIndent returns an indent pinned to column zero.
func AbsoluteIndent() *Indent { return &Indent{Type: IndentAbsolute} }

// SpaceIndent returns an indent of n spaces.
func SpaceIndent(n int) *Indent { return &Indent{Type: IndentSpaces, Spaces: n} }

// LabelIndent returns a half-unit outdent.
func LabelIndent() *Indent { return &Indent{Type: IndentLabel} }
