package fixture

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	fixtureLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: "`[^`]*`|\"(?:\\\\.|[^\"])*\""},
		{Name: "Number", Pattern: `\d+`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[{}()\[\]]`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(fixtureLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
)

// File is the root AST node of a fixture.
type File struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Decls  []*Decl        `parser:"@@*"`
	Source StringLiteral  `parser:"'source' @String"`
	Root   *BlockDecl     `parser:"@@"`
}

// Decl declares a shared wrap or alignment before the tree.
type Decl struct {
	Wrap  *WrapDecl  `parser:"  @@"`
	Align *AlignDecl `parser:"| @@"`
}

// WrapDecl declares a wrap directive:
//
//	wrap args chop first in call
type WrapDecl struct {
	Pos    lexer.Position `parser:"" json:"-"`
	ID     string         `parser:"'wrap' @Ident"`
	Type   string         `parser:"@Ident"`
	First  bool           `parser:"@'first'?"`
	Parent string         `parser:"( 'in' @Ident )?"`
}

// AlignDecl declares an alignment anchor.
type AlignDecl struct {
	Pos lexer.Position `parser:"" json:"-"`
	ID  string         `parser:"'align' @Ident"`
}

// BlockDecl is a composite block and its items.
type BlockDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Attrs []*Attr        `parser:"'block' @@*"`
	Items []*Item        `parser:"'{' @@* '}'"`
}

// Item is one entry of a block body.
type Item struct {
	Block *BlockDecl `parser:"  @@"`
	Token *TokenDecl `parser:"| @@"`
	Space *SpaceDecl `parser:"| @@"`
	Hint  *HintDecl  `parser:"| @@"`
}

// TokenDecl is a leaf, located in the source text by its content.
type TokenDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Text  StringLiteral  `parser:"@String"`
	Attrs []*Attr        `parser:"@@*"`
}

// Attr is a block or token attribute.
type Attr struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Indent     *IndentSpec    `parser:"  'indent' @@"`
	Align      *string        `parser:"| 'align' @Ident"`
	Wrap       *string        `parser:"| 'wrap' @Ident"`
	Incomplete bool           `parser:"| @'incomplete'"`
	Label      *StringLiteral `parser:"| 'label' @String"`
}

// IndentSpec is an indent type with an optional width, e.g. spaces(2).
type IndentSpec struct {
	Type   string `parser:"@Ident"`
	Spaces *int   `parser:"( '(' @Number ')' )?"`
}

// SpaceDecl sets the spacing between two children of the enclosing block:
//
//	space 1 1            # default for every pair
//	space [0] 0 0 lf 1   # between child 0 and child 1
//	space [2] free
//	space 1 1 dep 4 17   # line feed when [4,17) breaks
type SpaceDecl struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Index  *int           `parser:"'space' ( '[' @Number ']' )?"`
	Free   bool           `parser:"@'free'?"`
	Bounds *SpaceBounds   `parser:"@@?"`
}

// SpaceBounds are the numeric part of a space declaration.
type SpaceBounds struct {
	Min int       `parser:"@Number"`
	Max int       `parser:"@Number"`
	LF  int       `parser:"( 'lf' @Number )?"`
	Dep *DepRange `parser:"( 'dep' @@ )?"`
}

// DepRange is a dependency range in source offsets.
type DepRange struct {
	Start int `parser:"@Number"`
	End   int `parser:"@Number"`
}

// HintDecl sets the indent and alignment used for a child inserted at an
// index of the enclosing block.
type HintDecl struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Index  *int           `parser:"'hint' ( '[' @Number ']' )?"`
	Indent *IndentSpec    `parser:"( 'indent' @@ )?"`
	Align  *string        `parser:"( 'align' @Ident )?"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}
