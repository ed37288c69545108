// Package template splits an afmt format string into literal and argument
// pieces.
//
// The surface syntax is deliberately small: `{}` consumes the next positional
// argument, `{ident}` names a value in the enclosing scope, and everything
// else is copied verbatim. There is no escape for a literal brace; any `{`
// opens a placeholder.
package template

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/conneroisu/afmt/internal/errors"
)

// Kind tags a Piece.
type Kind int

const (
	// Literal pieces are copied verbatim into the output.
	Literal Kind = iota
	// Argument pieces render one bound argument.
	Argument
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Argument:
		return "argument"
	default:
		return "unknown"
	}
}

// Piece is one unit of output, in emission order.
type Piece struct {
	Kind Kind
	// Text is the verbatim template text of a Literal piece.
	Text string
	// Name is the identifier of a named placeholder, empty for `{}`.
	Name string
	// Arg is the argument expression of an Argument piece.
	Arg ast.Expr
	// Binding is the internal name the generated code stores Arg in. It is
	// assigned by the binder.
	Binding string
	// Offset is the byte offset of the piece within the template.
	Offset int
}

// Named reports whether the piece came from a `{ident}` placeholder.
func (p Piece) Named() bool { return p.Kind == Argument && p.Name != "" }

// Template is a parsed format string.
type Template struct {
	Source string
	Pieces []Piece
	// LiteralLen is the exact byte length of all Literal pieces together.
	LiteralLen int
}

// Arguments supplies positional argument expressions in call-site order.
type Arguments interface {
	// Next returns the next unconsumed argument for the positional
	// placeholder numbered index, or an error if none is left.
	Next(index int) (ast.Expr, error)
}

// Parse splits src into pieces, pulling an expression from args for every
// positional placeholder. Named placeholders become identifiers positioned at
// namePos; they are resolved later. args may be nil for templates without
// positional placeholders.
func Parse(src string, args Arguments, namePos token.Pos) (*Template, error) {
	t := &Template{Source: src}

	current := src
	offset := 0
	positional := 0

	for {
		text, rest, found := strings.Cut(current, "{")
		if !found {
			t.addLiteral(current, offset)
			return t, nil
		}

		name, after, closed := strings.Cut(rest, "}")
		if !closed {
			return nil, errors.ErrUnterminatedPlaceholder(offset + len(text))
		}

		t.addLiteral(text, offset)
		argOffset := offset + len(text)

		piece := Piece{Kind: Argument, Name: name, Offset: argOffset}
		if name == "" {
			if args == nil {
				return nil, errors.ErrMissingArgument(positional)
			}
			expr, err := args.Next(positional)
			if err != nil {
				return nil, err
			}
			piece.Arg = expr
			positional++
		} else {
			ident := ast.NewIdent(name)
			ident.NamePos = namePos
			piece.Arg = ident
		}
		t.Pieces = append(t.Pieces, piece)

		offset = argOffset + len("{") + len(name) + len("}")
		current = after
	}
}

func (t *Template) addLiteral(text string, offset int) {
	t.LiteralLen += len(text)
	t.Pieces = append(t.Pieces, Piece{Kind: Literal, Text: text, Offset: offset})
}

// Arguments returns the Argument pieces in order.
func (t *Template) Arguments() []Piece {
	var out []Piece
	for _, p := range t.Pieces {
		if p.Kind == Argument {
			out = append(out, p)
		}
	}
	return out
}

// ArgumentCount returns the number of Argument pieces.
func (t *Template) ArgumentCount() int {
	n := 0
	for _, p := range t.Pieces {
		if p.Kind == Argument {
			n++
		}
	}
	return n
}

// IsLiteral reports whether the template has no placeholders.
func (t *Template) IsLiteral() bool { return t.ArgumentCount() == 0 }
