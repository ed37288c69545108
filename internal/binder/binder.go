// Package binder resolves the placeholders of an //afmt: directive to
// argument expressions.
//
// The binder owns the call-site syntax. It tokenises the directive with
// go/scanner, hands positional argument expressions to the template parser
// one at a time, enforces the comma separators between them, and gives every
// placeholder occurrence its own internal binding name. It never
// deduplicates: `"{x} {x}"` yields two bindings, so the value is rendered
// twice.
package binder

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"

	"github.com/conneroisu/afmt/internal/errors"
	"github.com/conneroisu/afmt/internal/template"
)

// Mode selects the shape of the generated code.
type Mode int

const (
	// Producer allocates a new bstr.Array sized to the bound.
	Producer Mode = iota
	// Writer writes into a caller-supplied destination.
	Writer
)

// String returns the directive keyword for the mode.
func (m Mode) String() string {
	switch m {
	case Producer:
		return "format"
	case Writer:
		return "into"
	default:
		return "unknown"
	}
}

// ParseMode maps a directive keyword to a Mode.
func ParseMode(keyword string) (Mode, bool) {
	switch keyword {
	case "format":
		return Producer, true
	case "into":
		return Writer, true
	}
	return 0, false
}

// DefaultPrefix is the default prefix of synthesized binding names.
const DefaultPrefix = "_arg"

// Directive is the argument text of one //afmt: comment.
type Directive struct {
	Mode Mode
	// Text follows the keyword, e.g. `"{} years", age`.
	Text string
	// Pos is the position of Text[0] in the stub file, or token.NoPos.
	Pos token.Pos
	// Filename names the stub file for expressions parsed out of Text.
	Filename string
}

// Binding is one resolved placeholder occurrence.
type Binding struct {
	// Name is the identifier generated code stores the value in.
	Name string
	// Expr is the argument expression.
	Expr ast.Expr
	// Source is Expr as written in the directive.
	Source string
	// Named is set for `{ident}` placeholders.
	Named bool
	// Index is the ordinal of the binding among all arguments.
	Index int
	// Pos locates the argument in the stub file.
	Pos token.Pos
}

// Invocation is a fully bound directive.
type Invocation struct {
	Mode     Mode
	Template *template.Template
	// TemplatePos locates the template string literal.
	TemplatePos token.Pos
	// Dest is the writer-mode destination expression.
	Dest       ast.Expr
	DestSource string
	DestPos    token.Pos
	Bindings   []Binding
}

// Options tune binding name synthesis.
type Options struct {
	// Prefix of binding names; DefaultPrefix when empty.
	Prefix string
	// Taken reports whether a name is already visible where the generated
	// code will live. Colliding prefixes get extra leading underscores.
	Taken func(name string) bool
}

type tok struct {
	off int
	tok token.Token
	lit string
}

func (t tok) text() string {
	if t.lit != "" {
		return t.lit
	}
	return t.tok.String()
}

// binder carries the state of one Bind call.
type binder struct {
	fset *token.FileSet
	d    Directive
	toks []tok
	// templatePos is where missing-argument diagnostics point.
	templatePos token.Pos
	// sources maps parsed positional arguments to their text and position.
	sources map[ast.Expr]argSource
}

type argSource struct {
	text string
	pos  token.Pos
}

// Bind parses the directive, binds every placeholder and synthesizes
// binding names.
func Bind(fset *token.FileSet, d Directive, opts Options) (*Invocation, error) {
	if fset == nil {
		fset = token.NewFileSet()
	}
	b := &binder{fset: fset, d: d, sources: make(map[ast.Expr]argSource)}

	toks, err := b.tokenize()
	if err != nil {
		return nil, err
	}
	b.toks = toks

	inv := &Invocation{Mode: d.Mode}

	if d.Mode == Writer {
		dest, src, pos, err := b.nextExpr()
		if err != nil {
			return nil, err
		}
		if dest == nil {
			return nil, errors.ErrInvalidDirective("into directive needs a destination and a format string").
				At(fset, b.pos(0))
		}
		if !b.consume(token.COMMA) {
			return nil, errors.ErrMissingSeparator(b.describeNext()).At(fset, b.nextPos())
		}
		inv.Dest, inv.DestSource, inv.DestPos = dest, src, pos
	}

	if len(b.toks) == 0 || b.toks[0].tok != token.STRING {
		return nil, errors.ErrInvalidDirective("expected a format string literal").At(fset, b.nextPos())
	}
	lit := b.toks[0]
	b.toks = b.toks[1:]
	format, err := strconv.Unquote(lit.lit)
	if err != nil {
		return nil, errors.ErrInvalidDirective(fmt.Sprintf("invalid format string %s", lit.lit)).At(fset, b.pos(lit.off))
	}
	b.templatePos = b.pos(lit.off)
	inv.TemplatePos = b.templatePos

	if len(b.toks) > 0 && !b.consume(token.COMMA) {
		return nil, errors.ErrMissingSeparator(b.describeNext()).At(fset, b.nextPos())
	}

	tmpl, err := template.Parse(format, (*argStream)(b), b.templatePos)
	if err != nil {
		if ae, ok := err.(*errors.AfmtError); ok {
			return nil, ae.At(fset, b.templatePos)
		}
		return nil, err
	}

	if len(b.toks) > 0 {
		_, src, pos, _ := b.segment()
		return nil, errors.ErrUnusedArgument(src).At(fset, pos)
	}

	inv.Template = tmpl
	b.assignNames(inv, opts)

	return inv, nil
}

// assignNames gives every Argument piece a fresh binding.
func (b *binder) assignNames(inv *Invocation, opts Options) {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	count := inv.Template.ArgumentCount()
	for opts.Taken != nil && collides(prefix, count, opts.Taken) {
		prefix = "_" + prefix
	}

	index := 0
	for i := range inv.Template.Pieces {
		p := &inv.Template.Pieces[i]
		if p.Kind != template.Argument {
			continue
		}
		p.Binding = prefix + strconv.Itoa(index)

		src := p.Name
		pos := b.templatePos
		if s, ok := b.sources[p.Arg]; ok {
			src, pos = s.text, s.pos
		}
		inv.Bindings = append(inv.Bindings, Binding{
			Name:   p.Binding,
			Expr:   p.Arg,
			Source: src,
			Named:  p.Named(),
			Index:  index,
			Pos:    pos,
		})
		index++
	}
}

func collides(prefix string, count int, taken func(string) bool) bool {
	for i := 0; i < count; i++ {
		if taken(prefix + strconv.Itoa(i)) {
			return true
		}
	}
	return false
}

func (b *binder) tokenize() ([]tok, error) {
	var s scanner.Scanner
	file := token.NewFileSet().AddFile("directive", -1, len(b.d.Text))

	var scanErr error
	s.Init(file, []byte(b.d.Text), func(pos token.Position, msg string) {
		if scanErr == nil {
			scanErr = errors.ErrInvalidDirective(msg).At(b.fset, b.pos(pos.Offset))
		}
	}, 0)

	var toks []tok
	for {
		pos, t, lit := s.Scan()
		if t == token.EOF {
			break
		}
		// Drop the semicolons the scanner inserts at line ends.
		if t == token.SEMICOLON && lit == "\n" {
			continue
		}
		toks = append(toks, tok{off: file.Offset(pos), tok: t, lit: lit})
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return toks, nil
}

// pos maps an offset within the directive text to a stub file position.
func (b *binder) pos(off int) token.Pos {
	if !b.d.Pos.IsValid() {
		return token.NoPos
	}
	return b.d.Pos + token.Pos(off)
}

func (b *binder) nextPos() token.Pos {
	if len(b.toks) == 0 {
		return b.pos(len(b.d.Text))
	}
	return b.pos(b.toks[0].off)
}

func (b *binder) describeNext() string {
	if len(b.toks) == 0 {
		return "end of directive"
	}
	return "`" + b.toks[0].text() + "`"
}

func (b *binder) consume(t token.Token) bool {
	if len(b.toks) > 0 && b.toks[0].tok == t {
		b.toks = b.toks[1:]
		return true
	}
	return false
}

// segment splits off the tokens up to the next top-level comma and returns
// them with their source text.
func (b *binder) segment() ([]tok, string, token.Pos, int) {
	depth := 0
	end := len(b.toks)
loop:
	for i, t := range b.toks {
		switch t.tok {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			depth--
		case token.COMMA:
			if depth == 0 {
				end = i
				break loop
			}
		}
	}
	seg := b.toks[:end]
	b.toks = b.toks[end:]
	if len(seg) == 0 {
		return nil, "", b.nextPos(), 0
	}
	stop := len(b.d.Text)
	if len(b.toks) > 0 {
		stop = b.toks[0].off
	}
	start := seg[0].off
	return seg, strings.TrimSpace(b.d.Text[start:stop]), b.pos(start), start
}

// nextExpr parses the next argument. It returns a nil expression when no
// argument is left.
func (b *binder) nextExpr() (ast.Expr, string, token.Pos, error) {
	if len(b.toks) == 0 {
		return nil, "", token.NoPos, nil
	}
	seg, src, pos, start := b.segment()
	if len(seg) == 0 {
		return nil, "", pos, errors.ErrInvalidArgument("", nil).At(b.fset, pos)
	}

	expr, err := parser.ParseExprFrom(b.fset, b.d.Filename, src, 0)
	if err == nil {
		b.sources[expr] = argSource{text: src, pos: pos}
		return expr, src, pos, nil
	}

	// Two adjacent expressions mean a comma is missing after the first.
	end := start + len(src)
	for k := len(seg) - 1; k > 0; k-- {
		head := b.d.Text[start:seg[k].off]
		tail := b.d.Text[seg[k].off:end]
		if parses(head) && parses(tail) {
			return nil, "", pos, errors.ErrMissingSeparator("`"+seg[k].text()+"`").At(b.fset, b.pos(seg[k].off))
		}
	}
	return nil, "", pos, errors.ErrInvalidArgument(src, err).At(b.fset, pos)
}

func parses(src string) bool {
	_, err := parser.ParseExpr(strings.TrimSpace(src))
	return err == nil
}

// argStream feeds positional arguments to the template parser.
type argStream binder

// Next implements template.Arguments.
func (a *argStream) Next(index int) (ast.Expr, error) {
	b := (*binder)(a)
	expr, _, _, err := b.nextExpr()
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return nil, errors.ErrMissingArgument(index).At(b.fset, b.templatePos)
	}
	b.consume(token.COMMA)
	return expr, nil
}
