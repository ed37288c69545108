package capacity

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/conneroisu/afmt/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bstrSource = `package bstr

type Array[A any] struct {
	n   int
	buf A
}

func (s *Array[A]) Bytes() []byte                   { return nil }
func (s *Array[A]) AppendBounded(dst []byte) []byte { return dst }
func (s *Array[A]) MaxLen() int                     { return len(s.Bytes()) }

type CapStr[A any] string

func (c CapStr[A]) AppendBounded(dst []byte) []byte { return dst }
func (c CapStr[A]) MaxLen() int                     { return 0 }
`

const stubSource = `package greet

import "github.com/conneroisu/afmt/pkg/bstr"

const width = 8

const greeting = "hello"

type Celsius int16

type Tag struct{ v uint8 }

func (t Tag) AppendBounded(dst []byte) []byte { return dst }
func (Tag) MaxLen() int                       { return 3 }

type Ptr struct{}

func (p *Ptr) AppendBounded(dst []byte) []byte { return dst }
func (p *Ptr) MaxLen() int                     { return 2 * width }

type Dynamic struct{ n int }

func (d Dynamic) AppendBounded(dst []byte) []byte { return dst }
func (d Dynamic) MaxLen() int                     { return d.n }

type Unit int

func (Unit) AppendBounded(dst []byte) []byte { return dst }
func (Unit) MaxLen() int                     { return 7 }

type Wrong struct{}

func (Wrong) AppendBounded(dst string) string { return dst }
func (Wrong) MaxLen() int                     { return 1 }

var global float32

func Stub(name bstr.CapStr[[32]byte], age uint8, buf *bstr.Array[[16]byte], arr bstr.Array[[8]byte],
	tag Tag, p Ptr, pp *Ptr, d Dynamic, c Celsius, u Unit, w Wrong, s string, ok bool, f float64, i int,
	m map[string]int) {
	_ = 0
}
`

type mapImporter map[string]*types.Package

func (m mapImporter) Import(path string) (*types.Package, error) {
	if p, ok := m[path]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("package %q not found", path)
}

func newInfo() *types.Info {
	return &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
}

func setup(t *testing.T) (*Resolver, Scope) {
	t.Helper()
	fset := token.NewFileSet()
	decls := DeclIndex{}

	bf, err := parser.ParseFile(fset, "bstr.go", bstrSource, 0)
	require.NoError(t, err)
	binfo := newInfo()
	bpkg, err := (&types.Config{}).Check(BstrPath, fset, []*ast.File{bf}, binfo)
	require.NoError(t, err)
	decls.Index([]*ast.File{bf}, binfo)

	sf, err := parser.ParseFile(fset, "stub.go", stubSource, 0)
	require.NoError(t, err)
	info := newInfo()
	conf := types.Config{Importer: mapImporter{BstrPath: bpkg}}
	pkg, err := conf.Check("example.com/greet", fset, []*ast.File{sf}, info)
	require.NoError(t, err)
	decls.Index([]*ast.File{sf}, info)

	var pos token.Pos
	for _, d := range sf.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name.Name == "Stub" {
			pos = fd.Body.Lbrace + 1
		}
	}
	require.True(t, pos.IsValid())

	return NewResolver(decls), Scope{Fset: fset, Pkg: pkg, Pos: pos}
}

func resolve(t *testing.T, r *Resolver, s Scope, src string) (Capability, error) {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	require.NoError(t, err)
	return r.Argument(s, expr, src)
}

func TestResolveCapabilities(t *testing.T) {
	r, s := setup(t)

	tests := []struct {
		src    string
		maxLen int
		method RenderMethod
		addr   bool
	}{
		{"name", 32, MethodRenderer, false},
		{"age", 3, MethodUint, false},
		{"age + 1", 3, MethodUint, false},
		{"buf", 16, MethodBytes, false},
		{"arr", 8, MethodBytes, false},
		{"tag", 3, MethodRenderer, false},
		{"p", 16, MethodRenderer, true},
		{"pp", 16, MethodRenderer, false},
		{"c", 6, MethodInt, false},
		{"u", 7, MethodRenderer, false},
		{"ok", 5, MethodBool, false},
		{"f", 24, MethodFloat64, false},
		{"global", 15, MethodFloat32, false},
		{"i", 20, MethodInt, false},
		{"int32(i)", 11, MethodInt, false},
		{"uint64(i)", 20, MethodUint, false},
		{"greeting", 5, MethodString, false},
		{`"abc"`, 3, MethodString, false},
		{`greeting + "!"`, 6, MethodString, false},
		{`""`, 0, MethodString, false},
		{"42", 20, MethodInt, false},
		{"1.5", 24, MethodFloat64, false},
		{"'x'", 11, MethodInt, false},
		{"true", 5, MethodBool, false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			c, err := resolve(t, r, s, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.maxLen, c.MaxLen)
			assert.Equal(t, tt.method, c.Method)
			assert.Equal(t, tt.addr, c.Addr)
		})
	}
}

func TestResolveFailures(t *testing.T) {
	r, s := setup(t)

	tests := []struct {
		src  string
		code string
	}{
		{"missing", errors.ErrCodeUnknownArgument},
		{"missing + 1", errors.ErrCodeInvalidArgument},
		{"int", errors.ErrCodeInvalidArgument},
		{"d", errors.ErrCodeNotRenderable},
		{"w", errors.ErrCodeNotRenderable},
		{"s", errors.ErrCodeNotRenderable},
		{"m", errors.ErrCodeNotRenderable},
		{"1i", errors.ErrCodeNotRenderable},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := resolve(t, r, s, tt.src)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.Code(err), err.Error())
		})
	}
}

func TestResolveComputedMaxLenReason(t *testing.T) {
	r, s := setup(t)

	_, err := resolve(t, r, s, "d")
	var ae *errors.AfmtError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "MaxLen must return a constant", ae.Context["reason"])
	assert.Equal(t, "greet.Dynamic", ae.Context["type"])
}

func TestResolveDestination(t *testing.T) {
	r, s := setup(t)

	check := func(src string) (Destination, error) {
		expr, err := parser.ParseExpr(src)
		require.NoError(t, err)
		tv, err := r.TypeOf(s, expr, src)
		require.NoError(t, err)
		return r.Destination(tv, src)
	}

	d, err := check("buf")
	require.NoError(t, err)
	assert.Equal(t, 16, d.Capacity)
	assert.Equal(t, "[16]byte", types.TypeString(d.Array, nil))
	assert.Equal(t, "*bstr.Array[[16]byte]", d.Type)

	for _, src := range []string{"arr", "name", "age", "&name"} {
		_, err := check(src)
		assert.Equal(t, errors.ErrCodeInvalidDestination, errors.Code(err), src)
	}
}
