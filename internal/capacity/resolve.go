package capacity

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/conneroisu/afmt/internal/errors"
)

// BstrPath is the import path of the runtime package generated code writes
// into.
const BstrPath = "github.com/conneroisu/afmt/pkg/bstr"

type basicCapability struct {
	maxLen int
	method RenderMethod
}

// basics holds the longest base-10 rendering of each basic type, sign
// included. Floats use the shortest form that round-trips.
var basics = map[types.BasicKind]basicCapability{
	types.Bool:    {5, MethodBool},
	types.Int8:    {4, MethodInt},
	types.Int16:   {6, MethodInt},
	types.Int32:   {11, MethodInt},
	types.Int64:   {20, MethodInt},
	types.Int:     {20, MethodInt},
	types.Uint8:   {3, MethodUint},
	types.Uint16:  {5, MethodUint},
	types.Uint32:  {10, MethodUint},
	types.Uint64:  {20, MethodUint},
	types.Uint:    {20, MethodUint},
	types.Uintptr: {20, MethodUint},
	types.Float32: {15, MethodFloat32},
	types.Float64: {24, MethodFloat64},
}

// Decl is a function declaration with the type information of its package.
type Decl struct {
	Node *ast.FuncDecl
	Info *types.Info
}

// DeclIndex maps declared functions and methods to their syntax. The
// resolver reads MaxLen bodies through it.
type DeclIndex map[*types.Func]Decl

// Index records every function declaration in files.
func (idx DeclIndex) Index(files []*ast.File, info *types.Info) {
	if info == nil {
		return
	}
	for _, f := range files {
		for _, d := range f.Decls {
			fd, ok := d.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn, ok := info.Defs[fd.Name].(*types.Func); ok {
				idx[fn] = Decl{Node: fd, Info: info}
			}
		}
	}
}

// Scope is where the arguments of one invocation are evaluated.
type Scope struct {
	Fset *token.FileSet
	Pkg  *types.Package
	// Pos lies inside the body of the stub function, so its parameters are
	// visible.
	Pos token.Pos
}

// Destination is a resolved writer-mode destination.
type Destination struct {
	Capacity int
	// Array is the byte array type argument of the bstr.Array.
	Array types.Type
	Type  string
}

// Resolver resolves the capability of argument expressions.
type Resolver struct {
	decls     DeclIndex
	qualifier types.Qualifier
}

// NewResolver returns a Resolver reading MaxLen bodies from decls. Type
// names in diagnostics are qualified by package name.
func NewResolver(decls DeclIndex) *Resolver {
	if decls == nil {
		decls = DeclIndex{}
	}
	return &Resolver{
		decls:     decls,
		qualifier: func(p *types.Package) string { return p.Name() },
	}
}

// TypeOf type-checks expr at s.Pos.
func (r *Resolver) TypeOf(s Scope, expr ast.Expr, src string) (types.TypeAndValue, error) {
	if id, ok := expr.(*ast.Ident); ok {
		scope := s.Pkg.Scope().Innermost(s.Pos)
		if scope == nil {
			scope = s.Pkg.Scope()
		}
		if _, obj := scope.LookupParent(id.Name, s.Pos); obj == nil {
			return types.TypeAndValue{}, errors.ErrUnknownArgument(id.Name)
		}
	}

	info := &types.Info{Types: make(map[ast.Expr]types.TypeAndValue)}
	if err := types.CheckExpr(s.Fset, s.Pkg, s.Pos, expr, info); err != nil {
		return types.TypeAndValue{}, errors.ErrInvalidArgument(src, err)
	}
	tv, ok := info.Types[expr]
	if !ok || !tv.IsValue() {
		return types.TypeAndValue{}, errors.ErrInvalidArgument(src, fmt.Errorf("%s is not a value", src))
	}
	return tv, nil
}

// Argument type-checks expr and resolves its capability.
func (r *Resolver) Argument(s Scope, expr ast.Expr, src string) (Capability, error) {
	tv, err := r.TypeOf(s, expr, src)
	if err != nil {
		return Capability{}, err
	}
	return r.Resolve(tv, src)
}

// Resolve returns the capability of a typed argument. The first matching
// rule wins: constant strings, unnamed basic types, bstr containers,
// Renderer implementations with a constant MaxLen, then named types over a
// basic type.
func (r *Resolver) Resolve(tv types.TypeAndValue, src string) (Capability, error) {
	typ := types.Unalias(tv.Type)
	name := types.TypeString(typ, r.qualifier)

	if tv.Value != nil && tv.Value.Kind() == constant.String {
		return Capability{
			MaxLen: len(constant.StringVal(tv.Value)),
			Method: MethodString,
			Type:   name,
		}, nil
	}

	if b, ok := typ.(*types.Basic); ok {
		if c, ok := basics[types.Default(b).(*types.Basic).Kind()]; ok {
			return Capability{MaxLen: c.maxLen, Method: c.method, Type: name}, nil
		}
		return Capability{}, errors.ErrNotRenderable(src, name)
	}

	if c, ok := r.container(typ); ok {
		c.Type = name
		return c, nil
	}

	c, ok, err := r.renderer(typ, src, name)
	if err != nil {
		return Capability{}, err
	}
	if ok {
		return c, nil
	}

	if b, ok := typ.Underlying().(*types.Basic); ok {
		if c, ok := basics[b.Kind()]; ok {
			return Capability{MaxLen: c.maxLen, Method: c.method, Type: name}, nil
		}
	}

	return Capability{}, errors.ErrNotRenderable(src, name)
}

// Destination resolves a writer-mode destination, which must be a
// *bstr.Array.
func (r *Resolver) Destination(tv types.TypeAndValue, src string) (Destination, error) {
	typ := types.Unalias(tv.Type)
	name := types.TypeString(typ, r.qualifier)

	ptr, ok := typ.(*types.Pointer)
	if !ok {
		return Destination{}, errors.ErrInvalidDestination(src, name)
	}
	named, n, ok := bstrType(ptr.Elem())
	if !ok || named.Obj().Name() != "Array" {
		return Destination{}, errors.ErrInvalidDestination(src, name)
	}
	return Destination{
		Capacity: n,
		Array:    named.TypeArgs().At(0),
		Type:     name,
	}, nil
}

// container matches bstr.CapStr and bstr.Array values and pointers.
func (r *Resolver) container(typ types.Type) (Capability, bool) {
	if p, ok := typ.(*types.Pointer); ok {
		typ = p.Elem()
	}
	named, n, ok := bstrType(typ)
	if !ok {
		return Capability{}, false
	}
	switch named.Obj().Name() {
	case "CapStr":
		return Capability{MaxLen: n, Method: MethodRenderer}, true
	case "Array":
		return Capability{MaxLen: n, Method: MethodBytes}, true
	}
	return Capability{}, false
}

// bstrType reports whether typ is a bstr generic instantiated with a byte
// array, and returns the array length.
func bstrType(typ types.Type) (*types.Named, int, bool) {
	named, ok := types.Unalias(typ).(*types.Named)
	if !ok {
		return nil, 0, false
	}
	obj := named.Obj()
	if obj.Pkg() == nil || obj.Pkg().Path() != BstrPath || named.TypeArgs().Len() != 1 {
		return nil, 0, false
	}
	arr, ok := named.TypeArgs().At(0).Underlying().(*types.Array)
	if !ok || !isByte(arr.Elem()) {
		return nil, 0, false
	}
	return named, int(arr.Len()), true
}

func isByte(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() == types.Uint8
}

// renderer matches types providing AppendBounded and a MaxLen whose body is
// a single constant return. A type with both methods but a computed MaxLen
// is an error rather than a miss.
func (r *Resolver) renderer(typ types.Type, src, name string) (Capability, bool, error) {
	appendFn := method(typ, "AppendBounded")
	maxFn := method(typ, "MaxLen")
	if appendFn == nil || maxFn == nil || !isAppendSig(appendFn) || !isMaxLenSig(maxFn) {
		return Capability{}, false, nil
	}

	n, reason := r.constMaxLen(maxFn)
	if reason != "" {
		return Capability{}, false, errors.ErrNotRenderable(src, name).WithContext("reason", reason)
	}

	addr := pointerRecv(appendFn) || pointerRecv(maxFn)
	if _, isPtr := typ.(*types.Pointer); isPtr {
		addr = false
	}
	return Capability{MaxLen: n, Method: MethodRenderer, Addr: addr, Type: name}, true, nil
}

func method(typ types.Type, name string) *types.Func {
	obj, _, _ := types.LookupFieldOrMethod(typ, true, nil, name)
	fn, _ := obj.(*types.Func)
	return fn
}

func signature(fn *types.Func) *types.Signature {
	sig, _ := fn.Type().(*types.Signature)
	return sig
}

func isAppendSig(fn *types.Func) bool {
	sig := signature(fn)
	return sig != nil && sig.Params().Len() == 1 && sig.Results().Len() == 1 && !sig.Variadic() &&
		isByteSlice(sig.Params().At(0).Type()) && isByteSlice(sig.Results().At(0).Type())
}

func isByteSlice(t types.Type) bool {
	s, ok := t.Underlying().(*types.Slice)
	return ok && isByte(s.Elem())
}

func isMaxLenSig(fn *types.Func) bool {
	sig := signature(fn)
	if sig == nil || sig.Params().Len() != 0 || sig.Results().Len() != 1 {
		return false
	}
	b, ok := sig.Results().At(0).Type().(*types.Basic)
	return ok && b.Kind() == types.Int
}

func pointerRecv(fn *types.Func) bool {
	sig := signature(fn)
	if sig == nil || sig.Recv() == nil {
		return false
	}
	_, ok := types.Unalias(sig.Recv().Type()).(*types.Pointer)
	return ok
}

// constMaxLen reads the constant returned by a MaxLen method. It returns a
// reason when the body is not a single constant return.
func (r *Resolver) constMaxLen(fn *types.Func) (int, string) {
	decl, ok := r.decls[fn.Origin()]
	if !ok || decl.Node.Body == nil {
		return 0, fmt.Sprintf("the body of %s is not available", fn.FullName())
	}
	body := decl.Node.Body.List
	if len(body) != 1 {
		return 0, "MaxLen must consist of a single return statement"
	}
	ret, ok := body[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return 0, "MaxLen must consist of a single return statement"
	}
	tv, ok := decl.Info.Types[ret.Results[0]]
	if !ok || tv.Value == nil {
		return 0, "MaxLen must return a constant"
	}
	v, exact := constant.Int64Val(constant.ToInt(tv.Value))
	if !exact || v < 0 {
		return 0, "MaxLen must return a non-negative int constant"
	}
	return int(v), ""
}
