// Package codegen emits the Go source that implements afmt stub functions.
package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/conneroisu/afmt/internal/binder"
	"github.com/conneroisu/afmt/internal/capacity"
	tmpl "github.com/conneroisu/afmt/internal/template"
)

// Header is the first line of every generated file.
const Header = "// Code generated by afmt. DO NOT EDIT."

// Import is an import available to generated code.
type Import struct {
	// Name is the local name the package is referred to by.
	Name string
	Path string
	// Explicit is set when the stub file renames the import.
	Explicit bool
}

// Binding is a bound argument with its resolved capability.
type Binding struct {
	Name   string
	Source string
	Cap    capacity.Capability
}

// Function is one stub function to implement.
type Function struct {
	// Signature is the generated declaration without its body, as returned
	// by Signature.
	Signature string
	// Doc holds the comment lines carried over from the stub.
	Doc      []string
	Mode     binder.Mode
	Template *tmpl.Template
	Bindings []Binding
	Bound    int
	// Out names the producer result variable, or the writer destination
	// binding when Dest is not an identifier.
	Out string
	// Dest is the writer destination as written in the directive.
	Dest      string
	DestIdent bool
	// Assert is the byte array type of the destination. The constant
	// assertion is skipped when it is empty.
	Assert string
}

// File is one generated file.
type File struct {
	Package     string
	Tag         string
	Fingerprint string
	// BstrName is the local name of the bstr package.
	BstrName  string
	Imports   []Import
	Functions []Function
}

// Generator renders Files.
type Generator struct {
	tmpl *template.Template
}

// New parses the file template.
func New() (*Generator, error) {
	t, err := template.New("file").Parse(fileTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Generator{tmpl: t}, nil
}

type fileData struct {
	*File
	Imports []Import
	Funcs   []funcData
}

type funcData struct {
	Signature string
	Doc       []string
	Producer  bool
	Bstr      string
	Bound     int
	Out       string
	Target    string
	DestBind  string
	Assert    string
	Bindings  []Binding
	Appends   []string
}

// Generate renders f to formatted Go source. Imports the functions do not
// reference are dropped.
func (g *Generator) Generate(filename string, f *File) ([]byte, error) {
	data := fileData{File: f}
	for _, fn := range f.Functions {
		fd, err := g.function(f, fn)
		if err != nil {
			return nil, err
		}
		data.Funcs = append(data.Funcs, fd)
	}

	// Render once without imports to learn which ones are referenced.
	var body bytes.Buffer
	if err := g.tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	used, err := referencedPackages(body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated code does not parse: %w", err)
	}
	data.Imports = usedImports(f.Imports, used)

	var out bytes.Buffer
	if err := g.tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	src, err := imports.Process(filename, out.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return src, nil
}

func (g *Generator) function(f *File, fn Function) (funcData, error) {
	if fn.Template == nil {
		return funcData{}, fmt.Errorf("function %q has no template", fn.Signature)
	}
	fd := funcData{
		Signature: fn.Signature,
		Doc:       fn.Doc,
		Producer:  fn.Mode == binder.Producer,
		Bstr:      f.BstrName,
		Bound:     fn.Bound,
		Out:       fn.Out,
		Assert:    fn.Assert,
		Bindings:  fn.Bindings,
	}

	switch {
	case fd.Producer:
		fd.Target = "&" + fn.Out
	case fn.DestIdent:
		fd.Target = fn.Dest
	default:
		fd.DestBind = fn.Dest
		fd.Target = fn.Out
	}

	byName := make(map[string]Binding, len(fn.Bindings))
	for _, b := range fn.Bindings {
		byName[b.Name] = b
	}

	for _, p := range fn.Template.Pieces {
		if p.Kind == tmpl.Literal {
			if p.Text != "" {
				fd.Appends = append(fd.Appends, fmt.Sprintf("%s.Push(%s)", recv(fd.Target), strconv.Quote(p.Text)))
			}
			continue
		}
		b, ok := byName[p.Binding]
		if !ok {
			return funcData{}, fmt.Errorf("placeholder at offset %d has no binding", p.Offset)
		}
		line, err := appendCall(f.BstrName, fd.Target, b)
		if err != nil {
			return funcData{}, err
		}
		fd.Appends = append(fd.Appends, line)
	}
	return fd, nil
}

// recv turns the &out form of the target back into a method receiver.
func recv(target string) string {
	return strings.TrimPrefix(target, "&")
}

// appendCall returns the statement appending one binding to target.
func appendCall(bstr, target string, b Binding) (string, error) {
	r := recv(target)
	switch b.Cap.Method {
	case capacity.MethodString:
		return fmt.Sprintf("%s.Push(string(%s))", r, b.Name), nil
	case capacity.MethodBool:
		return fmt.Sprintf("%s.AppendBool(bool(%s))", r, b.Name), nil
	case capacity.MethodInt:
		return fmt.Sprintf("%s.AppendInt(int64(%s))", r, b.Name), nil
	case capacity.MethodUint:
		return fmt.Sprintf("%s.AppendUint(uint64(%s))", r, b.Name), nil
	case capacity.MethodFloat32:
		return fmt.Sprintf("%s.AppendFloat(float64(%s), 32)", r, b.Name), nil
	case capacity.MethodFloat64:
		return fmt.Sprintf("%s.AppendFloat(float64(%s), 64)", r, b.Name), nil
	case capacity.MethodBytes:
		return fmt.Sprintf("%s.PushBytes(%s.Bytes())", r, b.Name), nil
	case capacity.MethodRenderer:
		arg := b.Name
		if b.Cap.Addr {
			arg = "&" + arg
		}
		return fmt.Sprintf("%s.Render(%s, %s)", bstr, target, arg), nil
	}
	return "", fmt.Errorf("binding %s (%s) has no render method", b.Name, b.Source)
}

// Signature prints decl without doc or body. A non-nil result replaces the
// declared results.
func Signature(fset *token.FileSet, decl *ast.FuncDecl, result ast.Expr) (string, error) {
	ft := *decl.Type
	if result != nil {
		ft.Results = &ast.FieldList{List: []*ast.Field{{Type: result}}}
	}
	sig := &ast.FuncDecl{Recv: decl.Recv, Name: decl.Name, Type: &ft}

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, sig); err != nil {
		return "", fmt.Errorf("failed to print signature of %s: %w", decl.Name.Name, err)
	}
	return buf.String(), nil
}

// ArrayType returns the expression bstr.Array[[n]byte] using the given local
// package name.
func ArrayType(bstr string, n int) ast.Expr {
	return &ast.IndexExpr{
		X: &ast.SelectorExpr{X: ast.NewIdent(bstr), Sel: ast.NewIdent("Array")},
		Index: &ast.ArrayType{
			Len: &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(n)},
			Elt: ast.NewIdent("byte"),
		},
	}
}

// referencedPackages returns the unresolved identifiers used as selector
// operands, which are the package names src refers to.
func referencedPackages(src []byte) (map[string]bool, error) {
	f, err := parser.ParseFile(token.NewFileSet(), "", src, 0)
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool)
	ast.Inspect(f, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && id.Obj == nil {
				used[id.Name] = true
			}
		}
		return true
	})
	return used, nil
}

func usedImports(all []Import, used map[string]bool) []Import {
	seen := make(map[string]bool)
	var out []Import
	for _, imp := range all {
		if !used[imp.Name] || seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
