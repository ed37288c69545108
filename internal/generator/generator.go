// Package generator runs afmt over a set of packages: it loads them, binds
// and checks every stub, and writes one generated file per package.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/afmt/internal/binder"
	"github.com/conneroisu/afmt/internal/capacity"
	"github.com/conneroisu/afmt/internal/codegen"
	"github.com/conneroisu/afmt/internal/errors"
	"github.com/conneroisu/afmt/internal/fingerprint"
	"github.com/conneroisu/afmt/internal/loader"
	"github.com/conneroisu/afmt/internal/logging"
	"github.com/conneroisu/afmt/internal/scanner"
)

// AfmtPath is the import path of the stub marker package.
const AfmtPath = "github.com/conneroisu/afmt/pkg/afmt"

// Options configure a Generator.
type Options struct {
	// Dir is the directory patterns are resolved against.
	Dir           string
	Tag           string
	Output        string
	BindingPrefix string
	Assertions    bool
	Concurrency   int
	// DryRun renders output without writing it.
	DryRun bool
	// Settings are mixed into the fingerprint.
	Settings []string
}

// Generator implements stub functions package by package.
type Generator struct {
	opts    Options
	scanner *scanner.Scanner
	loader  *loader.Loader
	codegen *codegen.Generator
	logger  logging.Logger
	errs    *errors.ErrorHandler

	// typeMu serializes type-checking against shared type information.
	typeMu sync.Mutex
}

// New returns a Generator.
func New(opts Options, logger logging.Logger) (*Generator, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Tag == "" {
		opts.Tag = "afmt"
	}
	if opts.Output == "" {
		opts.Output = "afmt_gen.go"
	}
	if opts.BindingPrefix == "" {
		opts.BindingPrefix = binder.DefaultPrefix
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	cg, err := codegen.New()
	if err != nil {
		return nil, err
	}
	sc := scanner.New(opts.Tag)
	logger = logger.WithComponent("generator")

	return &Generator{
		opts:    opts,
		scanner: sc,
		loader:  loader.New(opts.Dir, sc, logger),
		codegen: cg,
		logger:  logger,
		errs:    errors.NewErrorHandler(logger),
	}, nil
}

// Run generates the packages matching patterns. It returns one result per
// package holding stubs. The error is non-nil when loading failed or any
// package has diagnostics; packages with diagnostics get no file written.
func (g *Generator) Run(ctx context.Context, patterns ...string) ([]*PackageResult, error) {
	res, err := g.loader.Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}
	resolver := capacity.NewResolver(res.Decls)

	results := make([]*PackageResult, len(res.Packages))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, pkg := range res.Packages {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := g.processPackage(gctx, res.Fset, resolver, pkg)
			if !g.opts.DryRun && len(r.Diagnostics) == 0 && r.Content != nil {
				if err := g.write(gctx, r); err != nil {
					r.Diagnostics = append(r.Diagnostics, err)
				}
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	failed, total := 0, 0
	for _, r := range results {
		if len(r.Diagnostics) > 0 {
			failed++
			total += len(r.Diagnostics)
			for _, d := range r.Diagnostics {
				g.errs.Handle(ctx, d)
			}
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d diagnostics in %d packages", total, failed)
	}
	return results, nil
}

// pkgContext is the state shared by the stubs of one package.
type pkgContext struct {
	fset     *token.FileSet
	pkg      *loader.Package
	resolver *capacity.Resolver
	bstr     string
	imports  []codegen.Import
	local    map[string]string
}

func (g *Generator) processPackage(ctx context.Context, fset *token.FileSet, resolver *capacity.Resolver, pkg *loader.Package) *PackageResult {
	perf := logging.StartOperation(g.logger.With("package", pkg.PkgPath), "generate")
	result := &PackageResult{
		PkgPath: pkg.PkgPath,
		Dir:     pkg.Dir,
		Output:  filepath.Join(pkg.Dir, g.opts.Output),
	}
	collector := errors.NewErrorCollector()

	pc := &pkgContext{fset: fset, pkg: pkg, resolver: resolver}
	pc.imports, pc.local, pc.bstr = collectImports(pkg)

	fp := fingerprint.New(g.opts.Settings...)
	var functions []codegen.Function
	for _, f := range pkg.StubFiles {
		filename := fset.Position(f.Package).Filename
		if err := fp.AddPaths(filename); err != nil {
			collector.Add(errors.NewIOError(errors.ErrCodeLoadFailed, "reading stub file", err).WithLocation(filename, 0, 0))
		}

		stubs, errs := g.scanner.ScanFile(fset, f)
		for _, err := range errs {
			collector.Add(err)
		}
		for _, stub := range stubs {
			fn, plan, err := g.stub(pc, stub)
			if err != nil {
				collector.Add(err)
				continue
			}
			result.Plans = append(result.Plans, plan)
			functions = append(functions, fn)
		}
	}

	if collector.HasErrors() {
		result.Diagnostics = collector.Sorted()
		perf.End(ctx, "diagnostics", collector.Len())
		return result
	}
	if len(functions) == 0 {
		perf.End(ctx, "stubs", 0)
		return result
	}

	result.Fingerprint = fp.Sum()
	content, err := g.codegen.Generate(g.opts.Output, &codegen.File{
		Package:     pkg.Name,
		Tag:         g.opts.Tag,
		Fingerprint: result.Fingerprint,
		BstrName:    pc.bstr,
		Imports:     pc.imports,
		Functions:   functions,
	})
	if err != nil {
		result.Diagnostics = []error{errors.NewInternalError(errors.ErrCodeInternalError,
			"generating "+pkg.PkgPath, err)}
		perf.EndWithError(ctx, err)
		return result
	}
	result.Content = content
	perf.End(ctx, "stubs", len(functions))
	return result
}

// stub binds, resolves and bounds one stub.
func (g *Generator) stub(pc *pkgContext, stub scanner.Stub) (codegen.Function, Plan, error) {
	fd := stub.Func
	fail := func(err *errors.AfmtError) (codegen.Function, Plan, error) {
		return codegen.Function{}, Plan{}, err.At(pc.fset, fd.Pos()).WithFunc(stub.Name)
	}

	if fd.Body == nil {
		return fail(errors.ErrInvalidDirective("stub function needs a body"))
	}
	if err := g.checkShape(pc, stub); err != nil {
		return fail(err)
	}

	bodyPos := fd.Body.Lbrace + 1
	taken := visible(pc.pkg.Types, bodyPos)

	inv, err := binder.Bind(pc.fset, stub.Directive, binder.Options{
		Prefix: g.opts.BindingPrefix,
		Taken:  taken,
	})
	if err != nil {
		return fail(asAfmt(err))
	}

	scope := capacity.Scope{Fset: pc.fset, Pkg: pc.pkg.Types, Pos: bodyPos}
	plan := Plan{
		Func:     stub.Name,
		Mode:     stub.Directive.Mode.String(),
		Template: inv.Template.Source,
		File:     pc.fset.Position(fd.Pos()).Filename,
		Line:     pc.fset.Position(fd.Pos()).Line,
		Literal:  inv.Template.LiteralLen,
	}

	g.typeMu.Lock()
	defer g.typeMu.Unlock()

	bindings := make([]codegen.Binding, 0, len(inv.Bindings))
	terms := make([]capacity.Term, 0, len(inv.Bindings))
	for _, b := range inv.Bindings {
		c, err := pc.resolver.Argument(scope, b.Expr, b.Source)
		if err != nil {
			return codegen.Function{}, Plan{}, asAfmt(err).At(pc.fset, b.Pos).WithFunc(stub.Name)
		}
		bindings = append(bindings, codegen.Binding{Name: b.Name, Source: b.Source, Cap: c})
		terms = append(terms, capacity.Term{Binding: b.Name, Source: b.Source, MaxLen: c.MaxLen})
		plan.Terms = append(plan.Terms, TermPlan{
			Binding: b.Name,
			Source:  b.Source,
			Type:    c.Type,
			MaxLen:  c.MaxLen,
			Method:  c.Method.String(),
		})
	}
	bound := capacity.Compute(inv.Template.LiteralLen, terms)
	plan.Bound = bound.Total()

	fn := codegen.Function{
		Doc:      stub.Doc,
		Mode:     inv.Mode,
		Template: inv.Template,
		Bindings: bindings,
		Bound:    bound.Total(),
	}

	var result ast.Expr
	switch inv.Mode {
	case binder.Producer:
		result = codegen.ArrayType(pc.bstr, bound.Total())
		fn.Out = unique("_buf", taken)
		plan.Capacity = bound.Total()
		plan.Fits = true
	case binder.Writer:
		tv, err := pc.resolver.TypeOf(scope, inv.Dest, inv.DestSource)
		if err != nil {
			return codegen.Function{}, Plan{}, asAfmt(err).At(pc.fset, inv.DestPos).WithFunc(stub.Name)
		}
		dest, err := pc.resolver.Destination(tv, inv.DestSource)
		if err != nil {
			return codegen.Function{}, Plan{}, asAfmt(err).At(pc.fset, inv.DestPos).WithFunc(stub.Name)
		}
		plan.Capacity = dest.Capacity
		plan.Fits = bound.Fits(dest.Capacity)
		if err := codegen.CheckCapacity(dest, bound); err != nil {
			return codegen.Function{}, Plan{}, asAfmt(err).At(pc.fset, inv.DestPos).WithFunc(stub.Name)
		}

		fn.Dest = inv.DestSource
		_, fn.DestIdent = inv.Dest.(*ast.Ident)
		fn.Out = unique("_dst", taken)
		if g.opts.Assertions {
			fn.Assert = types.TypeString(dest.Array, pc.qualifier)
		}
	}

	sig, err := codegen.Signature(pc.fset, fd, result)
	if err != nil {
		return codegen.Function{}, Plan{}, errors.NewInternalError(errors.ErrCodeInternalError, "printing stub signature", err).
			WithFunc(stub.Name)
	}
	fn.Signature = sig
	return fn, plan, nil
}

// checkShape enforces the stub signature of the directive mode: producers
// return afmt.Pending and writers return nothing.
func (g *Generator) checkShape(pc *pkgContext, stub scanner.Stub) *errors.AfmtError {
	results := stub.Func.Type.Results
	switch stub.Directive.Mode {
	case binder.Producer:
		if results == nil || len(results.List) != 1 || len(results.List[0].Names) > 1 {
			return errors.ErrInvalidDirective("format stub must return afmt.Pending")
		}
		if !isPending(pc.pkg.Info.TypeOf(results.List[0].Type)) {
			return errors.ErrInvalidDirective("format stub must return afmt.Pending")
		}
	case binder.Writer:
		if results != nil && len(results.List) > 0 {
			return errors.ErrInvalidDirective("into stub must not return a value")
		}
	}
	return nil
}

func isPending(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == AfmtPath && obj.Name() == "Pending"
}

// qualifier names packages the way the stub files import them.
func (pc *pkgContext) qualifier(p *types.Package) string {
	if p == pc.pkg.Types {
		return ""
	}
	if name, ok := pc.local[p.Path()]; ok {
		return name
	}
	return p.Name()
}

// collectImports returns the imports of all stub files, the local name of
// each import path and the local name of the bstr package. The bstr import
// is added when no stub file has it.
func collectImports(pkg *loader.Package) ([]codegen.Import, map[string]string, string) {
	names := make(map[string]string)
	for _, imp := range pkg.Types.Imports() {
		names[imp.Path()] = imp.Name()
	}

	var out []codegen.Import
	local := make(map[string]string)
	for _, f := range pkg.StubFiles {
		for _, spec := range f.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			imp := codegen.Import{Path: path, Name: names[path]}
			if spec.Name != nil {
				if spec.Name.Name == "_" || spec.Name.Name == "." {
					continue
				}
				imp.Name = spec.Name.Name
				imp.Explicit = true
			}
			if imp.Name == "" {
				continue
			}
			if _, seen := local[path]; !seen {
				local[path] = imp.Name
			}
			out = append(out, imp)
		}
	}

	bstr, ok := local[capacity.BstrPath]
	if !ok {
		bstr = "bstr"
		local[capacity.BstrPath] = bstr
		out = append(out, codegen.Import{Name: bstr, Path: capacity.BstrPath})
	}
	return out, local, bstr
}

// visible reports names declared in or above the scope enclosing pos.
func visible(pkg *types.Package, pos token.Pos) func(string) bool {
	scope := pkg.Scope().Innermost(pos)
	if scope == nil {
		scope = pkg.Scope()
	}
	return func(name string) bool {
		_, obj := scope.LookupParent(name, pos)
		return obj != nil
	}
}

func unique(name string, taken func(string) bool) string {
	for taken(name) {
		name = "_" + name
	}
	return name
}

func asAfmt(err error) *errors.AfmtError {
	if ae, ok := err.(*errors.AfmtError); ok {
		return ae
	}
	return errors.NewInternalError(errors.ErrCodeInternalError, "unexpected error", err)
}

// write stores the generated file unless it is already up to date.
func (g *Generator) write(ctx context.Context, r *PackageResult) error {
	existing, err := os.ReadFile(r.Output)
	if err == nil && bytes.Equal(existing, r.Content) {
		g.logger.Debug(ctx, "Generated file up to date", "file", r.Output)
		return nil
	}
	if err := os.WriteFile(r.Output, r.Content, 0o644); err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "writing generated file", err).
			WithLocation(r.Output, 0, 0)
	}
	r.Written = true
	g.logger.Info(ctx, "Wrote generated file", "file", r.Output, "stubs", len(r.Plans))
	return nil
}
