// Package loader loads and type-checks the packages holding afmt stubs.
package loader

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/conneroisu/afmt/internal/capacity"
	"github.com/conneroisu/afmt/internal/errors"
	"github.com/conneroisu/afmt/internal/logging"
	"github.com/conneroisu/afmt/internal/scanner"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo

// Package is a type-checked package with its stub files.
type Package struct {
	Name    string
	PkgPath string
	Dir     string
	Types   *types.Package
	Info    *types.Info
	Syntax  []*ast.File
	// StubFiles are the files of Syntax guarded by the stub tag.
	StubFiles []*ast.File
}

// Result is the outcome of one Load call.
type Result struct {
	Fset     *token.FileSet
	Packages []*Package
	// Decls indexes every function declared in the loaded packages and
	// their dependencies.
	Decls capacity.DeclIndex
}

// Loader loads packages with the stub tag set, so that stub files are
// compiled and previously generated files are not.
type Loader struct {
	dir     string
	scanner *scanner.Scanner
	logger  logging.Logger
}

// New returns a Loader resolving patterns relative to dir.
func New(dir string, sc *scanner.Scanner, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{dir: dir, scanner: sc, logger: logger.WithComponent("loader")}
}

// Load loads the packages matching patterns. Packages without stub files
// are dropped from the result. Type errors outside stub files are logged
// and ignored: code calling a producer stub does not type-check while the
// stub still returns afmt.Pending.
func (l *Loader) Load(ctx context.Context, patterns ...string) (*Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	perf := logging.StartOperation(l.logger, "load")
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        l.dir,
		Fset:       fset,
		BuildFlags: []string{"-tags=" + l.scanner.Tag()},
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, errors.NewIOError(errors.ErrCodeLoadFailed, "loading packages", err)
	}

	res := &Result{Fset: fset, Decls: capacity.DeclIndex{}}
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		res.Decls.Index(p.Syntax, p.TypesInfo)
	})

	for _, p := range pkgs {
		pkg, err := l.collect(ctx, fset, p)
		if err != nil {
			perf.EndWithError(ctx, err)
			return nil, err
		}
		if pkg != nil {
			res.Packages = append(res.Packages, pkg)
		}
	}

	perf.End(ctx, "patterns", patterns, "packages", len(res.Packages))
	return res, nil
}

func (l *Loader) collect(ctx context.Context, fset *token.FileSet, p *packages.Package) (*Package, error) {
	pkg := &Package{
		Name:    p.Name,
		PkgPath: p.PkgPath,
		Types:   p.Types,
		Info:    p.TypesInfo,
		Syntax:  p.Syntax,
	}
	if len(p.GoFiles) > 0 {
		pkg.Dir = filepath.Dir(p.GoFiles[0])
	}

	stubPaths := make(map[string]bool)
	for _, f := range p.Syntax {
		if l.scanner.IsStubFile(f) {
			pkg.StubFiles = append(pkg.StubFiles, f)
			stubPaths[fset.Position(f.Package).Filename] = true
		}
	}

	for _, e := range p.Errors {
		switch {
		case e.Kind == packages.ListError || e.Kind == packages.ParseError:
			return nil, errors.NewIOError(errors.ErrCodeLoadFailed, fmt.Sprintf("loading %s", p.PkgPath), e)
		case stubPaths[errorFile(e)]:
			return nil, errors.NewIOError(errors.ErrCodeLoadFailed, fmt.Sprintf("type-checking %s", p.PkgPath), e)
		default:
			l.logger.Debug(ctx, "Ignoring type error outside stub files", "package", p.PkgPath, "error", e.Msg)
		}
	}

	if len(pkg.StubFiles) == 0 {
		l.logger.Debug(ctx, "No stub files", "package", p.PkgPath)
		return nil, nil
	}
	if p.Types == nil || p.TypesInfo == nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternalError,
			fmt.Sprintf("package %s has no type information", p.PkgPath), nil)
	}
	return pkg, nil
}

// errorFile extracts the file name from a packages.Error position of the
// form file:line:col or file:line.
func errorFile(e packages.Error) string {
	pos := e.Pos
	for i := 0; i < 2; i++ {
		j := strings.LastIndex(pos, ":")
		if j < 0 {
			break
		}
		if _, err := strconv.Atoi(pos[j+1:]); err != nil {
			break
		}
		pos = pos[:j]
	}
	return pos
}
