// Package scanner discovers afmt stub files and the directives on their
// functions.
//
// A stub file is a Go file whose build constraint is satisfied only when
// the stub tag is set. Inside such a file, every function whose doc comment
// carries an //afmt:format or //afmt:into line is a stub. The scanner works
// on parsed files handed to it by the loader, and can also walk a directory
// tree on its own to find stub files, which the watch command uses to decide
// which packages to regenerate.
package scanner

import (
	"fmt"
	"go/ast"
	"go/build"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/afmt/internal/binder"
	"github.com/conneroisu/afmt/internal/errors"
)

// DirectivePrefix starts every afmt directive comment.
const DirectivePrefix = "//afmt:"

// Stub is a function carrying an afmt directive.
type Stub struct {
	// Name is the function name, qualified by the receiver type for
	// methods, e.g. "Greeter.Age".
	Name      string
	Func      *ast.FuncDecl
	Directive binder.Directive
	// Doc holds the doc comment lines other than the directive.
	Doc []string
}

// StubFile is a file guarded by the stub tag.
type StubFile struct {
	Path    string
	Package string
	Stubs   []Stub
}

// Scanner finds stubs. It is safe for concurrent use.
type Scanner struct {
	tag string
	// tags holds the build tags satisfied on the host, without the stub tag.
	tags    map[string]bool
	fileSet *token.FileSet
	// mu guards fileSet, which ScanDirectory shares across files.
	mu sync.Mutex
}

// New returns a Scanner for the given stub build tag that evaluates build
// constraints against build.Default.
func New(tag string) *Scanner {
	return newWithContext(tag, &build.Default)
}

func newWithContext(tag string, ctxt *build.Context) *Scanner {
	tags := contextTags(ctxt)
	delete(tags, tag)
	return &Scanner{tag: tag, tags: tags, fileSet: token.NewFileSet()}
}

// unixOS lists the GOOS values that satisfy the "unix" constraint.
var unixOS = map[string]bool{
	"aix": true, "android": true, "darwin": true, "dragonfly": true,
	"freebsd": true, "hurd": true, "illumos": true, "ios": true,
	"linux": true, "netbsd": true, "openbsd": true, "solaris": true,
}

// contextTags returns the tags the go command would treat as satisfied for
// ctxt.
func contextTags(ctxt *build.Context) map[string]bool {
	tags := map[string]bool{
		ctxt.GOOS:     true,
		ctxt.GOARCH:   true,
		ctxt.Compiler: true,
	}
	switch ctxt.GOOS {
	case "android":
		tags["linux"] = true
	case "illumos":
		tags["solaris"] = true
	case "ios":
		tags["darwin"] = true
	}
	if unixOS[ctxt.GOOS] {
		tags["unix"] = true
	}
	if ctxt.CgoEnabled {
		tags["cgo"] = true
	}
	for _, list := range [][]string{ctxt.ReleaseTags, ctxt.BuildTags, ctxt.ToolTags} {
		for _, tag := range list {
			tags[tag] = true
		}
	}
	return tags
}

// Tag returns the stub build tag.
func (s *Scanner) Tag() string { return s.tag }

// IsStubFile reports whether the build constraint of f requires the stub
// tag on this platform: the file is included with the tag set and excluded
// without it.
func (s *Scanner) IsStubFile(f *ast.File) bool {
	for _, group := range f.Comments {
		if group.Pos() >= f.Package {
			break
		}
		for _, c := range group.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return false
			}
			with := expr.Eval(func(tag string) bool { return tag == s.tag || s.tags[tag] })
			without := expr.Eval(func(tag string) bool { return s.tags[tag] })
			return with && !without
		}
	}
	return false
}

// ScanFile returns the stubs declared in f. Directives that are not in the
// doc comment of a function, unknown directive keywords and functions with
// more than one directive are reported as InvalidDirective diagnostics; the
// remaining stubs are still returned.
func (s *Scanner) ScanFile(fset *token.FileSet, f *ast.File) ([]Stub, []error) {
	var stubs []Stub
	var errs []error
	attached := make(map[*ast.Comment]bool)

	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}

		var found []*ast.Comment
		var doc []string
		for _, c := range fn.Doc.List {
			if strings.HasPrefix(c.Text, DirectivePrefix) {
				attached[c] = true
				found = append(found, c)
				continue
			}
			doc = append(doc, c.Text)
		}
		if len(found) == 0 {
			continue
		}

		name := funcName(fn)
		if len(found) > 1 {
			errs = append(errs, errors.ErrInvalidDirective("function has more than one afmt directive").
				At(fset, found[1].Slash).WithFunc(name))
			continue
		}

		d, err := directive(fset, found[0])
		if err != nil {
			errs = append(errs, err.WithFunc(name))
			continue
		}
		stubs = append(stubs, Stub{Name: name, Func: fn, Directive: d, Doc: trimDoc(doc)})
	}

	for _, group := range f.Comments {
		for _, c := range group.List {
			if strings.HasPrefix(c.Text, DirectivePrefix) && !attached[c] {
				errs = append(errs, errors.ErrInvalidDirective("afmt directive must be in the doc comment of a function").
					At(fset, c.Slash))
			}
		}
	}

	return stubs, errs
}

// directive splits "//afmt:<keyword> <text>" into a binder.Directive whose
// position points at the start of text.
func directive(fset *token.FileSet, c *ast.Comment) (binder.Directive, *errors.AfmtError) {
	rest := strings.TrimPrefix(c.Text, DirectivePrefix)
	keyword, text, _ := strings.Cut(rest, " ")
	mode, ok := binder.ParseMode(keyword)
	if !ok {
		return binder.Directive{}, errors.ErrInvalidDirective(
			fmt.Sprintf("unknown directive %s%s, want format or into", DirectivePrefix, keyword)).At(fset, c.Slash)
	}

	offset := len(DirectivePrefix) + len(keyword) + 1
	if offset > len(c.Text) {
		offset = len(c.Text)
	}
	return binder.Directive{
		Mode:     mode,
		Text:     text,
		Pos:      c.Slash + token.Pos(offset),
		Filename: fset.Position(c.Slash).Filename,
	}, nil
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	return recvName(fn.Recv.List[0].Type) + "." + fn.Name.Name
}

func recvName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return recvName(e.X)
	case *ast.IndexExpr:
		return recvName(e.X)
	case *ast.IndexListExpr:
		return recvName(e.X)
	case *ast.ParenExpr:
		return recvName(e.X)
	default:
		return "unknown"
	}
}

// trimDoc drops a trailing empty comment line left behind by the directive.
func trimDoc(doc []string) []string {
	for len(doc) > 0 && strings.TrimSpace(doc[len(doc)-1]) == "//" {
		doc = doc[:len(doc)-1]
	}
	return doc
}

// ScanPath parses one file and returns its stubs, or nil if it is not a
// stub file.
func (s *Scanner) ScanPath(path string) (*StubFile, []error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{errors.NewIOError(errors.ErrCodeLoadFailed, "reading stub file", err).
			WithLocation(path, 0, 0)}
	}

	s.mu.Lock()
	f, err := parser.ParseFile(s.fileSet, path, src, parser.ParseComments)
	s.mu.Unlock()
	if err != nil {
		return nil, []error{errors.NewIOError(errors.ErrCodeLoadFailed, "parsing stub file", err).
			WithLocation(path, 0, 0)}
	}

	if !s.IsStubFile(f) {
		return nil, nil
	}
	stubs, errs := s.ScanFile(s.fileSet, f)
	return &StubFile{Path: path, Package: f.Name.Name, Stubs: stubs}, errs
}

// ScanDirectory walks dir and returns every stub file below it in path
// order. Hidden directories, vendor and testdata are skipped, as are
// directories matching one of the ignore globs.
func (s *Scanner) ScanDirectory(dir string, ignore []string) ([]*StubFile, []error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && SkipDir(d.Name(), ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if isSource(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, []error{fmt.Errorf("walking %s: %w", dir, err)}
	}
	return s.scanPaths(paths)
}

// ScanDir returns the stub files directly inside dir, without descending
// into subdirectories. A directory that no longer exists holds no stub
// files.
func (s *Scanner) ScanDir(dir string) ([]*StubFile, []error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", dir, err)}
	}

	var paths []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.IsDir() && isSource(path) {
			paths = append(paths, path)
		}
	}
	return s.scanPaths(paths)
}

func (s *Scanner) scanPaths(paths []string) ([]*StubFile, []error) {
	sort.Strings(paths)

	var files []*StubFile
	var errs []error
	for _, path := range paths {
		sf, ferrs := s.ScanPath(path)
		errs = append(errs, ferrs...)
		if sf != nil {
			files = append(files, sf)
		}
	}
	return files, errs
}

// Dirs returns the sorted distinct directories holding files.
func Dirs(files []*StubFile) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

func isSource(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")
}

// SkipDir reports whether a directory called name is left out of a walk:
// hidden, underscore, vendor and testdata directories are, as are those
// matching one of the ignore globs.
func SkipDir(name string, ignore []string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata" {
		return true
	}
	for _, pattern := range ignore {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
