package loader

import (
	"context"
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/afmt/internal/errors"
	"github.com/conneroisu/afmt/internal/scanner"
)

func load(t *testing.T, patterns ...string) (*Result, error) {
	t.Helper()
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}
	return New(".", scanner.New("afmt"), nil).Load(context.Background(), patterns...)
}

func TestLoadStubPackage(t *testing.T) {
	res, err := load(t, "./testdata/greet")
	require.NoError(t, err, "type errors outside stub files are ignored")
	require.Len(t, res.Packages, 1)

	pkg := res.Packages[0]
	assert.Equal(t, "greet", pkg.Name)
	assert.Equal(t, "github.com/conneroisu/afmt/internal/loader/testdata/greet", pkg.PkgPath)
	require.Len(t, pkg.StubFiles, 1)
	assert.Contains(t, res.Fset.Position(pkg.StubFiles[0].Package).Filename, "greet_afmt.go")
	assert.Len(t, pkg.Syntax, 2)
	assert.NotNil(t, pkg.Types.Scope().Lookup("Intro"))

	var maxLen *ast.FuncDecl
	for fn, decl := range res.Decls {
		if fn.FullName() == "(github.com/conneroisu/afmt/internal/loader/testdata/greet.Tag).MaxLen" {
			maxLen = decl.Node
		}
	}
	require.NotNil(t, maxLen, "declarations of the loaded packages are indexed")
}

func TestLoadSkipsPackagesWithoutStubs(t *testing.T) {
	res, err := load(t, "./testdata/plain")
	require.NoError(t, err)
	assert.Empty(t, res.Packages)
}

func TestLoadReportsStubTypeErrors(t *testing.T) {
	_, err := load(t, "./testdata/broken")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLoadFailed, errors.Code(err))
	assert.Contains(t, err.Error(), "undefinedStub")
}

func TestLoadMissingPackage(t *testing.T) {
	_, err := load(t, "./testdata/nonexistent")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLoadFailed, errors.Code(err))
}
