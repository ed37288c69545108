package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/afmt/internal/errors"
	"github.com/conneroisu/afmt/internal/fingerprint"
)

func newGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	g, err := New(opts, nil)
	require.NoError(t, err)
	return g
}

func plans(r *PackageResult) map[string]Plan {
	out := make(map[string]Plan)
	for _, p := range r.Plans {
		out[p.Func] = p
	}
	return out
}

func TestRunDryRun(t *testing.T) {
	g := newGenerator(t, Options{DryRun: true, Assertions: true})

	results, err := g.Run(context.Background(), "./testdata/greet")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.False(t, r.Failed())
	assert.False(t, r.Written)
	assert.Equal(t, "afmt_gen.go", filepath.Base(r.Output))
	assert.NoFileExists(t, r.Output)

	byName := plans(r)
	require.Len(t, byName, 3)

	intro := byName["Intro"]
	assert.Equal(t, "format", intro.Mode)
	assert.Equal(t, 41, intro.Literal)
	assert.Equal(t, 67, intro.Bound)
	assert.Equal(t, 67, intro.Capacity)
	require.Len(t, intro.Terms, 2)
	assert.Equal(t, 21, intro.Terms[0].MaxLen)
	assert.Equal(t, "uint", intro.Terms[1].Method)

	age := byName["Age"]
	assert.Equal(t, "into", age.Mode)
	assert.Equal(t, 22, age.Bound)
	assert.Equal(t, 32, age.Capacity)
	assert.True(t, age.Fits)

	// " says " and " at " plus #255, "hello" and a float64.
	badge := byName["Badge"]
	assert.Equal(t, 10+4+5+24, badge.Bound)
	assert.Equal(t, "renderer", badge.Terms[0].Method)
	assert.Equal(t, "string", badge.Terms[1].Method)
	assert.Equal(t, "float64", badge.Terms[2].Method)

	src := string(r.Content)
	assert.True(t, strings.HasPrefix(src, "// Code generated by afmt. DO NOT EDIT.\n"))
	assert.Contains(t, src, "//go:build !afmt")
	assert.Contains(t, src, "func Intro(name bstr.CapStr[[21]byte], streetNum uint16) bstr.Array[[67]byte] {")
	assert.Contains(t, src, "func Age(dst *bstr.Array[[32]byte], age uint8) {")
	assert.Contains(t, src, "const _ = uint(len([32]byte{}) - 22)")
	assert.Contains(t, src, "dst.Reset()")
	assert.Contains(t, src, "AppendFloat(float64(_arg2), 64)")
	assert.NotContains(t, src, "pkg/afmt\"", "the marker package is not referenced by generated code")

	fp, ok := fingerprint.Read(r.Content)
	require.True(t, ok)
	assert.Equal(t, r.Fingerprint, fp)
}

func TestRunIsDeterministic(t *testing.T) {
	g := newGenerator(t, Options{DryRun: true})

	first, err := g.Run(context.Background(), "./testdata/greet")
	require.NoError(t, err)
	second, err := g.Run(context.Background(), "./testdata/greet")
	require.NoError(t, err)

	assert.Equal(t, string(first[0].Content), string(second[0].Content))
	assert.Equal(t, first[0].Fingerprint, second[0].Fingerprint)
}

func TestFingerprintCoversSettings(t *testing.T) {
	a := newGenerator(t, Options{DryRun: true, Settings: []string{"tag=afmt"}})
	b := newGenerator(t, Options{DryRun: true, Settings: []string{"tag=other"}})

	ra, err := a.Run(context.Background(), "./testdata/greet")
	require.NoError(t, err)
	rb, err := b.Run(context.Background(), "./testdata/greet")
	require.NoError(t, err)

	assert.NotEqual(t, ra[0].Fingerprint, rb[0].Fingerprint)
}

func TestRunWritesOnce(t *testing.T) {
	g := newGenerator(t, Options{Output: "zz_afmt_test_gen.go"})

	results, err := g.Run(context.Background(), "./testdata/greet")
	require.NoError(t, err)
	require.Len(t, results, 1)
	out := results[0].Output
	t.Cleanup(func() { os.Remove(out) })

	assert.True(t, results[0].Written)
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, results[0].Content, content)

	again, err := g.Run(context.Background(), "./testdata/greet")
	require.NoError(t, err)
	assert.False(t, again[0].Written, "unchanged output is not rewritten")
}

func TestRunReportsDiagnostics(t *testing.T) {
	g := newGenerator(t, Options{})

	results, err := g.Run(context.Background(), "./testdata/invalid")
	require.Error(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Failed())
	assert.Nil(t, r.Content)
	assert.NoFileExists(t, r.Output)

	codes := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		codes = append(codes, errors.Code(d))
	}
	assert.ElementsMatch(t, []string{
		errors.ErrCodeCapacityInsufficient,
		errors.ErrCodeInvalidDirective,
		errors.ErrCodeUnknownArgument,
	}, codes)

	// Diagnostics are sorted by position, so the capacity error comes first.
	first := r.Diagnostics[0]
	assert.Equal(t, errors.ErrCodeCapacityInsufficient, errors.Code(first))
	assert.Contains(t, first.Error(), "invalid_afmt.go")
	assert.Len(t, Diagnostics(results), 3)
}

func TestRunCancelled(t *testing.T) {
	g := newGenerator(t, Options{DryRun: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Run(ctx, "./testdata/greet")
	assert.Error(t, err)
}
