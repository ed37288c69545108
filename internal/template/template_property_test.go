//go:build property

package template

import (
	"go/ast"
	"go/token"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestTemplateProperties validates the parser invariants.
func TestTemplateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: templates without braces parse to themselves
	properties.Property("literal templates round-trip", prop.ForAll(
		func(s string) bool {
			tmpl, err := Parse(s, nil, token.NoPos)
			if err != nil {
				return false
			}
			return tmpl.IsLiteral() && tmpl.LiteralLen == len(s) && joinLiterals(tmpl) == s
		},
		gen.AnyString().SuchThat(func(s string) bool { return !strings.Contains(s, "{") }),
	))

	// Property: the literal accumulator equals the concatenated literal text
	properties.Property("literal length is exact", prop.ForAll(
		func(parts []string) bool {
			src := strings.Join(parts, "{}")
			tmpl, err := Parse(src, &endless{}, token.NoPos)
			if err != nil {
				return false
			}
			return tmpl.LiteralLen == len(joinLiterals(tmpl)) &&
				tmpl.ArgumentCount() == max(len(parts)-1, 0)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	// Property: parsing is deterministic
	properties.Property("parsing is deterministic", prop.ForAll(
		func(parts []string, names []string) bool {
			src := buildTemplate(parts, names)
			a, errA := Parse(src, &endless{}, token.NoPos)
			b, errB := Parse(src, &endless{}, token.NoPos)
			if (errA == nil) != (errB == nil) {
				return false
			}
			return errA != nil || reflect.DeepEqual(a, b)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

// endless supplies a fresh identifier for every positional placeholder.
type endless struct{ n int }

func (e *endless) Next(int) (ast.Expr, error) {
	e.n++
	return ast.NewIdent("arg"), nil
}

func joinLiterals(t *Template) string {
	var b strings.Builder
	for _, p := range t.Pieces {
		if p.Kind == Literal {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func buildTemplate(parts, names []string) string {
	var b strings.Builder
	for i, part := range parts {
		b.WriteString(part)
		if i < len(names) {
			b.WriteString("{" + names[i] + "}")
		} else {
			b.WriteString("{}")
		}
	}
	return b.String()
}
