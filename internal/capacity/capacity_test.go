package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name    string
		literal int
		terms   []Term
		want    int
	}{
		{"literal only", 20, nil, 20},
		{"empty template", 0, nil, 0},
		{"name and street", 41, []Term{{Source: "name", MaxLen: 21}, {Source: "street_num", MaxLen: 5}}, 67},
		{"age", 19, []Term{{Source: "age", MaxLen: 3}}, 22},
		{"repeated placeholder counts twice", 1, []Term{{Source: "num", MaxLen: 3}, {Source: "num", MaxLen: 3}}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Compute(tt.literal, tt.terms)
			assert.Equal(t, tt.want, b.Total())
			assert.Len(t, b.Terms, len(tt.terms))
		})
	}
}

func TestBoundAddDoesNotAlias(t *testing.T) {
	base := Compute(4, []Term{{MaxLen: 1}})
	a := base.Add(Term{Binding: "a", MaxLen: 2})
	b := base.Add(Term{Binding: "b", MaxLen: 3})

	assert.Equal(t, 5, base.Total())
	assert.Equal(t, 7, a.Total())
	assert.Equal(t, 8, b.Total())
	assert.Equal(t, "a", a.Terms[1].Binding)
}

func TestBoundFits(t *testing.T) {
	b := Compute(19, []Term{{MaxLen: 3}})

	assert.True(t, b.Fits(32))
	assert.True(t, b.Fits(22))
	assert.False(t, b.Fits(10))
	assert.Equal(t, 12, b.Shortfall(10))
	assert.Zero(t, b.Shortfall(22))
}

func TestRenderMethodString(t *testing.T) {
	assert.Equal(t, "uint", MethodUint.String())
	assert.Equal(t, "renderer", MethodRenderer.String())
	assert.Equal(t, "unknown", RenderMethod(99).String())
}
