// Package capacity computes the static upper bound on the rendered length of
// an afmt invocation and resolves the maximum rendered length of argument
// types from go/types information.
package capacity

// RenderMethod selects the bstr call generated code uses for an argument.
type RenderMethod int

const (
	// MethodNone marks an unresolved capability.
	MethodNone RenderMethod = iota
	// MethodString pushes a constant string.
	MethodString
	// MethodBool appends true or false.
	MethodBool
	// MethodInt appends a signed integer.
	MethodInt
	// MethodUint appends an unsigned integer.
	MethodUint
	// MethodFloat32 appends a float32 in its shortest round-trip form.
	MethodFloat32
	// MethodFloat64 appends a float64 in its shortest round-trip form.
	MethodFloat64
	// MethodBytes copies the held bytes of a bstr.Array.
	MethodBytes
	// MethodRenderer calls bstr.Render with a Renderer value.
	MethodRenderer
)

var methodNames = map[RenderMethod]string{
	MethodNone:     "none",
	MethodString:   "string",
	MethodBool:     "bool",
	MethodInt:      "int",
	MethodUint:     "uint",
	MethodFloat32:  "float32",
	MethodFloat64:  "float64",
	MethodBytes:    "bytes",
	MethodRenderer: "renderer",
}

func (m RenderMethod) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// Capability is the declared maximum rendered length of an argument and how
// generated code renders it.
type Capability struct {
	MaxLen int
	Method RenderMethod
	// Addr is set when the Renderer methods have pointer receivers, so the
	// binding is passed by address.
	Addr bool
	// Type is the argument type as written in diagnostics and inspect output.
	Type string
}

// Term is the contribution of one binding to a Bound.
type Term struct {
	Binding string
	Source  string
	MaxLen  int
}

// Bound is the literal length plus the declared maximum of every binding.
type Bound struct {
	Literal int
	Terms   []Term
}

// Compute folds the literal length and the argument terms into a Bound.
func Compute(literalLen int, terms []Term) Bound {
	b := Bound{Literal: literalLen}
	for _, t := range terms {
		b = b.Add(t)
	}
	return b
}

// Add returns b extended by t. The receiver is not modified.
func (b Bound) Add(t Term) Bound {
	terms := make([]Term, len(b.Terms), len(b.Terms)+1)
	copy(terms, b.Terms)
	return Bound{Literal: b.Literal, Terms: append(terms, t)}
}

// Total is Literal plus the MaxLen of every term.
func (b Bound) Total() int {
	total := b.Literal
	for _, t := range b.Terms {
		total += t.MaxLen
	}
	return total
}

// Fits reports whether a destination of the given capacity can hold any
// rendering within the bound.
func (b Bound) Fits(capacity int) bool {
	return capacity >= b.Total()
}

// Shortfall is the number of bytes a destination of the given capacity is
// missing, or zero if it fits.
func (b Bound) Shortfall(capacity int) int {
	if s := b.Total() - capacity; s > 0 {
		return s
	}
	return 0
}
