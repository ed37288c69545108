package main

import (
	"fmt"
	"strconv"

	"github.com/conneroisu/afmt/pkg/bstr"
)

// renders counts Tick renderings.
var renders int

// Tick renders the number of times any Tick has been rendered.
type Tick struct{}

func (Tick) AppendBounded(dst []byte) []byte {
	renders++
	return strconv.AppendInt(dst, int64(renders), 10)
}

func (Tick) MaxLen() int { return 3 }

func main() {
	intro := Intro("Walter Hartwell White", 308)
	fmt.Println(intro.String())

	var age bstr.Array[[32]byte]
	age.Push("stale")
	Age(&age, 18)
	fmt.Println(age.String())

	twice := Twice(1)
	fmt.Println(twice.String())

	sum := Sum()
	fmt.Println(sum.String())

	count := Count(Tick{})
	fmt.Println(count.String(), renders)

	var small bstr.Array[[6]byte]
	Into(&small, -128)
	fmt.Println(small.String())

	empty := Empty()
	fmt.Printf("%q %d\n", empty.String(), empty.Cap())
}
