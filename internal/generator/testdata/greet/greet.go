package greet

import "strconv"

// Greeting is rendered at its exact length.
const Greeting = "hello"

// Tag is a small numeric label rendered as #n.
type Tag uint8

func (t Tag) AppendBounded(dst []byte) []byte {
	return strconv.AppendUint(append(dst, '#'), uint64(t), 10)
}

func (Tag) MaxLen() int { return 4 }

// Celsius renders as a plain float64.
type Celsius float64
