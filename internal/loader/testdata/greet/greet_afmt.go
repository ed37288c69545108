//go:build afmt

package greet

import (
	"github.com/conneroisu/afmt/pkg/afmt"
	"github.com/conneroisu/afmt/pkg/bstr"
)

// Intro introduces a neighbour.
//
//afmt:format "My name is {}, I live at {} Negra Aroyo Lane.", name, streetNum
func Intro(name bstr.CapStr[[21]byte], streetNum uint16) afmt.Pending {
	return afmt.Stub()
}

//afmt:into dst, "You are {age} years old!"
func Age(dst *bstr.Array[[32]byte], age uint8) {
	afmt.Stub()
}

//afmt:format "{} says {}", tag, Greeting
func Badge(tag Tag) afmt.Pending {
	return afmt.Stub()
}
