// Package afmt holds the markers used in afmt stub files.
//
// A stub file is a Go file guarded by the afmt build tag whose functions
// carry an //afmt: directive in their doc comment:
//
//	//go:build afmt
//
//	package greet
//
//	import (
//		"github.com/conneroisu/afmt/pkg/afmt"
//		"github.com/conneroisu/afmt/pkg/bstr"
//	)
//
//	//afmt:format "My name is {}, I live at {} Negra Aroyo Lane.", name, streetNum
//	func Intro(name bstr.CapStr[[32]byte], streetNum uint16) afmt.Pending {
//		return afmt.Stub()
//	}
//
//	//afmt:into dst, "You are {age} years old!"
//	func Age(dst *bstr.Array[[32]byte], age uint8) {
//		afmt.Stub()
//	}
//
// Running afmt generate writes afmt_gen.go, guarded by the negated tag,
// with the real bodies. Producer stubs return Pending; the generated
// function returns a bstr.Array sized to the computed bound instead.
package afmt

// Pending stands in for the result type of a producer stub.
type Pending struct{}

// Stub is the body of a stub function. It is never compiled into a normal
// build, since stub files carry the afmt build tag.
func Stub() Pending {
	panic("afmt: stub function called; run afmt generate")
}
