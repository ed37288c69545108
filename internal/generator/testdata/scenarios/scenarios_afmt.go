//go:build afmt

package main

import (
	"github.com/conneroisu/afmt/pkg/afmt"
	"github.com/conneroisu/afmt/pkg/bstr"
)

//afmt:format "My name is {}, I live at {} Negra Aroyo Lane.", name, streetNum
func Intro(name bstr.CapStr[[21]byte], streetNum uint16) afmt.Pending {
	return afmt.Stub()
}

//afmt:into dst, "You are {} years old!", age
func Age(dst *bstr.Array[[32]byte], age uint8) {
	afmt.Stub()
}

//afmt:format "{num} {}", num
func Twice(num uint8) afmt.Pending {
	return afmt.Stub()
}

//afmt:format "2 + 2 = {}", 2+2
func Sum() afmt.Pending {
	return afmt.Stub()
}

//afmt:format "{}-{}-{}", t, t, t
func Count(t Tick) afmt.Pending {
	return afmt.Stub()
}

//afmt:into dst, "x={}", v
func Into(dst *bstr.Array[[6]byte], v int8) {
	afmt.Stub()
}

//afmt:format ""
func Empty() afmt.Pending {
	return afmt.Stub()
}
