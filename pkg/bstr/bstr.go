// Package bstr provides the fixed-capacity strings that afmt-generated code
// writes into.
//
// The capacity of an Array is carried by its type argument, which must be a
// byte array type: bstr.Array[[32]byte] holds at most 32 bytes inline, with
// no backing heap allocation. Appends never grow the storage; an append that
// would not fit panics with ErrOverflow. Generated code only emits appends
// whose total length has been proven to fit, so the panic is reachable only
// through a Renderer that under-reports its MaxLen.
package bstr

import (
	"errors"
	"strconv"
	"unicode/utf8"
	"unsafe"
)

// ErrOverflow is raised when an append does not fit the remaining capacity.
var ErrOverflow = errors.New("bstr: append exceeds capacity")

// Renderer is the capability every afmt argument type provides.
type Renderer interface {
	// AppendBounded appends the rendering of the value to dst and returns
	// the extended slice. It must append at most MaxLen bytes.
	AppendBounded(dst []byte) []byte

	// MaxLen reports the largest number of bytes AppendBounded appends for
	// any value of the type.
	MaxLen() int
}

// Array is a string of at most len(A) bytes stored inline.
type Array[A any] struct {
	n   int
	buf A
}

// FromString returns an Array holding s, or ErrOverflow if s does not fit.
func FromString[A any](s string) (Array[A], error) {
	var out Array[A]
	if err := out.TryPush(s); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Array[A]) storage() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&s.buf)), unsafe.Sizeof(s.buf))
}

// room returns the unused tail of the storage with length zero, so appends
// write in place until the capacity is reached.
func (s *Array[A]) room() []byte {
	buf := s.storage()
	return buf[s.n:s.n:len(buf)]
}

// commit accepts the result of appending to room.
func (s *Array[A]) commit(room, out []byte) {
	if len(out) == 0 {
		return
	}
	if len(out) > cap(room) || unsafe.SliceData(out) != unsafe.SliceData(room) {
		panic(ErrOverflow)
	}
	s.n += len(out)
}

// Len returns the number of bytes held.
func (s *Array[A]) Len() int { return s.n }

// Cap returns the fixed capacity, len(A).
func (s *Array[A]) Cap() int { return int(unsafe.Sizeof(s.buf)) }

// Remaining returns the number of bytes that can still be appended.
func (s *Array[A]) Remaining() int { return s.Cap() - s.n }

// IsEmpty reports whether nothing has been appended.
func (s *Array[A]) IsEmpty() bool { return s.n == 0 }

// Bytes returns the held bytes. The slice aliases the Array.
func (s *Array[A]) Bytes() []byte { return s.storage()[:s.n] }

// String returns a copy of the held bytes as a string.
func (s *Array[A]) String() string { return string(s.Bytes()) }

// Reset empties the Array without touching its capacity.
func (s *Array[A]) Reset() { s.n = 0 }

// Push appends v verbatim.
func (s *Array[A]) Push(v string) {
	if err := s.TryPush(v); err != nil {
		panic(err)
	}
}

// TryPush appends v, or returns ErrOverflow and leaves s unchanged.
func (s *Array[A]) TryPush(v string) error {
	if len(v) > s.Remaining() {
		return ErrOverflow
	}
	s.n += copy(s.storage()[s.n:], v)
	return nil
}

// PushBytes appends b verbatim.
func (s *Array[A]) PushBytes(b []byte) {
	if len(b) > s.Remaining() {
		panic(ErrOverflow)
	}
	s.n += copy(s.storage()[s.n:], b)
}

// AppendInt appends the base-10 form of v.
func (s *Array[A]) AppendInt(v int64) {
	room := s.room()
	s.commit(room, strconv.AppendInt(room, v, 10))
}

// AppendUint appends the base-10 form of v.
func (s *Array[A]) AppendUint(v uint64) {
	room := s.room()
	s.commit(room, strconv.AppendUint(room, v, 10))
}

// AppendBool appends "true" or "false".
func (s *Array[A]) AppendBool(v bool) {
	room := s.room()
	s.commit(room, strconv.AppendBool(room, v))
}

// AppendFloat appends the shortest 'g' form of v that round-trips at the
// given bit size (32 or 64).
func (s *Array[A]) AppendFloat(v float64, bitSize int) {
	room := s.room()
	s.commit(room, strconv.AppendFloat(room, v, 'g', -1, bitSize))
}

// AppendBounded implements Renderer.
func (s *Array[A]) AppendBounded(dst []byte) []byte {
	return append(dst, s.Bytes()...)
}

// MaxLen implements Renderer.
func (s *Array[A]) MaxLen() int { return s.Cap() }

// Render appends the rendering of r to s.
func Render[A any, R Renderer](s *Array[A], r R) {
	room := s.room()
	s.commit(room, r.AppendBounded(room))
}

// CapStr is a string rendered to at most len(A) bytes. Longer values are
// truncated at the last UTF-8 boundary that fits.
type CapStr[A any] string

// String returns the value truncated to the capacity.
func (c CapStr[A]) String() string {
	v := string(c)
	limit := c.MaxLen()
	if len(v) <= limit {
		return v
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(v[cut]) {
		cut--
	}
	return v[:cut]
}

// AppendBounded implements Renderer.
func (c CapStr[A]) AppendBounded(dst []byte) []byte {
	return append(dst, c.String()...)
}

// MaxLen implements Renderer.
func (c CapStr[A]) MaxLen() int {
	var a A
	return int(unsafe.Sizeof(a))
}
