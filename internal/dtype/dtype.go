package dtype

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Code is a zarr v2 dtype string.
type Code string

// Supported storage codes.
const (
	Int8    Code = "|i1"
	Int16   Code = "<i2"
	Int32   Code = "<i4"
	Int64   Code = "<i8"
	Uint8   Code = "|u1"
	Uint16  Code = "<u2"
	Uint32  Code = "<u4"
	Uint64  Code = "<u8"
	Float32 Code = "<f4"
	Float64 Code = "<f8"
	Bool    Code = "|b1"
	Object  Code = "|O"
)

var (
	// ErrUnknownCode is returned for dtype strings outside the supported set.
	ErrUnknownCode = errors.New("unknown dtype code")
	// ErrConversion is returned when a value cannot be represented in a code.
	ErrConversion = errors.New("value not convertible")
)

var codeKinds = map[Code]reflect.Kind{
	Int8:    reflect.Int8,
	Int16:   reflect.Int16,
	Int32:   reflect.Int32,
	Int64:   reflect.Int64,
	Uint8:   reflect.Uint8,
	Uint16:  reflect.Uint16,
	Uint32:  reflect.Uint32,
	Uint64:  reflect.Uint64,
	Float32: reflect.Float32,
	Float64: reflect.Float64,
	Bool:    reflect.Bool,
	Object:  reflect.Interface,
}

// aliases accepts the big-endian-neutral spellings some writers emit.
var aliases = map[string]Code{
	"<i1": Int8, ">i1": Int8, "i1": Int8,
	"<u1": Uint8, ">u1": Uint8, "u1": Uint8,
	"<b1": Bool, "b1": Bool, "|b": Bool,
	"O": Object, "<O": Object,
}

// Parse validates a dtype string from a .zarray document.
func Parse(s string) (Code, error) {
	c := Code(s)
	if _, ok := codeKinds[c]; ok {
		return c, nil
	}
	if a, ok := aliases[s]; ok {
		return a, nil
	}
	if n, ok := parseFixedBytes(s); ok {
		return FixedBytes(n), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCode, s)
}

// FixedBytes returns the code of byte strings n bytes long.
func FixedBytes(n int) Code {
	return Code("|S" + strconv.Itoa(n))
}

// ByteLen returns the length of a fixed-length byte string code.
func (c Code) ByteLen() (int, bool) {
	if !strings.HasPrefix(string(c), "|S") {
		return 0, false
	}
	return parseFixedBytes(string(c))
}

func parseFixedBytes(s string) (int, bool) {
	s = strings.TrimLeft(s, "|<>")
	if !strings.HasPrefix(s, "S") {
		return 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Kind returns the Go kind of elements stored under c. Object-coded arrays
// report reflect.Interface.
func (c Code) Kind() reflect.Kind {
	if _, ok := c.ByteLen(); ok {
		return reflect.Slice
	}
	return codeKinds[c]
}

// Size returns the packed element size in bytes, or 0 for object-coded
// and unknown codes.
func (c Code) Size() int {
	switch c {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	n, _ := c.ByteLen()
	return n
}

// Packed reports whether c has a fixed-width layout.
func (c Code) Packed() bool {
	return c.Size() > 0
}

// FromKind returns the packed code for a Go kind. int and uint map to their
// 64-bit codes.
func FromKind(k reflect.Kind) (Code, bool) {
	switch k {
	case reflect.Int:
		return Int64, true
	case reflect.Uint:
		return Uint64, true
	}
	for c, ck := range codeKinds {
		if ck == k && c != Object {
			return c, true
		}
	}
	return "", false
}

// Zero returns the zero value of the element type of c. Object-coded arrays
// have a nil zero value.
func Zero(c Code) any {
	if _, ok := c.ByteLen(); ok {
		return []byte{}
	}
	switch c {
	case Int8:
		return int8(0)
	case Int16:
		return int16(0)
	case Int32:
		return int32(0)
	case Int64:
		return int64(0)
	case Uint8:
		return uint8(0)
	case Uint16:
		return uint16(0)
	case Uint32:
		return uint32(0)
	case Uint64:
		return uint64(0)
	case Float32:
		return float32(0)
	case Float64:
		return float64(0)
	case Bool:
		return false
	}
	return nil
}
