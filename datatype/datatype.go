// Package datatype resolves the dtype descriptors of the container model to
// concrete storage types.
//
// Descriptors arrive in many shapes: unset (nil), a symbolic name such as
// "float" or "text", a reference descriptor, an ordered list of named
// compound fields, a reflect.Type, or an already-resolved StorageType. Every
// descriptor resolves to exactly one member of the closed StorageType union
// through [Resolve]; consumers switch exhaustively on the result.
package datatype

import (
	"fmt"

	"github.com/robert-malhotra/go-zarrio/internal/dtype"
)

// Kind is a primitive element kind.
type Kind int

// Primitive kinds.
const (
	Int8 Kind = iota + 1
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
)

var kindNames = map[Kind]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
}

var kindCodes = map[Kind]dtype.Code{
	Int8:    dtype.Int8,
	Int16:   dtype.Int16,
	Int32:   dtype.Int32,
	Int64:   dtype.Int64,
	Uint8:   dtype.Uint8,
	Uint16:  dtype.Uint16,
	Uint32:  dtype.Uint32,
	Uint64:  dtype.Uint64,
	Float32: dtype.Float32,
	Float64: dtype.Float64,
	Bool:    dtype.Bool,
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// StorageType is the closed set of concrete storage representations:
// Primitive, Text, Bytes, Reference and Compound.
type StorageType interface {
	storageType()
	String() string
}

// Primitive is a fixed-width numeric or boolean element.
type Primitive struct {
	Kind Kind
}

// Text is a variable-length UTF-8 string.
type Text struct{}

// Bytes is a variable-length byte string.
type Bytes struct{}

// Reference is an object reference stored as a reference record.
type Reference struct{}

// Field is one named member of a compound type.
type Field struct {
	Name string
	Type StorageType
}

// Compound is an ordered record of named fields.
type Compound struct {
	Fields []Field
}

func (Primitive) storageType() {}
func (Text) storageType()      {}
func (Bytes) storageType()     {}
func (Reference) storageType() {}
func (Compound) storageType()  {}

func (p Primitive) String() string { return p.Kind.String() }
func (Text) String() string        { return "text" }
func (Bytes) String() string       { return "bytes" }
func (Reference) String() string   { return "reference" }

func (c Compound) String() string {
	s := "compound{"
	for i, f := range c.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ":" + f.Type.String()
	}
	return s + "}"
}

// HasReference reports whether any field of c is a Reference.
func (c Compound) HasReference() bool {
	for _, f := range c.Fields {
		if _, ok := f.Type.(Reference); ok {
			return true
		}
	}
	return false
}

// Code returns the zarr storage code for st. Everything but primitives is
// object-coded.
func Code(st StorageType) dtype.Code {
	if p, ok := st.(Primitive); ok {
		if c, ok := kindCodes[p.Kind]; ok {
			return c
		}
	}
	return dtype.Object
}

// PackedRecord returns the structured storage dtype of c when every field is
// a primitive.
func PackedRecord(c Compound) (dtype.Record, bool) {
	if len(c.Fields) == 0 {
		return nil, false
	}
	r := make(dtype.Record, len(c.Fields))
	for i, f := range c.Fields {
		p, ok := f.Type.(Primitive)
		if !ok {
			return nil, false
		}
		r[i] = dtype.Field{Name: f.Name, Code: Code(p)}
	}
	return r, true
}

// FromRecord returns the compound type of a structured storage dtype.
func FromRecord(r dtype.Record) (Compound, bool) {
	c := Compound{Fields: make([]Field, len(r))}
	for i, f := range r {
		st, ok := FromCode(f.Code)
		if !ok {
			return Compound{}, false
		}
		c.Fields[i] = Field{Name: f.Name, Type: st}
	}
	return c, true
}

// ObjectCoded reports whether st is stored one serialized element at a time.
func ObjectCoded(st StorageType) bool {
	return Code(st) == dtype.Object
}

// FromCode returns the storage type of a packed code: a primitive, or Bytes
// for fixed-length byte strings. Object codes carry no type information and
// report false.
func FromCode(c dtype.Code) (StorageType, bool) {
	if _, ok := c.ByteLen(); ok {
		return Bytes{}, true
	}
	for k, kc := range kindCodes {
		if kc == c {
			return Primitive{Kind: k}, true
		}
	}
	return nil, false
}
