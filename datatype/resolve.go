package datatype

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/internal/dtype"
)

// symbols is the table of symbolic dtype names. Textual synonyms collapse to
// Text, byte-string synonyms to Bytes, and every reference or region synonym
// to Reference.
var symbols = map[string]StorageType{
	"float":       Primitive{Float32},
	"float32":     Primitive{Float32},
	"double":      Primitive{Float64},
	"float64":     Primitive{Float64},
	"long":        Primitive{Int64},
	"int64":       Primitive{Int64},
	"uint64":      Primitive{Uint64},
	"int":         Primitive{Int32},
	"int32":       Primitive{Int32},
	"int16":       Primitive{Int16},
	"int8":        Primitive{Int8},
	"uint32":      Primitive{Uint32},
	"uint16":      Primitive{Uint16},
	"uint8":       Primitive{Uint8},
	"bool":        Primitive{Bool},
	"bool_":       Primitive{Bool},
	"text":        Text{},
	"utf":         Text{},
	"utf8":        Text{},
	"utf-8":       Text{},
	"str":         Text{},
	"isodatetime": Text{},
	"ascii":       Bytes{},
	"bytes":       Bytes{},
	"string_":     Bytes{},
	"ref":         Reference{},
	"reference":   Reference{},
	"object":      Reference{},
	"region":      Reference{},
}

// RefSpec is a reference descriptor: a reference to objects of TargetType.
// RefType is "object" or "region".
type RefSpec struct {
	TargetType string
	RefType    string
}

// FieldSpec is one declared field of a compound descriptor.
type FieldSpec struct {
	Name  string
	Dtype any
}

// Lookup resolves a symbolic dtype name.
func Lookup(name string) (StorageType, bool) {
	st, ok := symbols[name]
	return st, ok
}

// Resolve returns the storage type for a dataset or attribute: the declared
// descriptor when one is set, else the type inferred from data.
func Resolve(desc, data any) (StorageType, error) {
	st, ok, err := ResolveDescriptor(desc)
	if err != nil {
		return nil, err
	}
	if ok {
		return st, nil
	}
	return Infer(data)
}

// ResolveDescriptor resolves a declared dtype descriptor. It reports false
// when the descriptor is unset. Compound fields resolve recursively and keep
// their declared order.
func ResolveDescriptor(desc any) (StorageType, bool, error) {
	switch d := desc.(type) {
	case nil:
		return nil, false, nil
	case StorageType:
		return d, true, nil
	case string:
		if st, ok := symbols[d]; ok {
			return st, true, nil
		}
		// Stores written by other tools may tag datasets with raw codes
		// such as "<f8".
		if c, err := dtype.Parse(d); err == nil {
			if st, ok := FromCode(c); ok {
				return st, true, nil
			}
		}
		return nil, false, &UnresolvedTypeError{Value: desc, Reason: "unknown dtype name"}
	case RefSpec:
		return refType(d.RefType, desc)
	case *RefSpec:
		return refType(d.RefType, desc)
	case map[string]any:
		rt, ok := d["reftype"].(string)
		if !ok {
			return nil, false, &UnresolvedTypeError{Value: desc, Reason: "missing reftype"}
		}
		return refType(rt, desc)
	case []FieldSpec:
		fields := make([]Field, len(d))
		for i, f := range d {
			st, err := resolveField(f.Name, f.Dtype)
			if err != nil {
				return nil, false, err
			}
			fields[i] = Field{Name: f.Name, Type: st}
		}
		return Compound{Fields: fields}, true, nil
	case []map[string]any:
		items := make([]any, len(d))
		for i := range d {
			items[i] = d[i]
		}
		return compoundFromList(items, desc)
	case []any:
		return compoundFromList(d, desc)
	case reflect.Type:
		return fromReflect(d, desc)
	}
	return nil, false, &UnresolvedTypeError{Value: desc}
}

func refType(rt string, desc any) (StorageType, bool, error) {
	st, ok := symbols[rt]
	if !ok {
		return nil, false, &UnresolvedTypeError{Value: desc, Reason: "unknown reftype"}
	}
	return st, true, nil
}

func compoundFromList(items []any, desc any) (StorageType, bool, error) {
	fields := make([]Field, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false, &UnresolvedTypeError{Value: desc, Reason: "compound field is not a {name, dtype} map"}
		}
		name, ok := m["name"].(string)
		if !ok {
			return nil, false, &UnresolvedTypeError{Value: desc, Reason: "compound field without name"}
		}
		st, err := resolveField(name, m["dtype"])
		if err != nil {
			return nil, false, err
		}
		fields = append(fields, Field{Name: name, Type: st})
	}
	return Compound{Fields: fields}, true, nil
}

func resolveField(name string, desc any) (StorageType, error) {
	st, ok, err := ResolveDescriptor(desc)
	if err != nil {
		return nil, fmt.Errorf("compound field %q: %w", name, err)
	}
	if !ok {
		return nil, &UnresolvedTypeError{Value: desc, Reason: fmt.Sprintf("compound field %q has no dtype", name)}
	}
	return st, nil
}

func fromReflect(t reflect.Type, desc any) (StorageType, bool, error) {
	switch t.Kind() {
	case reflect.String:
		return Text{}, true, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes{}, true, nil
		}
	}
	if k, ok := kindOf(t.Kind()); ok {
		return Primitive{Kind: k}, true, nil
	}
	return nil, false, &UnresolvedTypeError{Value: desc}
}

func kindOf(k reflect.Kind) (Kind, bool) {
	switch k {
	case reflect.Int8:
		return Int8, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int64, reflect.Int:
		return Int64, true
	case reflect.Uint8:
		return Uint8, true
	case reflect.Uint16:
		return Uint16, true
	case reflect.Uint32:
		return Uint32, true
	case reflect.Uint64, reflect.Uint:
		return Uint64, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	case reflect.Bool:
		return Bool, true
	}
	return 0, false
}

// sequence is lazily-backed array data such as builder.Dataset.
type sequence interface {
	Len() int
	Index(i int) (any, error)
}

// Infer determines the storage type of data: strings are Text, byte slices
// are Bytes, scalars their native kind, and non-empty sequences recurse on
// their first element. Builders, references and containers infer as
// Reference. An empty sequence cannot be typed.
func Infer(data any) (StorageType, error) {
	switch d := data.(type) {
	case nil:
		return nil, &UnresolvedTypeError{Value: data, Reason: "no data"}
	case string:
		return Text{}, nil
	case []byte:
		return Bytes{}, nil
	case *builder.ReferenceBuilder, *builder.RegionBuilder, builder.Builder, builder.Container:
		return Reference{}, nil
	case sequence:
		if d.Len() == 0 {
			return nil, &UnresolvedTypeError{Value: data, Reason: "cannot determine type for empty data"}
		}
		first, err := d.Index(0)
		if err != nil {
			return nil, fmt.Errorf("inferring type: %w", err)
		}
		return Infer(first)
	}

	rv := reflect.ValueOf(data)
	if k, ok := kindOf(rv.Kind()); ok {
		return Primitive{Kind: k}, nil
	}
	switch rv.Kind() {
	case reflect.String:
		return Text{}, nil
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil, &UnresolvedTypeError{Value: data, Reason: "cannot determine type for empty data"}
		}
		return Infer(rv.Index(0).Interface())
	}
	return nil, &UnresolvedTypeError{Value: data}
}

// IsReference reports whether desc resolves to Reference. Unresolvable
// descriptors report false.
func IsReference(desc any) bool {
	st, ok, err := ResolveDescriptor(desc)
	if err != nil || !ok {
		return false
	}
	_, isRef := st.(Reference)
	return isRef
}
