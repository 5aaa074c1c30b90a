package datatype

import "fmt"

// Reserved type-tag values that are not type names.
const (
	TagScalar = "scalar"
	TagObject = "object"
	TagRegion = "region"
)

// Tag returns the serialized type tag written beside a node: a type name,
// "object" for references, or for compounds an ordered list of
// {name, dtype} entries.
func Tag(st StorageType) any {
	switch t := st.(type) {
	case Primitive:
		return t.Kind.String()
	case Text:
		return "str"
	case Bytes:
		return "bytes"
	case Reference:
		return TagObject
	case Compound:
		fields := make([]any, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = map[string]any{"name": f.Name, "dtype": Tag(f.Type)}
		}
		return fields
	}
	return nil
}

// ParseTag decodes a type tag read back from a store. The "scalar" tag
// marks shape, not type, and is rejected here.
func ParseTag(tag any) (StorageType, error) {
	if s, ok := tag.(string); ok && s == TagScalar {
		return nil, fmt.Errorf("%q tag carries no type", TagScalar)
	}
	st, ok, err := ResolveDescriptor(tag)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &UnresolvedTypeError{Value: tag, Reason: "empty type tag"}
	}
	return st, nil
}
