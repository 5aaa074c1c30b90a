package layout

import (
	"fmt"
	"reflect"
)

// Flatten walks nested Go slices and arrays and returns their elements in C
// order together with the extent of every nesting level. Strings and byte
// slices are leaves. A leaf passed directly yields one element and an empty
// shape.
func Flatten(v any) ([]any, []int, error) {
	rv := reflect.ValueOf(v)
	if isLeaf(rv) {
		return []any{v}, []int{}, nil
	}

	var shape []int
	for cur := rv; !isLeaf(cur); {
		shape = append(shape, cur.Len())
		if cur.Len() == 0 {
			break
		}
		cur = deref(cur.Index(0))
	}

	out := make([]any, 0, Len(shape))
	if err := flatten(rv, shape, &out); err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

// Values flattens v and discards the shape.
func Values(v any) ([]any, error) {
	if vals, ok := v.([]any); ok && !containsNested(vals) {
		return vals, nil
	}
	vals, _, err := Flatten(v)
	return vals, err
}

func flatten(rv reflect.Value, shape []int, out *[]any) error {
	if len(shape) == 0 {
		if !isLeaf(rv) {
			return fmt.Errorf("ragged data: unexpected nested %v", rv.Type())
		}
		*out = append(*out, rv.Interface())
		return nil
	}
	if isLeaf(rv) {
		return fmt.Errorf("ragged data: expected %d more dimensions, got %v", len(shape), rv.Type())
	}
	if rv.Len() != shape[0] {
		return fmt.Errorf("ragged data: length %d, expected %d", rv.Len(), shape[0])
	}
	for i := 0; i < rv.Len(); i++ {
		if err := flatten(deref(rv.Index(i)), shape[1:], out); err != nil {
			return err
		}
	}
	return nil
}

func deref(rv reflect.Value) reflect.Value {
	for rv.IsValid() && rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv
}

func isLeaf(rv reflect.Value) bool {
	rv = deref(rv)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Type().Elem().Kind() == reflect.Uint8
	}
	return true
}

func containsNested(vals []any) bool {
	for _, v := range vals {
		if !isLeaf(reflect.ValueOf(v)) {
			return true
		}
	}
	return false
}
