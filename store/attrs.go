package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Attributes is the .zattrs document of a group or array.
type Attributes struct {
	store    Store
	key      string
	sync     Synchronizer
	readOnly bool
}

func newAttributes(st Store, nodePath string, s Synchronizer, readOnly bool) *Attributes {
	return &Attributes{store: st, key: joinKey(nodePath, AttrsKey), sync: s, readOnly: readOnly}
}

// AsMap returns every attribute. Integral numbers decode as int64 and other
// numbers as float64.
func (a *Attributes) AsMap() (map[string]any, error) {
	data, err := a.store.Get(a.key)
	if err != nil {
		if isNotFound(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", a.key, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decoding %s: document is %T, not an object", a.key, v)
	}
	return m, nil
}

// Get returns one attribute.
func (a *Attributes) Get(name string) (any, bool, error) {
	m, err := a.AsMap()
	if err != nil {
		return nil, false, err
	}
	v, ok := m[name]
	return v, ok, nil
}

// Keys returns the attribute names in sorted order.
func (a *Attributes) Keys() ([]string, error) {
	m, err := a.AsMap()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Set stores one attribute. Values that cannot be represented faithfully
// in JSON are rejected with ErrUnserializable.
func (a *Attributes) Set(name string, value any) error {
	return a.Update(map[string]any{name: value})
}

// Update stores several attributes in one document write.
func (a *Attributes) Update(values map[string]any) error {
	if a.readOnly {
		return fmt.Errorf("%w: setting attributes on %s", ErrReadOnly, a.key)
	}
	for name, v := range values {
		if err := CheckSerializable(v); err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
	}

	unlock, err := lockKey(a.sync, a.key)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := a.AsMap()
	if err != nil {
		return err
	}
	for name, v := range values {
		m[name] = v
	}
	data, err := encodeMeta(keepFloats(m))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	return a.store.Set(a.key, data)
}

// Delete removes one attribute.
func (a *Attributes) Delete(name string) error {
	if a.readOnly {
		return fmt.Errorf("%w: deleting attribute on %s", ErrReadOnly, a.key)
	}
	unlock, err := lockKey(a.sync, a.key)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := a.AsMap()
	if err != nil {
		return err
	}
	if _, ok := m[name]; !ok {
		return nil
	}
	delete(m, name)
	data, err := encodeMeta(keepFloats(m))
	if err != nil {
		return err
	}
	return a.store.Set(a.key, data)
}

// CheckSerializable reports whether v survives a JSON round trip. Byte
// strings are rejected because JSON would silently turn them into base64
// text; non-finite floats, complex numbers, channels and funcs cannot be
// encoded at all.
func CheckSerializable(v any) error {
	if err := checkValue(reflect.ValueOf(v)); err != nil {
		return err
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	return nil
}

func checkValue(rv reflect.Value) error {
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return checkValue(rv.Elem())
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Errorf("%w: byte string %v", ErrUnserializable, rv.Type())
		}
		for i := 0; i < rv.Len(); i++ {
			if err := checkValue(rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if err := checkValue(iter.Value()); err != nil {
				return err
			}
		}
	case reflect.Complex64, reflect.Complex128, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Errorf("%w: %v value", ErrUnserializable, rv.Type())
	}
	return nil
}
