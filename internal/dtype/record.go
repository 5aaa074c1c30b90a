package dtype

import (
	"fmt"
	"reflect"
)

// Structured is the code reported for arrays whose elements are records.
const Structured Code = "|V"

// Field is one named member of a structured dtype.
type Field struct {
	Name string
	Code Code
}

// Record is a structured dtype. Fields are packed back to back in
// declaration order with no padding; an element is an []any row holding
// one value per field.
type Record []Field

// ParseRecord validates the [name, code] pairs of a structured dtype.
func ParseRecord(fields []Field) (Record, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: structured dtype without fields", ErrUnknownCode)
	}
	seen := make(map[string]bool, len(fields))
	r := make(Record, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field %d has no name", ErrUnknownCode, i)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrUnknownCode, f.Name)
		}
		seen[f.Name] = true
		c, err := Parse(string(f.Code))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if !c.Packed() {
			return nil, fmt.Errorf("%w: field %q has variable-length code %s", ErrUnknownCode, f.Name, c)
		}
		r[i] = Field{Name: f.Name, Code: c}
	}
	return r, nil
}

// Size returns the packed size of one record.
func (r Record) Size() int {
	n := 0
	for _, f := range r {
		n += f.Code.Size()
	}
	return n
}

// Equal reports whether r and o have the same fields in the same order.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Zero returns a row of field zero values.
func (r Record) Zero() []any {
	row := make([]any, len(r))
	for i, f := range r {
		row[i] = Zero(f.Code)
	}
	return row
}

// Exact reports whether v is a row whose fields already have the Go types
// of r.
func (r Record) Exact(v any) bool {
	row, ok := v.([]any)
	if !ok || len(row) != len(r) {
		return false
	}
	for i, f := range r {
		if !Exact(f.Code, row[i]) {
			return false
		}
	}
	return true
}

// Convert coerces v to a row of r. Rows may be slices in field order or
// maps keyed by field name.
func (r Record) Convert(v any) ([]any, error) {
	var fields []any
	switch x := v.(type) {
	case []any:
		fields = x
	case map[string]any:
		fields = make([]any, len(r))
		for i, f := range r {
			fv, ok := x[f.Name]
			if !ok {
				return nil, fmt.Errorf("%w: record missing field %q", ErrConversion, f.Name)
			}
			fields[i] = fv
		}
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, fmt.Errorf("%w: %T to record", ErrConversion, v)
		}
		fields = make([]any, rv.Len())
		for i := range fields {
			fields[i] = rv.Index(i).Interface()
		}
	}
	if len(fields) != len(r) {
		return nil, fmt.Errorf("%w: row has %d fields, record has %d", ErrConversion, len(fields), len(r))
	}
	row := make([]any, len(r))
	for i, f := range r {
		cv, err := Convert(f.Code, fields[i])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		row[i] = cv
	}
	return row, nil
}

// Encode packs rows into little-endian bytes.
func (r Record) Encode(rows []any) ([]byte, error) {
	size := r.Size()
	data := make([]byte, len(rows)*size)
	for i, v := range rows {
		row, err := r.Convert(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		off := i * size
		for j, f := range r {
			putElement(data[off:off+f.Code.Size()], row[j])
			off += f.Code.Size()
		}
	}
	return data, nil
}

// Decode unpacks n rows from data.
func (r Record) Decode(data []byte, n int) ([]any, error) {
	size := r.Size()
	if len(data) < n*size {
		return nil, fmt.Errorf("chunk too short: have %d bytes, need %d", len(data), n*size)
	}
	out := make([]any, n)
	for i := range out {
		row := make([]any, len(r))
		off := i * size
		for j, f := range r {
			row[j] = getElement(f.Code, data[off:off+f.Code.Size()])
			off += f.Code.Size()
		}
		out[i] = row
	}
	return out, nil
}
