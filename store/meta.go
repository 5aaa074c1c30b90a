package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"github.com/robert-malhotra/go-zarrio/internal/dtype"
	"github.com/robert-malhotra/go-zarrio/internal/filter"
)

const zarrFormat = 2

// ArrayMeta is the .zarray document of a zarr v2 array.
type ArrayMeta struct {
	ZarrFormat         int             `json:"zarr_format"`
	Shape              []int           `json:"shape"`
	Chunks             []int           `json:"chunks"`
	Dtype              DtypeSpec       `json:"dtype"`
	Compressor         filter.Config   `json:"compressor"`
	FillValue          any             `json:"fill_value"`
	Order              string          `json:"order"`
	Filters            []filter.Config `json:"filters"`
	DimensionSeparator string          `json:"dimension_separator,omitempty"`
}

// DtypeSpec is the dtype entry of a .zarray document: a code string, or a
// list of [name, code] pairs for structured elements.
type DtypeSpec struct {
	Code   dtype.Code
	Fields []dtype.Field
}

// Structured reports whether the entry lists record fields.
func (d DtypeSpec) Structured() bool { return d.Fields != nil }

func (d DtypeSpec) String() string {
	if !d.Structured() {
		return string(d.Code)
	}
	s := "["
	for i, f := range d.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ":" + string(f.Code)
	}
	return s + "]"
}

func (d DtypeSpec) MarshalJSON() ([]byte, error) {
	if !d.Structured() {
		return json.Marshal(string(d.Code))
	}
	pairs := make([][2]string, len(d.Fields))
	for i, f := range d.Fields {
		pairs[i] = [2]string{f.Name, string(f.Code)}
	}
	return json.Marshal(pairs)
}

func (d *DtypeSpec) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		*d = DtypeSpec{Code: dtype.Code(code)}
		return nil
	}
	var pairs [][]any
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("dtype is neither a code nor a field list: %w", err)
	}
	fields := make([]dtype.Field, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return fmt.Errorf("dtype field %d: want [name, code], got %d entries", i, len(p))
		}
		name, ok := p[0].(string)
		code, ok2 := p[1].(string)
		if !ok || !ok2 {
			return fmt.Errorf("dtype field %d: nested dtypes are not supported", i)
		}
		fields[i] = dtype.Field{Name: name, Code: dtype.Code(code)}
	}
	*d = DtypeSpec{Code: dtype.Structured, Fields: fields}
	return nil
}

type groupMeta struct {
	ZarrFormat int `json:"zarr_format"`
}

type consolidatedMeta struct {
	Metadata               map[string]json.RawMessage `json:"metadata"`
	ZarrConsolidatedFormat int                        `json:"zarr_consolidated_format"`
}

func parseArrayMeta(data []byte) (*ArrayMeta, error) {
	var m ArrayMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ArrayKey, err)
	}
	if m.ZarrFormat != zarrFormat {
		return nil, fmt.Errorf("unsupported zarr_format %d", m.ZarrFormat)
	}
	if m.Order != "" && m.Order != "C" {
		return nil, fmt.Errorf("unsupported array order %q", m.Order)
	}
	if m.DimensionSeparator == "" {
		m.DimensionSeparator = "."
	}
	return &m, nil
}

func encodeMeta(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "    ")
}

// decodeFill converts a .zarray fill_value to the element type of c. A
// null or unusable fill decodes to the zero value. Byte string fills are
// base64 text.
func decodeFill(c dtype.Code, raw any) any {
	if c == dtype.Object {
		return raw
	}
	if _, ok := c.ByteLen(); ok {
		s, _ := raw.(string)
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return dtype.Zero(c)
		}
		v, err := dtype.Convert(c, b)
		if err != nil {
			return dtype.Zero(c)
		}
		return v
	}
	if s, ok := raw.(string); ok {
		var f float64
		switch s {
		case "NaN":
			f = math.NaN()
		case "Infinity":
			f = math.Inf(1)
		case "-Infinity":
			f = math.Inf(-1)
		default:
			return dtype.Zero(c)
		}
		if c == dtype.Float32 {
			return float32(f)
		}
		if c == dtype.Float64 {
			return f
		}
		return dtype.Zero(c)
	}
	if raw == nil {
		return dtype.Zero(c)
	}
	v, err := dtype.Convert(c, raw)
	if err != nil {
		return dtype.Zero(c)
	}
	return v
}

// encodeFill converts a fill value to its JSON representation.
func encodeFill(c dtype.Code, v any) any {
	if c == dtype.Object {
		return v
	}
	if v == nil {
		v = dtype.Zero(c)
	}
	switch f := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(f)
	case float64:
		return jsonFloat(f)
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return jsonFloat(float64(f))
		}
		return floatLiteral{float64(f), 32}
	}
	return v
}

// decodeRecordFill decodes the base64 fill of a structured array. Anything
// else decodes to the zero row.
func decodeRecordFill(r dtype.Record, raw any) []any {
	s, ok := raw.(string)
	if !ok {
		return r.Zero()
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return r.Zero()
	}
	rows, err := r.Decode(b, 1)
	if err != nil {
		return r.Zero()
	}
	return rows[0].([]any)
}

// encodeRecordFill encodes a structured fill as base64 of its packed bytes.
func encodeRecordFill(r dtype.Record, v any) (any, error) {
	if v == nil {
		v = r.Zero()
	}
	b, err := r.Encode([]any{v})
	if err != nil {
		return nil, fmt.Errorf("fill value: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func jsonFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return floatLiteral{f, 64}
}
