package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/robert-malhotra/go-zarrio/internal/filter"
)

// Object codec identifiers.
const (
	JSONCodecID = "json2"
	CBORCodecID = "cbor"
)

// ObjectCodec serializes the elements of an object-coded chunk. It is
// stored as the first entry of the array's filters.
type ObjectCodec interface {
	ID() string
	Encode(items []any) ([]byte, error)
	Decode(data []byte) ([]any, error)
	Config() filter.Config
}

// NewObjectCodec returns the codec registered under id.
func NewObjectCodec(id string) (ObjectCodec, error) {
	switch id {
	case JSONCodecID, "json", "":
		return JSONCodec{}, nil
	case CBORCodecID:
		return CBORCodec{}, nil
	}
	return nil, fmt.Errorf("unsupported object codec %q", id)
}

func isObjectCodec(id string) bool {
	return id == JSONCodecID || id == "json" || id == CBORCodecID
}

// JSONCodec stores a chunk as a JSON list of its elements followed by the
// dtype and shape, matching numcodecs' JSON codec.
type JSONCodec struct{}

func (JSONCodec) ID() string { return JSONCodecID }

func (JSONCodec) Config() filter.Config {
	return filter.Config{"id": JSONCodecID, "encoding": "utf-8", "allow_nan": true, "sort_keys": true}
}

// Encode writes non-finite floats as the bare NaN, Infinity and -Infinity
// tokens Python's json module accepts.
func (JSONCodec) Encode(items []any) ([]byte, error) {
	doc := make([]any, 0, len(items)+2)
	for _, item := range items {
		doc = append(doc, keepFloats(item))
	}
	doc = append(doc, "|O", []int{len(items)})
	var buf bytes.Buffer
	if err := appendJSON(&buf, doc); err != nil {
		return nil, fmt.Errorf("json codec: %w", err)
	}
	return buf.Bytes(), nil
}

// appendJSON encodes v like json.Marshal with sorted map keys, except that
// non-finite floatLiterals inside lists and maps become bare tokens.
func appendJSON(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case floatLiteral:
		if s, ok := nonFiniteToken(x.v); ok {
			buf.WriteString(s)
			return nil
		}
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := appendJSON(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func nonFiniteToken(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}
	return "", false
}

func (JSONCodec) Decode(data []byte) ([]any, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("json codec: %w", err)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("json codec: chunk is %T, not a list", v)
	}
	if n := len(items); n >= 2 {
		if s, ok := items[n-2].(string); ok && s == "|O" {
			if _, ok := items[n-1].([]any); ok {
				items = items[:n-2]
			}
		}
	}
	return items, nil
}

// floatLiteral is a float that encodes with a fractional part or exponent,
// so integral values such as 2.0 decode as floats again.
type floatLiteral struct {
	v    float64
	bits int
}

func (f floatLiteral) MarshalJSON() ([]byte, error) {
	if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
		return nil, fmt.Errorf("unsupported float value %v", f.v)
	}
	b := strconv.AppendFloat(nil, f.v, 'g', -1, f.bits)
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, ".0"...)
	}
	return b, nil
}

// keepFloats returns v with every float inside slices and string-keyed
// maps replaced by a floatLiteral. Other values, including types with their
// own JSON encoding, are returned as they are.
func keepFloats(v any) any {
	switch x := v.(type) {
	case json.Marshaler:
		return v
	case float64:
		return floatLiteral{x, 64}
	case float32:
		return floatLiteral{float64(x), 32}
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = keepFloats(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = keepFloats(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return v
	}
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return floatLiteral{rv.Float(), rv.Type().Bits()}
	case reflect.Slice, reflect.Array:
		if (rv.Kind() == reflect.Slice && rv.IsNil()) || rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = keepFloats(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = keepFloats(iter.Value().Interface())
		}
		return out
	}
	return v
}

// decodeJSON decodes a JSON document, turning integral numbers into int64
// (uint64 above the int64 range) and all other numbers into float64. Bare
// NaN, Infinity and -Infinity tokens decode as floats.
func decodeJSON(data []byte) (any, error) {
	data, marker := quoteNonFinite(data)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v, marker), nil
}

var nonFiniteTokens = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// quoteNonFinite replaces non-finite tokens outside strings with JSON
// strings holding marker+token. marker is empty when there are none.
func quoteNonFinite(data []byte) ([]byte, string) {
	var (
		out      []byte
		marker   string
		inString bool
		last     int
	)
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c != 'N' && c != 'I' && c != '-' {
			continue
		}
		for _, tok := range nonFiniteTokens {
			if !bytes.HasPrefix(data[i:], tok) {
				continue
			}
			if marker == "" {
				marker = uuid.NewString() + ":"
			}
			q, _ := json.Marshal(marker + string(tok))
			out = append(append(out, data[last:i]...), q...)
			i += len(tok) - 1
			last = i + 1
			break
		}
	}
	if marker == "" {
		return data, ""
	}
	return append(out, data[last:]...), marker
}

func normalizeNumbers(v any, marker string) any {
	switch x := v.(type) {
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
			if u, err := strconv.ParseUint(s, 10, 64); err == nil {
				return u
			}
		}
		f, _ := x.Float64()
		return f
	case string:
		if marker == "" || !strings.HasPrefix(x, marker) {
			return x
		}
		switch strings.TrimPrefix(x, marker) {
		case "NaN":
			return math.NaN()
		case "Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i], marker)
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k], marker)
		}
		return x
	}
	return v
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("store: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic("store: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORCodec stores a chunk as a deterministic CBOR array of its elements.
type CBORCodec struct{}

func (CBORCodec) ID() string { return CBORCodecID }

func (CBORCodec) Config() filter.Config {
	return filter.Config{"id": CBORCodecID}
}

func (CBORCodec) Encode(items []any) ([]byte, error) {
	data, err := cborEnc.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("cbor codec: %w", err)
	}
	return data, nil
}

func (CBORCodec) Decode(data []byte) ([]any, error) {
	var items []any
	if err := cborDec.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("cbor codec: %w", err)
	}
	return items, nil
}
