package dtype

import (
	"fmt"
	"math"
	"reflect"
)

// Exact reports whether v already has the Go type stored under c.
func Exact(c Code, v any) bool {
	if c == Object {
		return true
	}
	if v == nil {
		return false
	}
	if n, ok := c.ByteLen(); ok {
		b, isBytes := v.([]byte)
		return isBytes && len(b) <= n
	}
	return reflect.TypeOf(v).Kind() == c.Kind() && reflect.TypeOf(v).PkgPath() == ""
}

// Convert coerces v to the Go type stored under c. Integers must fit the
// target range and floats converted to integers must be integral.
func Convert(c Code, v any) (any, error) {
	if c == Object {
		return v, nil
	}
	if Exact(c, v) {
		return v, nil
	}
	if v == nil {
		return nil, fmt.Errorf("%w: nil to %s", ErrConversion, c)
	}
	if n, ok := c.ByteLen(); ok {
		var b []byte
		switch x := v.(type) {
		case []byte:
			b = x
		case string:
			b = []byte(x)
		default:
			return nil, fmt.Errorf("%w: %T to %s", ErrConversion, v, c)
		}
		if len(b) > n {
			return nil, fmt.Errorf("%w: %d bytes to %s", ErrConversion, len(b), c)
		}
		return b, nil
	}

	rv := reflect.ValueOf(v)
	var (
		i       int64
		u       uint64
		f       float64
		signed  bool
		isFloat bool
	)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
		signed = true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u = rv.Uint()
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
		isFloat = true
	case reflect.Bool:
		if rv.Bool() {
			u = 1
		}
	default:
		return nil, fmt.Errorf("%w: %T to %s", ErrConversion, v, c)
	}

	switch c {
	case Float32:
		return float32(asFloat(i, u, f, signed, isFloat)), nil
	case Float64:
		return asFloat(i, u, f, signed, isFloat), nil
	case Bool:
		return asFloat(i, u, f, signed, isFloat) != 0, nil
	}

	if isFloat {
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: non-integral %v to %s", ErrConversion, f, c)
		}
		if f < 0 {
			i, signed = int64(f), true
		} else {
			u = uint64(f)
		}
	}
	if signed && i >= 0 {
		u, signed = uint64(i), false
	}

	switch c {
	case Int8, Int16, Int32, Int64:
		bits := c.Size() * 8
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if bits == 64 {
			lo, hi = math.MinInt64, math.MaxInt64
		}
		n := i
		if !signed {
			if u > uint64(hi) {
				return nil, fmt.Errorf("%w: %v overflows %s", ErrConversion, v, c)
			}
			n = int64(u)
		}
		if n < lo || n > hi {
			return nil, fmt.Errorf("%w: %v overflows %s", ErrConversion, v, c)
		}
		return reflect.ValueOf(n).Convert(reflect.TypeOf(Zero(c))).Interface(), nil
	case Uint8, Uint16, Uint32, Uint64:
		if signed {
			return nil, fmt.Errorf("%w: negative %v to %s", ErrConversion, v, c)
		}
		bits := c.Size() * 8
		if bits < 64 && u > uint64(1)<<bits-1 {
			return nil, fmt.Errorf("%w: %v overflows %s", ErrConversion, v, c)
		}
		return reflect.ValueOf(u).Convert(reflect.TypeOf(Zero(c))).Interface(), nil
	}
	return nil, fmt.Errorf("%w: %T to %s", ErrConversion, v, c)
}

func asFloat(i int64, u uint64, f float64, signed, isFloat bool) float64 {
	switch {
	case isFloat:
		return f
	case signed:
		return float64(i)
	default:
		return float64(u)
	}
}
