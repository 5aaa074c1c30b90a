package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode packs values into little-endian bytes for a packed code. Each value
// is passed through Convert first.
func Encode(c Code, values []any) ([]byte, error) {
	size := c.Size()
	if size == 0 {
		return nil, fmt.Errorf("cannot pack %s elements", c)
	}
	data := make([]byte, len(values)*size)
	for i, v := range values {
		cv, err := Convert(c, v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		putElement(data[i*size:(i+1)*size], cv)
	}
	return data, nil
}

// putElement writes v at the start of dst. Byte strings fill dst and are
// padded with zeros.
func putElement(dst []byte, v any) {
	le := binary.LittleEndian
	switch x := v.(type) {
	case []byte:
		clear(dst[copy(dst, x):])
	case int8:
		dst[0] = byte(x)
	case int16:
		le.PutUint16(dst, uint16(x))
	case int32:
		le.PutUint32(dst, uint32(x))
	case int64:
		le.PutUint64(dst, uint64(x))
	case uint8:
		dst[0] = x
	case uint16:
		le.PutUint16(dst, x)
	case uint32:
		le.PutUint32(dst, x)
	case uint64:
		le.PutUint64(dst, x)
	case float32:
		le.PutUint32(dst, math.Float32bits(x))
	case float64:
		le.PutUint64(dst, math.Float64bits(x))
	case bool:
		if x {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	}
}

// Decode unpacks n elements of code c from data.
func Decode(c Code, data []byte, n int) ([]any, error) {
	size := c.Size()
	if size == 0 {
		return nil, fmt.Errorf("cannot unpack %s elements", c)
	}
	if len(data) < n*size {
		return nil, fmt.Errorf("chunk too short: have %d bytes, need %d", len(data), n*size)
	}

	out := make([]any, n)
	for i := range out {
		out[i] = getElement(c, data[i*size:(i+1)*size])
	}
	return out, nil
}

// getElement reads the element of code c from b. Trailing zeros of byte
// strings are dropped.
func getElement(c Code, b []byte) any {
	if n, ok := c.ByteLen(); ok {
		return bytes.TrimRight(append([]byte(nil), b[:n]...), "\x00")
	}
	le := binary.LittleEndian
	switch c {
	case Int8:
		return int8(b[0])
	case Int16:
		return int16(le.Uint16(b))
	case Int32:
		return int32(le.Uint32(b))
	case Int64:
		return int64(le.Uint64(b))
	case Uint8:
		return b[0]
	case Uint16:
		return le.Uint16(b)
	case Uint32:
		return le.Uint32(b)
	case Uint64:
		return le.Uint64(b)
	case Float32:
		return math.Float32frombits(le.Uint32(b))
	case Float64:
		return math.Float64frombits(le.Uint64(b))
	case Bool:
		return b[0] != 0
	}
	return nil
}
