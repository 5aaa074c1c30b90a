package filter

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// ZlibID is the codec identifier of zlib compression.
const ZlibID = "zlib"

// Zlib implements DEFLATE compression in the zlib container.
type Zlib struct {
	level int
}

// NewZlib creates a zlib compressor at the given level (0-9).
func NewZlib(level int) (*Zlib, error) {
	if level < zlib.NoCompression || level > zlib.BestCompression {
		return nil, fmt.Errorf("zlib level %d out of range", level)
	}
	return &Zlib{level: level}, nil
}

func (f *Zlib) ID() string {
	return ZlibID
}

func (f *Zlib) Config() Config {
	return Config{"id": ZlibID, "level": f.level}
}

func (f *Zlib) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, f.level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := w.Write(input); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *Zlib) Decode(input []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()

	output, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}

	return output, nil
}
