package filter

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifiers of the third-party compressors.
const (
	ZstdID = "zstd"
	LZ4ID  = "lz4"
)

// zstdDecoder is shared by every Zstd codec. zstd.Decoder is safe for
// concurrent DecodeAll calls.
var zstdDecoder *zstd.Decoder

// zstdEncoders caches one encoder per level.
var zstdEncoders sync.Map

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("filter: zstd decoder initialization failed: " + err.Error())
	}
}

// Zstd implements Zstandard compression.
type Zstd struct {
	level int
}

// NewZstd creates a zstd compressor at the given zstd level.
func NewZstd(level int) *Zstd {
	return &Zstd{level: level}
}

func (f *Zstd) ID() string {
	return ZstdID
}

func (f *Zstd) Config() Config {
	return Config{"id": ZstdID, "level": f.level}
}

func (f *Zstd) encoder() (*zstd.Encoder, error) {
	if e, ok := zstdEncoders.Load(f.level); ok {
		return e.(*zstd.Encoder), nil
	}
	e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(f.level)))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	actual, _ := zstdEncoders.LoadOrStore(f.level, e)
	return actual.(*zstd.Encoder), nil
}

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	e, err := f.encoder()
	if err != nil {
		return nil, err
	}
	return e.EncodeAll(input, nil), nil
}

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return result, nil
}

// LZ4 implements LZ4 block compression. Stored blocks carry a 4-byte
// little-endian uncompressed length header.
type LZ4 struct {
	acceleration int
}

// NewLZ4 creates an LZ4 block compressor.
func NewLZ4(acceleration int) *LZ4 {
	return &LZ4{acceleration: acceleration}
}

func (f *LZ4) ID() string {
	return LZ4ID
}

func (f *LZ4) Config() Config {
	return Config{"id": LZ4ID, "acceleration": f.acceleration}
}

func (f *LZ4) Encode(input []byte) ([]byte, error) {
	if uint64(len(input)) > math.MaxUint32 {
		return nil, fmt.Errorf("lz4 compress: chunk of %d bytes too large", len(input))
	}
	bound := lz4.CompressBlockBound(len(input))
	destination := make([]byte, 4+bound)
	binary.LittleEndian.PutUint32(destination, uint32(len(input)))

	written, err := lz4.CompressBlock(input, destination[4:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// Incompressible input yields 0; store it as a literal-only block.
	if written == 0 && len(input) > 0 {
		return append(destination[:4], literalBlock(input)...), nil
	}
	return destination[:4+written], nil
}

// literalBlock encodes input as a single LZ4 sequence with no match.
func literalBlock(input []byte) []byte {
	n := len(input)
	out := make([]byte, 0, n+n/255+2)
	if n < 15 {
		out = append(out, byte(n<<4))
	} else {
		out = append(out, 0xF0)
		rest := n - 15
		for rest >= 255 {
			out = append(out, 255)
			rest -= 255
		}
		out = append(out, byte(rest))
	}
	return append(out, input...)
}

func (f *LZ4) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("lz4 decompress: input too short for header")
	}
	size := int(binary.LittleEndian.Uint32(input))
	destination := make([]byte, size)
	if size == 0 {
		return destination, nil
	}
	read, err := lz4.UncompressBlock(input[4:], destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
	}
	return destination, nil
}
