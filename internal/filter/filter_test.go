package filter

import (
	"bytes"
	"compress/zlib"
	"crypto/rand"
	"testing"
)

func TestZlibRoundtrip(t *testing.T) {
	original := []byte("Hello, World! This is test data for compression testing.")

	f, err := NewZlib(6)
	if err != nil {
		t.Fatalf("NewZlib failed: %v", err)
	}
	compressed, err := f.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decompressed, err := f.Decode(compressed)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !bytes.Equal(decompressed, original) {
		t.Errorf("Decompressed data mismatch:\ngot:  %q\nwant: %q", decompressed, original)
	}
}

func TestZlibDecodesStdlibOutput(t *testing.T) {
	original := []byte("written by another zarr implementation")

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(original)
	w.Close()

	f, _ := NewZlib(1)
	got, err := f.Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("got %q, want %q", got, original)
	}
}

func TestZlibLevelRange(t *testing.T) {
	if _, err := NewZlib(10); err == nil {
		t.Error("expected error for level 10")
	}
}

func TestCompressorRoundtrip(t *testing.T) {
	random := make([]byte, 300)
	rand.Read(random)

	inputs := map[string][]byte{
		"empty":      {},
		"text":       bytes.Repeat([]byte("zarr chunk "), 200),
		"random":     random,
		"singleByte": {42},
	}
	codecs := []Filter{NewZstd(3), NewLZ4(1)}

	for _, c := range codecs {
		for name, input := range inputs {
			t.Run(c.ID()+"/"+name, func(t *testing.T) {
				enc, err := c.Encode(input)
				if err != nil {
					t.Fatalf("Encode failed: %v", err)
				}
				dec, err := c.Decode(enc)
				if err != nil {
					t.Fatalf("Decode failed: %v", err)
				}
				if !bytes.Equal(dec, input) {
					t.Errorf("roundtrip mismatch: got %d bytes, want %d", len(dec), len(input))
				}
			})
		}
	}
}

func TestLZ4LiteralBlock(t *testing.T) {
	for _, n := range []int{1, 14, 15, 16, 270, 600} {
		input := make([]byte, n)
		rand.Read(input)
		f := NewLZ4(1)
		enc := append([]byte{byte(n), byte(n >> 8), 0, 0}, literalBlock(input)...)
		dec, err := f.Decode(enc)
		if err != nil {
			t.Fatalf("n=%d: Decode failed: %v", n, err)
		}
		if !bytes.Equal(dec, input) {
			t.Errorf("n=%d: literal block mismatch", n)
		}
	}
}

func TestShuffleUnshuffle(t *testing.T) {
	// Original: [A0 A1 A2 A3] [B0 B1 B2 B3] [C0 C1 C2 C3] [D0 D1 D2 D3]
	// Shuffled: [A0 B0 C0 D0] [A1 B1 C1 D1] [A2 B2 C2 D2] [A3 B3 C3 D3]
	original := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x11, 0x12, 0x13, 0x14,
		0x21, 0x22, 0x23, 0x24,
		0x31, 0x32, 0x33, 0x34,
	}
	shuffled := []byte{
		0x01, 0x11, 0x21, 0x31,
		0x02, 0x12, 0x22, 0x32,
		0x03, 0x13, 0x23, 0x33,
		0x04, 0x14, 0x24, 0x34,
	}

	f := NewShuffle(4)
	got, err := f.Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(got, shuffled) {
		t.Errorf("Shuffled data mismatch:\ngot:  %v\nwant: %v", got, shuffled)
	}

	unshuffled, err := f.Decode(shuffled)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(unshuffled, original) {
		t.Errorf("Unshuffled data mismatch:\ngot:  %v\nwant: %v", unshuffled, original)
	}
}

func TestShuffleTrailingBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	f := NewShuffle(2)
	enc, _ := f.Encode(data)
	if enc[4] != 5 {
		t.Errorf("trailing byte moved: %v", enc)
	}
	dec, _ := f.Decode(enc)
	if !bytes.Equal(dec, data) {
		t.Errorf("got %v, want %v", dec, data)
	}
}

func TestShuffleSingleByte(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	f := NewShuffle(1)

	result, err := f.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(result, data) {
		t.Errorf("Single-byte shuffle should be identity")
	}
}

func TestFletcher32Roundtrip(t *testing.T) {
	data := []byte("test data for checksum")

	f := NewFletcher32()
	enc, err := f.Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(enc) != len(data)+4 {
		t.Fatalf("expected %d bytes, got %d", len(data)+4, len(enc))
	}
	checksum := Fletcher32(data)
	if enc[len(data)] != byte(checksum) || enc[len(data)+3] != byte(checksum>>24) {
		t.Error("checksum not stored little-endian")
	}

	output, err := f.Decode(enc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(output, data) {
		t.Errorf("Output mismatch:\ngot:  %v\nwant: %v", output, data)
	}
}

func TestFletcher32Invalid(t *testing.T) {
	data := []byte("test data for checksum")

	input := make([]byte, len(data)+4)
	copy(input, data)
	input[len(data)] = 0xDE
	input[len(data)+1] = 0xAD
	input[len(data)+2] = 0xBE
	input[len(data)+3] = 0xEF

	f := NewFletcher32()
	if _, err := f.Decode(input); err == nil {
		t.Error("Expected error for invalid checksum")
	}
}

func TestFletcher32Known(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"empty", []byte{}, 0},
		{"abcde", []byte("abcde"), 0xF04FC729},
		{"abcdef", []byte("abcdef"), 0x56502D2A},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fletcher32(tt.data); got != tt.want {
				t.Errorf("Fletcher32(%q) = 0x%08x, want 0x%08x", tt.data, got, tt.want)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		cfg Config
		id  string
	}{
		{Config{"id": "zlib", "level": float64(5)}, ZlibID},
		{Config{"id": "zstd", "level": int64(1)}, ZstdID},
		{Config{"id": "lz4"}, LZ4ID},
		{Config{"id": "shuffle", "elementsize": 8}, ShuffleID},
		{Config{"id": "fletcher32"}, Fletcher32ID},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			f, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if f.ID() != tt.id {
				t.Errorf("expected ID %q, got %q", tt.id, f.ID())
			}
			if f.Config().ID() != tt.id {
				t.Errorf("Config().ID() = %q", f.Config().ID())
			}
		})
	}

	if _, err := New(Config{"id": "blosc"}); err == nil {
		t.Error("expected error for unsupported codec")
	}
}

func TestPipelineEmpty(t *testing.T) {
	p, err := NewPipeline(nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if !p.Empty() {
		t.Error("Expected empty pipeline")
	}

	data := []byte("unchanged")
	result, err := p.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(result, data) {
		t.Error("Empty pipeline should pass data through unchanged")
	}
}

func TestPipelineWithFilters(t *testing.T) {
	p, err := NewPipeline(
		[]Config{{"id": "shuffle", "elementsize": 4}, {"id": "fletcher32"}},
		Config{"id": "zstd", "level": 3},
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 filters, got %d", p.Len())
	}

	data := bytes.Repeat([]byte{1, 0, 0, 0, 2, 0, 0, 0}, 64)
	enc, err := p.Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	dec, err := p.Decode(enc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(dec, data) {
		t.Error("pipeline roundtrip mismatch")
	}
}

func TestPipelineBadCodec(t *testing.T) {
	if _, err := NewPipeline([]Config{{"id": "nbit"}}, nil); err == nil {
		t.Error("expected error for unknown filter")
	}
	if _, err := NewPipeline(nil, Config{"id": "szip"}); err == nil {
		t.Error("expected error for unknown compressor")
	}
}
