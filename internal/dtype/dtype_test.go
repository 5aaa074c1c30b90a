package dtype

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Code
	}{
		{"<f8", Float64},
		{"|i1", Int8},
		{"<u1", Uint8},
		{"|b1", Bool},
		{"O", Object},
		{"|O", Object},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := Parse(">f8"); !errors.Is(err, ErrUnknownCode) {
		t.Errorf("expected ErrUnknownCode, got %v", err)
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		code Code
		size int
	}{
		{Int8, 1}, {Int16, 2}, {Int32, 4}, {Int64, 8},
		{Uint8, 1}, {Uint16, 2}, {Uint32, 4}, {Uint64, 8},
		{Float32, 4}, {Float64, 8}, {Bool, 1}, {Object, 0},
	}
	for _, tt := range tests {
		if got := tt.code.Size(); got != tt.size {
			t.Errorf("%s: expected size %d, got %d", tt.code, tt.size, got)
		}
	}
	if Object.Packed() {
		t.Error("object code should not be packed")
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	tests := []struct {
		name   string
		code   Code
		values []any
	}{
		{"int8", Int8, []any{int8(-128), int8(0), int8(127)}},
		{"int16", Int16, []any{int16(-300), int16(300)}},
		{"int32", Int32, []any{int32(math.MinInt32), int32(7)}},
		{"int64", Int64, []any{int64(math.MaxInt64), int64(-1)}},
		{"uint16", Uint16, []any{uint16(65535)}},
		{"uint64", Uint64, []any{uint64(math.MaxUint64)}},
		{"float32", Float32, []any{float32(1.5), float32(-2.25)}},
		{"float64", Float64, []any{math.Pi, math.Inf(1)}},
		{"bool", Bool, []any{true, false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.code, tt.values)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(raw) != len(tt.values)*tt.code.Size() {
				t.Fatalf("expected %d bytes, got %d", len(tt.values)*tt.code.Size(), len(raw))
			}
			got, err := Decode(tt.code, raw, len(tt.values))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.values) {
				t.Errorf("roundtrip mismatch:\ngot:  %v\nwant: %v", got, tt.values)
			}
		})
	}
}

func TestEncodeLittleEndian(t *testing.T) {
	raw, err := Encode(Int32, []any{int32(0x01020304)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("expected %v, got %v", want, raw)
	}
}

func TestDecodeShortChunk(t *testing.T) {
	if _, err := Decode(Float64, make([]byte, 7), 1); err == nil {
		t.Error("expected error for short chunk")
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		code Code
		in   any
		want any
	}{
		{"int to int32", Int32, 5, int32(5)},
		{"int64 to uint8", Uint8, int64(200), uint8(200)},
		{"integral float to int16", Int16, 3.0, int16(3)},
		{"int to float64", Float64, 2, float64(2)},
		{"float64 to float32", Float32, 0.5, float32(0.5)},
		{"bool to int8", Int8, true, int8(1)},
		{"int to bool", Bool, 0, false},
		{"exact is identity", Int64, int64(9), int64(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.code, tt.in)
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestConvertRejects(t *testing.T) {
	tests := []struct {
		name string
		code Code
		in   any
	}{
		{"overflow int8", Int8, 300},
		{"negative to uint", Uint32, -1},
		{"fractional to int", Int32, 1.5},
		{"string to float", Float64, "1.0"},
		{"nil", Int64, nil},
		{"uint64 overflow int64", Int64, uint64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Convert(tt.code, tt.in); !errors.Is(err, ErrConversion) {
				t.Errorf("expected ErrConversion, got %v", err)
			}
		})
	}
}

func TestExact(t *testing.T) {
	if !Exact(Float64, 1.0) {
		t.Error("float64 should be exact for <f8")
	}
	if Exact(Int32, 1) {
		t.Error("int should not be exact for <i4")
	}
	type myInt int32
	if Exact(Int32, myInt(1)) {
		t.Error("named types should not be exact")
	}
	if !Exact(Object, "anything") {
		t.Error("object code accepts any value")
	}
}

func TestFromKind(t *testing.T) {
	if c, ok := FromKind(reflect.Int); !ok || c != Int64 {
		t.Errorf("FromKind(int) = %s, %v", c, ok)
	}
	if c, ok := FromKind(reflect.Float32); !ok || c != Float32 {
		t.Errorf("FromKind(float32) = %s, %v", c, ok)
	}
	if _, ok := FromKind(reflect.String); ok {
		t.Error("strings have no packed code")
	}
}
