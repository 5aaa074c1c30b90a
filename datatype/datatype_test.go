package datatype

import (
	"errors"
	"reflect"
	"testing"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/internal/dtype"
)

func TestResolveSymbolic(t *testing.T) {
	tests := []struct {
		name string
		want StorageType
	}{
		{"float", Primitive{Float32}},
		{"double", Primitive{Float64}},
		{"long", Primitive{Int64}},
		{"int", Primitive{Int32}},
		{"uint8", Primitive{Uint8}},
		{"bool", Primitive{Bool}},
		{"text", Text{}},
		{"utf-8", Text{}},
		{"isodatetime", Text{}},
		{"ascii", Bytes{}},
		{"string_", Bytes{}},
		{"ref", Reference{}},
		{"object", Reference{}},
		{"region", Reference{}},
		{"<f8", Primitive{Float64}},
		{"|u1", Primitive{Uint8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.name, nil)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveConcreteIsIdentity(t *testing.T) {
	c := Compound{Fields: []Field{{Name: "x", Type: Primitive{Int32}}}}
	got, err := Resolve(c, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Errorf("expected identity, got %v", got)
	}
}

func TestResolveReferenceDescriptors(t *testing.T) {
	descs := []any{
		RefSpec{TargetType: "Baz", RefType: "object"},
		map[string]any{"target_type": "Baz", "reftype": "object"},
	}
	for _, d := range descs {
		got, err := Resolve(d, nil)
		if err != nil {
			t.Fatalf("Resolve(%v) failed: %v", d, err)
		}
		if _, ok := got.(Reference); !ok {
			t.Errorf("Resolve(%v) = %v, want Reference", d, got)
		}
		if !IsReference(d) {
			t.Errorf("IsReference(%v) = false", d)
		}
	}
	if IsReference("int32") {
		t.Error("int32 is not a reference")
	}
}

func TestResolveCompoundKeepsOrder(t *testing.T) {
	desc := []any{
		map[string]any{"name": "x", "dtype": "int32"},
		map[string]any{"name": "lbl", "dtype": "text"},
		map[string]any{"name": "ref", "dtype": map[string]any{"reftype": "object"}},
	}
	got, err := Resolve(desc, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	c, ok := got.(Compound)
	if !ok {
		t.Fatalf("expected Compound, got %T", got)
	}
	want := []Field{
		{"x", Primitive{Int32}},
		{"lbl", Text{}},
		{"ref", Reference{}},
	}
	if !reflect.DeepEqual(c.Fields, want) {
		t.Errorf("fields mismatch:\ngot:  %v\nwant: %v", c.Fields, want)
	}
	if !c.HasReference() {
		t.Error("expected HasReference")
	}

	specs := []FieldSpec{{Name: "x", Dtype: "int32"}, {Name: "lbl", Dtype: "text"}}
	got, err = Resolve(specs, nil)
	if err != nil {
		t.Fatalf("Resolve(FieldSpec) failed: %v", err)
	}
	if got.(Compound).HasReference() {
		t.Error("unexpected reference field")
	}
}

func TestResolveUnknown(t *testing.T) {
	descs := []any{"quaternion", 42, []any{"notamap"}}
	for _, d := range descs {
		_, err := Resolve(d, 1)
		if !errors.Is(err, ErrUnresolvedType) {
			t.Errorf("Resolve(%v): expected ErrUnresolvedType, got %v", d, err)
		}
		var ute *UnresolvedTypeError
		if !errors.As(err, &ute) {
			t.Errorf("Resolve(%v): expected *UnresolvedTypeError", d)
		}
	}
}

type lazy []any

func (l lazy) Len() int                 { return len(l) }
func (l lazy) Index(i int) (any, error) { return l[i], nil }

func TestInfer(t *testing.T) {
	tests := []struct {
		name string
		data any
		want StorageType
	}{
		{"string", "hello", Text{}},
		{"bytes", []byte("raw"), Bytes{}},
		{"int", 5, Primitive{Int64}},
		{"int16", int16(5), Primitive{Int16}},
		{"float32", float32(1), Primitive{Float32}},
		{"bool", true, Primitive{Bool}},
		{"float slice", []float64{1, 2}, Primitive{Float64}},
		{"nested", [][]int32{{1}, {2}}, Primitive{Int32}},
		{"string slice", []string{"a"}, Text{}},
		{"reference", builder.NewReference(builder.NewGroup("g")), Reference{}},
		{"builder slice", []builder.Builder{builder.NewGroup("g")}, Reference{}},
		{"sequence", lazy{"x"}, Text{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Infer(tt.data)
			if err != nil {
				t.Fatalf("Infer failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInferEmpty(t *testing.T) {
	for _, data := range []any{[]int32{}, lazy{}, nil, struct{}{}} {
		if _, err := Infer(data); !errors.Is(err, ErrUnresolvedType) {
			t.Errorf("Infer(%v): expected ErrUnresolvedType, got %v", data, err)
		}
	}
}

func TestResolveFallsBackToInference(t *testing.T) {
	got, err := Resolve(nil, []uint16{1})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(got, Primitive{Uint16}) {
		t.Errorf("expected uint16, got %v", got)
	}
}

func TestTagRoundtrip(t *testing.T) {
	types := []StorageType{
		Primitive{Int8},
		Primitive{Float64},
		Primitive{Bool},
		Text{},
		Bytes{},
		Reference{},
		Compound{Fields: []Field{{"x", Primitive{Int32}}, {"lbl", Text{}}, {"r", Reference{}}}},
	}
	for _, st := range types {
		t.Run(st.String(), func(t *testing.T) {
			got, err := ParseTag(Tag(st))
			if err != nil {
				t.Fatalf("ParseTag failed: %v", err)
			}
			if !reflect.DeepEqual(got, st) {
				t.Errorf("expected %v, got %v", st, got)
			}
		})
	}

	if _, err := ParseTag(TagScalar); err == nil {
		t.Error("scalar tag should not parse as a type")
	}
}

func TestCode(t *testing.T) {
	if Code(Primitive{Float32}) != dtype.Float32 {
		t.Error("float32 code mismatch")
	}
	for _, st := range []StorageType{Text{}, Bytes{}, Reference{}, Compound{}} {
		if !ObjectCoded(st) {
			t.Errorf("%v should be object-coded", st)
		}
	}
	st, ok := FromCode(dtype.Uint32)
	if !ok || !reflect.DeepEqual(st, Primitive{Uint32}) {
		t.Errorf("FromCode(<u4) = %v, %v", st, ok)
	}
	if _, ok := FromCode(dtype.Object); ok {
		t.Error("object code carries no type")
	}
}
