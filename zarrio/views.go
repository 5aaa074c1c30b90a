package zarrio

import (
	"fmt"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/datatype"
	"github.com/robert-malhotra/go-zarrio/internal/dtype"
	"github.com/robert-malhotra/go-zarrio/store"
)

// ReferenceView presents a stored array of reference records as a lazily
// resolved sequence of builders.
type ReferenceView struct {
	array *store.Array
	io    *IO
}

// Array returns the backing store array.
func (v *ReferenceView) Array() *store.Array { return v.array }

// Len returns the number of references.
func (v *ReferenceView) Len() int { return v.array.Len() }

// Index resolves reference i to the builder of its target.
func (v *ReferenceView) Index(i int) (any, error) {
	rec, err := v.array.Index(i)
	if err != nil {
		return nil, err
	}
	return v.resolve(rec)
}

// Slice resolves every reference.
func (v *ReferenceView) Slice() ([]any, error) {
	recs, err := v.array.Read()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(recs))
	for i, rec := range recs {
		if out[i], err = v.resolve(rec); err != nil {
			return nil, fmt.Errorf("reference %d of %s: %w", i, v.array.Path(), err)
		}
	}
	return out, nil
}

func (v *ReferenceView) resolve(rec any) (builder.Builder, error) {
	ref, err := ParseReference(rec)
	if err != nil {
		return nil, err
	}
	return v.io.resolveBuilder(v.array, ref)
}

// TableView presents a stored array of compound rows. Each row is a []any
// in field order with reference fields resolved to builders and numeric
// fields converted to their declared kinds.
type TableView struct {
	array    *store.Array
	compound datatype.Compound
	io       *IO
}

// Array returns the backing store array.
func (v *TableView) Array() *store.Array { return v.array }

// Compound returns the row type.
func (v *TableView) Compound() datatype.Compound { return v.compound }

// Len returns the number of rows.
func (v *TableView) Len() int { return v.array.Len() }

// Index returns row i.
func (v *TableView) Index(i int) (any, error) {
	rec, err := v.array.Index(i)
	if err != nil {
		return nil, err
	}
	return v.row(rec)
}

// Slice returns every row.
func (v *TableView) Slice() ([]any, error) {
	recs, err := v.array.Read()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(recs))
	for i, rec := range recs {
		if out[i], err = v.row(rec); err != nil {
			return nil, fmt.Errorf("row %d of %s: %w", i, v.array.Path(), err)
		}
	}
	return out, nil
}

func (v *TableView) row(rec any) ([]any, error) {
	fields, ok := rec.([]any)
	if !ok || len(fields) != len(v.compound.Fields) {
		return nil, fmt.Errorf("malformed compound row %v", rec)
	}
	out := make([]any, len(fields))
	for i, f := range v.compound.Fields {
		switch t := f.Type.(type) {
		case datatype.Reference:
			ref, err := ParseReference(fields[i])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			b, err := v.io.resolveBuilder(v.array, ref)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[i] = b
		case datatype.Primitive:
			cv, err := dtype.Convert(datatype.Code(t), fields[i])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[i] = cv
		default:
			out[i] = fields[i]
		}
	}
	return out, nil
}
