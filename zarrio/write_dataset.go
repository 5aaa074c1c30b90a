package zarrio

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/datatype"
	"github.com/robert-malhotra/go-zarrio/internal/dtype"
	"github.com/robert-malhotra/go-zarrio/internal/filter"
	"github.com/robert-malhotra/go-zarrio/internal/layout"
	"github.com/robert-malhotra/go-zarrio/store"
)

// settings are the storage settings of one dataset.
type settings struct {
	chunks     []int
	shape      []int
	compressor filter.Config
	filters    []filter.Config
	fill       any
	record     dtype.Record
}

// writeDataset writes b under parent and returns its array, or nil when the
// dataset was already written or became a link. forced replaces b's data
// after lazily-backed data has been loaded.
func (w *writer) writeDataset(parent *store.Group, b *builder.DatasetBuilder, forced any) (*store.Array, error) {
	if w.tracker.IsWritten(b) {
		return nil, nil
	}
	name := b.Name()
	data := b.Data
	if forced != nil {
		data = forced
	}

	linkData := w.opts.linkData
	set := settings{compressor: w.IO.opts.compressor}
	var dio *DataIO
	if d, ok := data.(*DataIO); ok {
		dio = d
		set.chunks, set.shape, set.filters, set.fill = d.Chunks, d.Shape, d.Filters, d.FillValue
		if d.Compressor != nil {
			set.compressor = d.Compressor
		}
		if d.LinkData != nil {
			linkData = *d.LinkData
		}
		data = d.Data
	}

	var (
		arr    *store.Array
		tag    any
		linked bool
		err    error
	)
	switch d := data.(type) {
	case *store.Array:
		if linkData {
			err = addLink(parent, w.storeSource(d.Store().Location()), d.Path(), name)
			linked = true
		} else {
			arr, err = store.CopyArray(d, parent, name)
			if err != nil {
				err = &DatasetError{Name: name, Parent: parent.Path(), Err: err}
			}
		}

	case builder.ChunkIterator:
		arr, tag, err = w.setupChunked(parent, name, d, b.Dtype, set)
		if err == nil {
			w.queue.Enqueue(arr, d)
		}

	case builder.Dataset:
		refs, isRefs, lerr := referenceElements(d)
		if lerr != nil {
			return nil, &DatasetError{Name: name, Parent: parent.Path(), Err: lerr}
		}
		if isRefs {
			arr, tag, err = w.writeReferences(parent, name, refs, set)
			break
		}
		loaded, lerr := d.Slice()
		if lerr != nil {
			return nil, &DatasetError{Name: name, Parent: parent.Path(), Err: fmt.Errorf("loading data: %w", lerr)}
		}
		var next any = loaded
		if dio != nil {
			copied := *dio
			copied.Data = loaded
			next = &copied
		}
		return w.writeDataset(parent, b, next)

	default:
		st, declared, rerr := datatype.ResolveDescriptor(b.Dtype)
		if rerr != nil {
			return nil, &DatasetError{Name: name, Parent: parent.Path(), Err: rerr}
		}
		_, isRef := st.(datatype.Reference)
		switch {
		case declared && isCompound(st):
			arr, tag, err = w.writeCompound(parent, name, data, st.(datatype.Compound), set)
		case (declared && isRef) || (!declared && isReferenceData(data)):
			arr, tag, err = w.writeReferences(parent, name, data, set)
		case isText(data) && !(declared && isPrimitive(st)):
			arr, tag, err = w.scalarFill(parent, name, data, b.Dtype, set)
		case hasLen(data):
			if declared && isPrimitive(st) {
				data = byteElements(data)
			}
			arr, tag, err = w.listFill(parent, name, data, b.Dtype, set)
		default:
			arr, tag, err = w.scalarFill(parent, name, data, b.Dtype, set)
		}
	}
	if err != nil {
		return nil, err
	}

	if !linked {
		if tag != nil {
			if err := arr.Attrs().Set(DtypeAttr, tag); err != nil {
				return nil, fmt.Errorf("tagging %s: %w", arr.Path(), err)
			}
		}
		if err := w.writeAttributes(arr, b.Attributes()); err != nil {
			return nil, err
		}
	}
	w.tracker.SetWritten(b)

	if !w.opts.deferChunks {
		if err := w.queue.Drain(w.ctx); err != nil {
			return nil, fmt.Errorf("writing chunked dataset %s: %w", name, err)
		}
	}
	return arr, nil
}

// createArray creates the named array, wrapping failures with the dataset
// name and parent path.
func (w *writer) createArray(parent *store.Group, name string, shape []int, code dtype.Code, set settings) (*store.Array, error) {
	opts := store.ArrayOptions{
		Shape:      shape,
		Chunks:     set.chunks,
		Dtype:      code,
		Record:     set.record,
		FillValue:  set.fill,
		Compressor: set.compressor,
	}
	if code == dtype.Object {
		opts.ObjectCodec = w.IO.opts.objectCodec
	} else {
		opts.Filters = set.filters
	}
	arr, err := parent.RequireArray(name, opts)
	if err != nil {
		return nil, &DatasetError{Name: name, Parent: parent.Path(), Err: err}
	}
	w.logger.Debug("created array", "name", name, "parent", parent.Path(), "shape", shape, "dtype", code)
	return arr, nil
}

// writeReferences stores one reference record per element in a 1-d
// object-coded array. A single reference is stored with shape (1,).
func (w *writer) writeReferences(parent *store.Group, name string, data any, set settings) (*store.Array, any, error) {
	var items []any
	if isReferenceValue(data) {
		items = []any{data}
	} else {
		var err error
		items, err = elements(data)
		if err != nil {
			return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: err}
		}
	}

	records := make([]any, len(items))
	for i, item := range items {
		ref, err := w.MakeReference(item, w.opts.exportSource)
		if err != nil {
			return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: fmt.Errorf("element %d: %w", i, err)}
		}
		records[i] = ref.Map()
	}

	set.chunks = nil
	arr, err := w.createArray(parent, name, []int{len(records)}, dtype.Object, set)
	if err != nil {
		return nil, nil, err
	}
	if err := arr.SetAll(records); err != nil {
		return nil, nil, fmt.Errorf("writing references to %s: %w", arr.Path(), err)
	}
	return arr, datatype.TagObject, nil
}

// writeCompound stores rows of a compound type in a 1-d array, written as
// one batch. Compounds of primitives are packed into a structured array.
// Anything else is stored as object-coded records: reference fields become
// reference records, text and byte fields strings.
func (w *writer) writeCompound(parent *store.Group, name string, data any, c datatype.Compound, set settings) (*store.Array, any, error) {
	rows, err := compoundRows(data, c)
	if err != nil {
		return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: err}
	}

	records := make([]any, len(rows))
	for r, row := range rows {
		rec := make([]any, len(c.Fields))
		for i, f := range c.Fields {
			v, err := w.fieldValue(f, row[i])
			if err != nil {
				return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: fmt.Errorf("row %d: %w", r, err)}
			}
			rec[i] = v
		}
		records[r] = rec
	}

	code := dtype.Object
	if rec, ok := datatype.PackedRecord(c); ok {
		code, set.record = dtype.Structured, rec
	}
	arr, err := w.createArray(parent, name, []int{len(records)}, code, set)
	if err != nil {
		return nil, nil, err
	}
	if err := arr.SetAll(records); err != nil {
		return nil, nil, fmt.Errorf("writing compound rows to %s: %w", arr.Path(), err)
	}
	return arr, datatype.Tag(c), nil
}

func (w *writer) fieldValue(f datatype.Field, v any) (any, error) {
	switch t := f.Type.(type) {
	case datatype.Reference:
		ref, err := w.MakeReference(v, w.opts.exportSource)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		return ref.Map(), nil
	case datatype.Text, datatype.Bytes:
		return textValue(v), nil
	case datatype.Primitive:
		cv, err := dtype.Convert(datatype.Code(t), v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		return cv, nil
	}
	return nil, fmt.Errorf("field %q: nested %v fields are not supported", f.Name, f.Type)
}

// listFill writes sequence data. Numeric and boolean data is written in
// bulk, falling back to a converting write when the bulk assignment is
// rejected for type coercion. Text and byte data is object-coded.
func (w *writer) listFill(parent *store.Group, name string, data, desc any, set settings) (*store.Array, any, error) {
	st, err := datatype.Resolve(desc, data)
	if err != nil {
		return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: fmt.Errorf("could not determine type: %w", err)}
	}
	switch t := st.(type) {
	case datatype.Compound:
		return w.writeCompound(parent, name, data, t, set)
	case datatype.Reference:
		return w.writeReferences(parent, name, data, set)
	}

	values, dataShape, err := layout.Flatten(data)
	if err != nil {
		return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: err}
	}
	shape := dataShape
	if set.shape != nil {
		shape = set.shape
	}

	code := datatype.Code(st)
	if code == dtype.Object {
		for i, v := range values {
			values[i] = textValue(v)
		}
	}
	arr, err := w.createArray(parent, name, shape, code, set)
	if err != nil {
		return nil, nil, err
	}

	if equalShape(shape, dataShape) {
		err = arr.SetAll(values)
		if errors.Is(err, store.ErrTypeCoercion) {
			w.logger.Debug("bulk write rejected, converting elements", "array", arr.Path(), "dtype", code)
			err = arr.WriteBlock(make([]int, len(shape)), shape, values)
		}
	} else {
		err = arr.WriteBlock(make([]int, len(dataShape)), dataShape, values)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("writing %s: %w", arr.Path(), err)
	}
	return arr, datatype.Tag(st), nil
}

// scalarFill writes a single value with shape (1,) under the "scalar" tag.
func (w *writer) scalarFill(parent *store.Group, name string, data, desc any, set settings) (*store.Array, any, error) {
	st, err := datatype.Resolve(desc, data)
	if err != nil {
		return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: fmt.Errorf("could not determine type: %w", err)}
	}
	if _, ok := st.(datatype.Compound); ok {
		return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: fmt.Errorf("scalar compound values are not supported")}
	}

	code := datatype.Code(st)
	value := data
	switch {
	case isBytesType(st) && isText(data):
		// Byte strings keep their type as a fixed-length code.
		b := toBytes(data)
		code, value = dtype.FixedBytes(max(len(b), 1)), b
	case code == dtype.Object:
		value = textValue(data)
	}
	set.chunks = nil
	arr, err := w.createArray(parent, name, []int{1}, code, set)
	if err != nil {
		return nil, nil, err
	}
	if err := arr.Set([]int{0}, value); err != nil {
		return nil, nil, fmt.Errorf("writing %s: %w", arr.Path(), err)
	}
	return arr, datatype.TagScalar, nil
}

// setupChunked creates the empty array an iterator is written into. Shape,
// chunks and dtype come from the settings, then the builder, then the
// iterator's recommendations.
func (w *writer) setupChunked(parent *store.Group, name string, it builder.ChunkIterator, desc any, set settings) (*store.Array, any, error) {
	if set.chunks == nil {
		set.chunks = it.RecommendedChunkShape()
	}
	shape := set.shape
	if shape == nil {
		shape = it.RecommendedDataShape()
	}
	if desc == nil {
		desc = it.Dtype()
	}
	st, ok, err := datatype.ResolveDescriptor(desc)
	if err == nil && !ok {
		err = &datatype.UnresolvedTypeError{Value: desc, Reason: "chunk iterator without dtype"}
	}
	if err != nil {
		return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: err}
	}
	if _, ok := st.(datatype.Compound); ok {
		return nil, nil, &DatasetError{Name: name, Parent: parent.Path(), Err: fmt.Errorf("chunked compound datasets are not supported")}
	}

	arr, err := w.createArray(parent, name, shape, datatype.Code(st), set)
	if err != nil {
		return nil, nil, err
	}
	return arr, datatype.Tag(st), nil
}

// referenceElements returns the elements of d when its first element is a
// builder or container.
func referenceElements(d builder.Dataset) ([]any, bool, error) {
	if d.Len() == 0 {
		return nil, false, nil
	}
	first, err := d.Index(0)
	if err != nil {
		return nil, false, err
	}
	if !isReferenceValue(first) {
		return nil, false, nil
	}
	items := make([]any, d.Len())
	for i := range items {
		if items[i], err = d.Index(i); err != nil {
			return nil, false, err
		}
	}
	return items, true, nil
}

// isReferenceData reports whether undeclared data holds references.
func isReferenceData(data any) bool {
	if isReferenceValue(data) {
		return true
	}
	if !hasLen(data) {
		return false
	}
	st, err := datatype.Infer(data)
	if err != nil {
		return false
	}
	_, ok := st.(datatype.Reference)
	return ok
}

func isCompound(st datatype.StorageType) bool {
	_, ok := st.(datatype.Compound)
	return ok
}

func isPrimitive(st datatype.StorageType) bool {
	_, ok := st.(datatype.Primitive)
	return ok
}

func isBytesType(st datatype.StorageType) bool {
	_, ok := st.(datatype.Bytes)
	return ok
}

func toBytes(data any) []byte {
	if s, ok := data.(string); ok {
		return []byte(s)
	}
	return data.([]byte)
}

// byteElements turns byte slices at any depth of data into []any lists of
// uint8, so numeric sequences stored as []byte are not taken for strings.
func byteElements(data any) any {
	rv := reflect.ValueOf(data)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return data
	}
	switch rv.Type().Elem().Kind() {
	case reflect.Uint8, reflect.Slice, reflect.Array, reflect.Interface:
	default:
		return data
	}
	out := make([]any, rv.Len())
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		for i := range out {
			out[i] = uint8(rv.Index(i).Uint())
		}
		return out
	}
	for i := range out {
		out[i] = byteElements(rv.Index(i).Interface())
	}
	return out
}

func isText(data any) bool {
	switch data.(type) {
	case string, []byte:
		return true
	}
	return false
}

func hasLen(data any) bool {
	if _, ok := data.(builder.Dataset); ok {
		return true
	}
	rv := reflect.ValueOf(data)
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// elements returns the top-level elements of a sequence.
func elements(data any) ([]any, error) {
	if d, ok := data.(builder.Dataset); ok {
		items := make([]any, d.Len())
		for i := range items {
			v, err := d.Index(i)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	}
	rv := reflect.ValueOf(data)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("expected a sequence, got %T", data)
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

// compoundRows returns the rows of compound data positionally. Rows may be
// slices in field order or maps keyed by field name.
func compoundRows(data any, c datatype.Compound) ([][]any, error) {
	items, err := elements(data)
	if err != nil {
		return nil, fmt.Errorf("compound data: %w", err)
	}
	rows := make([][]any, len(items))
	for r, item := range items {
		if m, ok := item.(map[string]any); ok {
			row := make([]any, len(c.Fields))
			for i, f := range c.Fields {
				v, ok := m[f.Name]
				if !ok {
					return nil, fmt.Errorf("row %d: missing field %q", r, f.Name)
				}
				row[i] = v
			}
			rows[r] = row
			continue
		}
		row, err := elements(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		if len(row) != len(c.Fields) {
			return nil, fmt.Errorf("row %d has %d fields, type has %d", r, len(row), len(c.Fields))
		}
		rows[r] = row
	}
	return rows, nil
}

// textValue prepares a value for object-coded storage: byte strings are
// decoded as UTF-8 text.
func textValue(v any) any {
	if b, ok := v.([]byte); ok {
		return decodeText(b)
	}
	return v
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
