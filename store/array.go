package store

import (
	"errors"
	"fmt"
	"path"

	"github.com/robert-malhotra/go-zarrio/internal/dtype"
	"github.com/robert-malhotra/go-zarrio/internal/filter"
	"github.com/robert-malhotra/go-zarrio/internal/layout"
)

// ArrayOptions describes an array to create.
type ArrayOptions struct {
	Shape []int
	// Chunks defaults to the full shape.
	Chunks []int
	Dtype  dtype.Code
	// Record makes the array structured; Dtype is then ignored.
	Record dtype.Record
	// FillValue defaults to the zero value of Dtype.
	FillValue  any
	Compressor filter.Config
	Filters    []filter.Config
	// ObjectCodec names the element codec of object arrays; json2 by
	// default.
	ObjectCodec string
	// DimensionSeparator is "." (flat chunk keys) or "/" (nested).
	DimensionSeparator string
}

func (o ArrayOptions) meta() (*ArrayMeta, error) {
	spec := DtypeSpec{Code: o.Dtype}
	var (
		fill any
		err  error
	)
	if o.Record != nil {
		rec, err := dtype.ParseRecord(o.Record)
		if err != nil {
			return nil, err
		}
		spec = DtypeSpec{Code: dtype.Structured, Fields: rec}
		if fill, err = encodeRecordFill(rec, o.FillValue); err != nil {
			return nil, err
		}
	} else {
		if o.Dtype == "" {
			return nil, fmt.Errorf("no dtype")
		}
		if _, err = dtype.Parse(string(o.Dtype)); err != nil {
			return nil, err
		}
		fill = encodeFill(o.Dtype, o.FillValue)
	}
	chunks := o.Chunks
	if chunks == nil {
		chunks = make([]int, len(o.Shape))
		for d, n := range o.Shape {
			chunks[d] = max(n, 1)
		}
	}
	if _, err := layout.NewGrid(o.Shape, chunks); err != nil {
		return nil, err
	}
	sep := o.DimensionSeparator
	if sep == "" {
		sep = "."
	}
	if sep != "." && sep != "/" {
		return nil, fmt.Errorf("invalid dimension separator %q", sep)
	}

	filters := append([]filter.Config(nil), o.Filters...)
	if o.Record == nil && o.Dtype == dtype.Object {
		codec, err := NewObjectCodec(o.ObjectCodec)
		if err != nil {
			return nil, err
		}
		filters = append([]filter.Config{codec.Config()}, filters...)
	}
	if len(filters) == 0 {
		filters = nil
	}

	return &ArrayMeta{
		ZarrFormat:         zarrFormat,
		Shape:              append([]int{}, o.Shape...),
		Chunks:             append([]int{}, chunks...),
		Dtype:              spec,
		Compressor:         o.Compressor,
		FillValue:          fill,
		Order:              "C",
		Filters:            filters,
		DimensionSeparator: sep,
	}, nil
}

// Array is a chunked N-dimensional zarr array. Elements are exchanged as
// flat C-order []any slices holding the Go type of the array's dtype code.
// Elements of structured arrays are []any rows.
type Array struct {
	store    Store
	path     string
	sync     Synchronizer
	readOnly bool
	attrs    *Attributes

	meta     *ArrayMeta
	code     dtype.Code
	record   dtype.Record
	grid     *layout.Grid
	pipeline *filter.Pipeline
	codec    ObjectCodec
	fill     any
}

func openArray(st Store, p string, s Synchronizer, readOnly bool) (*Array, error) {
	p = cleanPath(p)
	data, err := st.Get(joinKey(p, ArrayKey))
	if err != nil {
		return nil, err
	}
	meta, err := parseArrayMeta(data)
	if err != nil {
		return nil, fmt.Errorf("array /%s: %w", p, err)
	}
	var (
		code   dtype.Code
		record dtype.Record
	)
	if meta.Dtype.Structured() {
		code = dtype.Structured
		record, err = dtype.ParseRecord(meta.Dtype.Fields)
	} else {
		code, err = dtype.Parse(string(meta.Dtype.Code))
	}
	if err != nil {
		return nil, fmt.Errorf("array /%s: %w", p, err)
	}
	grid, err := layout.NewGrid(meta.Shape, meta.Chunks)
	if err != nil {
		return nil, fmt.Errorf("array /%s: %w", p, err)
	}

	a := &Array{
		store:    st,
		path:     p,
		sync:     s,
		readOnly: readOnly,
		attrs:    newAttributes(st, p, s, readOnly),
		meta:     meta,
		code:     code,
		record:   record,
		grid:     grid,
	}
	if record != nil {
		a.fill = decodeRecordFill(record, meta.FillValue)
	} else {
		a.fill = decodeFill(code, meta.FillValue)
	}

	byteFilters := meta.Filters
	if code == dtype.Object {
		if len(byteFilters) == 0 || !isObjectCodec(byteFilters[0].ID()) {
			return nil, fmt.Errorf("array /%s: object array without object codec", p)
		}
		a.codec, err = NewObjectCodec(byteFilters[0].ID())
		if err != nil {
			return nil, fmt.Errorf("array /%s: %w", p, err)
		}
		byteFilters = byteFilters[1:]
	}
	a.pipeline, err = filter.NewPipeline(byteFilters, meta.Compressor)
	if err != nil {
		return nil, fmt.Errorf("array /%s: %w", p, err)
	}
	return a, nil
}

// Path returns the absolute path of the array.
func (a *Array) Path() string { return "/" + a.path }

// Basename returns the array name (last component of path).
func (a *Array) Basename() string { return path.Base(a.path) }

// Attrs returns the attributes of the array.
func (a *Array) Attrs() *Attributes { return a.attrs }

// Store returns the backing store.
func (a *Array) Store() Store { return a.store }

// Meta returns a copy of the .zarray document.
func (a *Array) Meta() ArrayMeta { return *a.meta }

// Shape returns the array extent.
func (a *Array) Shape() []int { return append([]int(nil), a.grid.Shape...) }

// Chunks returns the chunk extent.
func (a *Array) Chunks() []int { return append([]int(nil), a.grid.Chunks...) }

// Dtype returns the storage code; structured arrays report
// dtype.Structured.
func (a *Array) Dtype() dtype.Code { return a.code }

// Record returns the fields of a structured array, or nil.
func (a *Array) Record() dtype.Record { return a.record }

// FillValue returns the value of elements that were never written.
func (a *Array) FillValue() any { return a.fill }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.grid.Shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return layout.Len(a.grid.Shape) }

// Len returns the extent of the first dimension; a 0-d array has length 1.
func (a *Array) Len() int {
	if len(a.grid.Shape) == 0 {
		return 1
	}
	return a.grid.Shape[0]
}

// Read returns every element in C order.
func (a *Array) Read() ([]any, error) {
	return a.ReadRange(make([]int, a.Ndim()), a.grid.Shape)
}

// Slice is Read; it lets arrays stand in for lazily-read datasets.
func (a *Array) Slice() ([]any, error) {
	return a.Read()
}

// Get returns the element at idx.
func (a *Array) Get(idx ...int) (any, error) {
	start, stop, err := a.point(idx)
	if err != nil {
		return nil, err
	}
	vals, err := a.ReadRange(start, stop)
	if err != nil {
		return nil, err
	}
	return vals[0], nil
}

// Index returns entry i of the first dimension: the element itself for
// 1-d arrays, a flat []any row otherwise.
func (a *Array) Index(i int) (any, error) {
	if a.Ndim() <= 1 {
		if a.Ndim() == 0 {
			if i != 0 {
				return nil, fmt.Errorf("index %d out of range for 0-d array %s", i, a.Path())
			}
			return a.Get()
		}
		return a.Get(i)
	}
	if i < 0 || i >= a.grid.Shape[0] {
		return nil, fmt.Errorf("index %d out of range for %s with length %d", i, a.Path(), a.grid.Shape[0])
	}
	start := make([]int, a.Ndim())
	stop := a.Shape()
	start[0], stop[0] = i, i+1
	return a.ReadRange(start, stop)
}

// ReadRange returns the elements of the selection [start, stop) in C order.
func (a *Array) ReadRange(start, stop []int) ([]any, error) {
	if err := a.grid.Check(start, stop); err != nil {
		return nil, fmt.Errorf("%s: %w", a.Path(), err)
	}
	n := 1
	for d := range start {
		n *= stop[d] - start[d]
	}
	out := make([]any, n)
	if n == 0 {
		return out, nil
	}
	for _, coord := range a.grid.Overlapping(start, stop) {
		chunk, err := a.readChunk(coord)
		if err != nil {
			return nil, err
		}
		a.grid.CopyOut(out, start, stop, chunk, a.grid.Origin(coord))
	}
	return out, nil
}

// Set writes one element, converting it to the array's element type.
func (a *Array) Set(idx []int, value any) error {
	start, stop, err := a.point(idx)
	if err != nil {
		return err
	}
	return a.WriteBlock(start, stop, []any{value})
}

// SetAll replaces every element. Values must already have the exact Go
// type of the array's dtype; anything needing conversion is rejected with
// ErrTypeCoercion so callers can fall back to element-wise Set.
func (a *Array) SetAll(values []any) error {
	if len(values) != a.Size() {
		return fmt.Errorf("%s: assigning %d values to %d elements", a.Path(), len(values), a.Size())
	}
	for i, v := range values {
		if !a.exact(v) {
			return fmt.Errorf("%w: element %d is %T, array %s holds %s", ErrTypeCoercion, i, v, a.Path(), a.code)
		}
	}
	return a.writeRange(make([]int, a.Ndim()), a.grid.Shape, values)
}

// WriteBlock writes the selection [start, stop) from values in C order,
// converting each element.
func (a *Array) WriteBlock(start, stop []int, values []any) error {
	if a.code != dtype.Object {
		converted := make([]any, len(values))
		for i, v := range values {
			cv, err := a.convert(v)
			if err != nil {
				return fmt.Errorf("%s: element %d: %w", a.Path(), i, err)
			}
			converted[i] = cv
		}
		values = converted
	}
	return a.writeRange(start, stop, values)
}

func (a *Array) exact(v any) bool {
	if a.record != nil {
		return a.record.Exact(v)
	}
	return dtype.Exact(a.code, v)
}

func (a *Array) convert(v any) (any, error) {
	if a.record != nil {
		return a.record.Convert(v)
	}
	return dtype.Convert(a.code, v)
}

func (a *Array) point(idx []int) ([]int, []int, error) {
	if len(idx) != a.Ndim() {
		return nil, nil, fmt.Errorf("%s: index %v has %d dimensions, array has %d", a.Path(), idx, len(idx), a.Ndim())
	}
	stop := make([]int, len(idx))
	for d, i := range idx {
		if i < 0 || i >= a.grid.Shape[d] {
			return nil, nil, fmt.Errorf("%s: index %v out of bounds for shape %v", a.Path(), idx, a.grid.Shape)
		}
		stop[d] = i + 1
	}
	return append([]int(nil), idx...), stop, nil
}

func (a *Array) writeRange(start, stop []int, values []any) error {
	if a.readOnly {
		return fmt.Errorf("%w: writing %s", ErrReadOnly, a.Path())
	}
	if err := a.grid.Check(start, stop); err != nil {
		return fmt.Errorf("%s: %w", a.Path(), err)
	}
	n := 1
	for d := range start {
		n *= stop[d] - start[d]
	}
	if len(values) != n {
		return fmt.Errorf("%s: selection holds %d elements, got %d values", a.Path(), n, len(values))
	}
	if n == 0 {
		return nil
	}

	for _, coord := range a.grid.Overlapping(start, stop) {
		if err := a.writeChunk(coord, start, stop, values); err != nil {
			return err
		}
	}
	return nil
}

func (a *Array) writeChunk(coord, start, stop []int, values []any) error {
	key := a.chunkKey(coord)
	unlock, err := lockKey(a.sync, key)
	if err != nil {
		return err
	}
	defer unlock()

	origin := a.grid.Origin(coord)
	var chunk []any
	if a.covers(origin, start, stop) {
		chunk = a.fillChunk()
	} else {
		chunk, err = a.readChunk(coord)
		if err != nil {
			return err
		}
	}
	a.grid.CopyIn(chunk, origin, values, start, stop)

	data, err := a.encodeChunk(chunk)
	if err != nil {
		return fmt.Errorf("encoding chunk %s: %w", key, err)
	}
	return a.store.Set(key, data)
}

// covers reports whether the selection spans the in-bounds part of the
// chunk at origin.
func (a *Array) covers(origin, start, stop []int) bool {
	for d := range origin {
		end := min(origin[d]+a.grid.Chunks[d], a.grid.Shape[d])
		if start[d] > origin[d] || stop[d] < end {
			return false
		}
	}
	return true
}

func (a *Array) chunkKey(coord []int) string {
	return joinKey(a.path, layout.Key(coord, a.meta.DimensionSeparator))
}

func (a *Array) fillChunk() []any {
	chunk := make([]any, a.grid.ChunkLen())
	for i := range chunk {
		if row, ok := a.fill.([]any); ok {
			chunk[i] = append([]any(nil), row...)
			continue
		}
		chunk[i] = a.fill
	}
	return chunk
}

func (a *Array) readChunk(coord []int) ([]any, error) {
	key := a.chunkKey(coord)
	raw, err := a.store.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.fillChunk(), nil
		}
		return nil, fmt.Errorf("reading chunk %s: %w", key, err)
	}
	data, err := a.pipeline.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", key, err)
	}

	var chunk []any
	switch {
	case a.codec != nil:
		chunk, err = a.codec.Decode(data)
	case a.record != nil:
		chunk, err = a.record.Decode(data, a.grid.ChunkLen())
	default:
		chunk, err = dtype.Decode(a.code, data, a.grid.ChunkLen())
	}
	if err != nil {
		return nil, fmt.Errorf("decoding chunk %s: %w", key, err)
	}
	if len(chunk) != a.grid.ChunkLen() {
		return nil, fmt.Errorf("chunk %s holds %d elements, want %d", key, len(chunk), a.grid.ChunkLen())
	}
	return chunk, nil
}

func (a *Array) encodeChunk(chunk []any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case a.codec != nil:
		data, err = a.codec.Encode(chunk)
	case a.record != nil:
		data, err = a.record.Encode(chunk)
	default:
		data, err = dtype.Encode(a.code, chunk)
	}
	if err != nil {
		return nil, err
	}
	return a.pipeline.Encode(data)
}
