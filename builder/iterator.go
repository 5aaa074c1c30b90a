package builder

import (
	"fmt"
	"io"
)

// DataChunk is one block of an incrementally-produced array. Data holds the
// block's elements as a flat slice in C order covering [Start, Stop) in
// every dimension.
type DataChunk struct {
	Data  any
	Start []int
	Stop  []int
}

// ChunkIterator produces a large array block by block. Next returns io.EOF
// once the iterator is exhausted.
type ChunkIterator interface {
	Next() (*DataChunk, error)
	RecommendedChunkShape() []int
	RecommendedDataShape() []int
	Dtype() any
}

// SliceIterator yields a flat C-order slice in blocks of whole rows along
// the first dimension.
type SliceIterator[T any] struct {
	data     []T
	shape    []int
	rows     int
	dtype    any
	next     int
	rowWidth int
}

// NewSliceIterator returns an iterator over data, which must hold exactly
// the product of shape elements. Each chunk covers rows entries of the
// first dimension.
func NewSliceIterator[T any](data []T, shape []int, rows int, dtype any) (*SliceIterator[T], error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("slice iterator needs at least one dimension")
	}
	if rows <= 0 {
		return nil, fmt.Errorf("rows per chunk must be positive, got %d", rows)
	}
	width := 1
	for _, d := range shape[1:] {
		width *= d
	}
	if width*shape[0] != len(data) {
		return nil, fmt.Errorf("data has %d elements, shape %v needs %d", len(data), shape, width*shape[0])
	}
	return &SliceIterator[T]{data: data, shape: shape, rows: rows, dtype: dtype, rowWidth: width}, nil
}

// Next returns the next block of rows.
func (it *SliceIterator[T]) Next() (*DataChunk, error) {
	if it.next >= it.shape[0] {
		return nil, io.EOF
	}
	stopRow := min(it.next+it.rows, it.shape[0])
	start := make([]int, len(it.shape))
	stop := append([]int(nil), it.shape...)
	start[0] = it.next
	stop[0] = stopRow
	chunk := &DataChunk{
		Data:  it.data[it.next*it.rowWidth : stopRow*it.rowWidth],
		Start: start,
		Stop:  stop,
	}
	it.next = stopRow
	return chunk, nil
}

// RecommendedChunkShape returns rows along the first axis and the full
// extent of the others.
func (it *SliceIterator[T]) RecommendedChunkShape() []int {
	cs := append([]int(nil), it.shape...)
	cs[0] = min(it.rows, it.shape[0])
	return cs
}

// RecommendedDataShape returns the full shape.
func (it *SliceIterator[T]) RecommendedDataShape() []int {
	return append([]int(nil), it.shape...)
}

// Dtype returns the declared dtype descriptor.
func (it *SliceIterator[T]) Dtype() any { return it.dtype }
