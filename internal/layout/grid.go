package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid is the regular chunk grid of one array.
type Grid struct {
	Shape  []int
	Chunks []int
}

// NewGrid validates shape and chunks and returns their grid.
func NewGrid(shape, chunks []int) (*Grid, error) {
	if len(shape) != len(chunks) {
		return nil, fmt.Errorf("shape %v and chunks %v differ in rank", shape, chunks)
	}
	for d := range shape {
		if shape[d] < 0 {
			return nil, fmt.Errorf("negative extent %d in dimension %d", shape[d], d)
		}
		if chunks[d] <= 0 {
			return nil, fmt.Errorf("chunk extent %d in dimension %d must be positive", chunks[d], d)
		}
	}
	return &Grid{Shape: append([]int(nil), shape...), Chunks: append([]int(nil), chunks...)}, nil
}

// Len returns the number of elements in shape.
func Len(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// ChunkLen returns the number of elements in one full chunk.
func (g *Grid) ChunkLen() int {
	return Len(g.Chunks)
}

// NumChunks returns the number of chunks along each dimension.
func (g *Grid) NumChunks() []int {
	n := make([]int, len(g.Shape))
	for d := range g.Shape {
		n[d] = (g.Shape[d] + g.Chunks[d] - 1) / g.Chunks[d]
	}
	return n
}

// Origin returns the array index of the first element of chunk coord.
func (g *Grid) Origin(coord []int) []int {
	o := make([]int, len(coord))
	for d := range coord {
		o[d] = coord[d] * g.Chunks[d]
	}
	return o
}

// Check validates a selection [start, stop) against the array bounds.
func (g *Grid) Check(start, stop []int) error {
	if len(start) != len(g.Shape) || len(stop) != len(g.Shape) {
		return fmt.Errorf("selection must have %d dimensions, got %d and %d",
			len(g.Shape), len(start), len(stop))
	}
	for d := range g.Shape {
		if start[d] < 0 || stop[d] > g.Shape[d] || start[d] > stop[d] {
			return fmt.Errorf("selection out of bounds: dimension %d, start=%d, stop=%d, size=%d",
				d, start[d], stop[d], g.Shape[d])
		}
	}
	return nil
}

// Overlapping returns the coordinates of every chunk that intersects the
// selection [start, stop), in C order.
func (g *Grid) Overlapping(start, stop []int) [][]int {
	ndims := len(g.Shape)
	if ndims == 0 {
		return [][]int{{}}
	}
	lo := make([]int, ndims)
	hi := make([]int, ndims)
	for d := 0; d < ndims; d++ {
		if stop[d] <= start[d] {
			return nil
		}
		lo[d] = start[d] / g.Chunks[d]
		hi[d] = (stop[d] - 1) / g.Chunks[d]
	}

	var out [][]int
	coord := append([]int(nil), lo...)
	for {
		out = append(out, append([]int(nil), coord...))
		d := ndims - 1
		for d >= 0 {
			coord[d]++
			if coord[d] <= hi[d] {
				break
			}
			coord[d] = lo[d]
			d--
		}
		if d < 0 {
			return out
		}
	}
}

// All returns every chunk coordinate of the grid.
func (g *Grid) All() [][]int {
	return g.Overlapping(make([]int, len(g.Shape)), g.Shape)
}

// Key returns the store key suffix of chunk coord.
func Key(coord []int, sep string) string {
	if len(coord) == 0 {
		return "0"
	}
	parts := make([]string, len(coord))
	for i, c := range coord {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, sep)
}

// ParseKey is the inverse of Key.
func ParseKey(key, sep string, ndims int) ([]int, error) {
	if ndims == 0 {
		if key != "0" {
			return nil, fmt.Errorf("invalid chunk key %q for 0-d array", key)
		}
		return []int{}, nil
	}
	parts := strings.Split(key, sep)
	if len(parts) != ndims {
		return nil, fmt.Errorf("chunk key %q has %d parts, want %d", key, len(parts), ndims)
	}
	coord := make([]int, ndims)
	for i, p := range parts {
		c, err := strconv.Atoi(p)
		if err != nil || c < 0 {
			return nil, fmt.Errorf("invalid chunk key %q", key)
		}
		coord[i] = c
	}
	return coord, nil
}
