package layout

// CopyOut copies the overlap of a chunk and the selection [selStart, selStop)
// from chunk into out. out holds the selection in C order; chunk holds a
// full chunk whose first element sits at origin.
func (g *Grid) CopyOut(out []any, selStart, selStop []int, chunk []any, origin []int) {
	g.copyOverlap(out, selStart, selStop, chunk, origin, false)
}

// CopyIn copies the overlap of the selection [selStart, selStop) and a chunk
// from in into chunk.
func (g *Grid) CopyIn(chunk []any, origin []int, in []any, selStart, selStop []int) {
	g.copyOverlap(in, selStart, selStop, chunk, origin, true)
}

func (g *Grid) copyOverlap(sel []any, selStart, selStop []int, chunk []any, origin []int, toChunk bool) {
	ndims := len(g.Shape)
	if ndims == 0 {
		if toChunk {
			chunk[0] = sel[0]
		} else {
			sel[0] = chunk[0]
		}
		return
	}

	lo := make([]int, ndims)
	hi := make([]int, ndims)
	for d := 0; d < ndims; d++ {
		chunkEnd := min(origin[d]+g.Chunks[d], g.Shape[d])
		lo[d] = max(selStart[d], origin[d])
		hi[d] = min(selStop[d], chunkEnd)
		if lo[d] >= hi[d] {
			return
		}
	}

	chunkStrides := strides(g.Chunks)
	selShape := make([]int, ndims)
	for d := range selShape {
		selShape[d] = selStop[d] - selStart[d]
	}
	selStrides := strides(selShape)

	var recurse func(dim, chunkIdx, selIdx int)
	recurse = func(dim, chunkIdx, selIdx int) {
		if dim == ndims-1 {
			n := hi[dim] - lo[dim]
			cs := chunkIdx + (lo[dim] - origin[dim])
			ss := selIdx + (lo[dim] - selStart[dim])
			if toChunk {
				copy(chunk[cs:cs+n], sel[ss:ss+n])
			} else {
				copy(sel[ss:ss+n], chunk[cs:cs+n])
			}
			return
		}
		for i := lo[dim]; i < hi[dim]; i++ {
			recurse(dim+1,
				chunkIdx+(i-origin[dim])*chunkStrides[dim],
				selIdx+(i-selStart[dim])*selStrides[dim])
		}
	}
	recurse(0, 0, 0)
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for d := len(shape) - 1; d >= 0; d-- {
		s[d] = acc
		acc *= shape[d]
	}
	return s
}
