// Package layout maps N-dimensional array selections onto a regular chunk
// grid.
//
// A zarr array of shape S with chunk shape C is split into ceil(S[d]/C[d])
// chunks along each dimension d. Every chunk holds exactly prod(C) elements
// in C order; edge chunks that extend past the array bounds are padded and
// the padding is never read back.
//
// # Chunk Keys
//
// Chunk coordinates join with the array's dimension separator: "." for flat
// directory stores ("0.1") and "/" for nested stores ("0/1"). A 0-d array
// has the single chunk key "0".
//
// # Copying
//
// [CopyOut] copies the part of a decoded chunk that overlaps a selection into
// the selection buffer, and [CopyIn] copies selection values into a chunk
// buffer. Both work dimension by dimension, copying contiguous runs along
// the innermost axis:
//
//  1. Clip the chunk to the array bounds
//  2. Intersect it with the selection [start, stop)
//  3. Recurse over the outer dimensions, copying innermost rows
//
// # Key Types
//
//   - [Grid]: Array shape plus chunk shape, with chunk enumeration
package layout
