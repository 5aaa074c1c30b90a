// Package zarrio maps builder trees to and from zarr stores.
//
// A session opened with [Open] writes a tree of builder groups, datasets
// and links into a store, and reads a store back into an equivalent tree.
// Groups become zarr groups and datasets become arrays tagged with their
// type in the "zarr_dtype" attribute. Links are kept as an ordered list in
// the "zarr_link" attribute of the group that holds them. Object references
// are stored as {source, path, object_id, source_object_id} records, either
// as array elements or, for attributes, wrapped as
// {"zarr_dtype": "object", "value": record}.
//
// # Key Types
//
//   - [IO]: one open session on a store.
//   - [Reference]: the stored form of an object reference.
//   - [DataIO]: dataset data with per-dataset storage settings.
//   - [ReferenceView], [TableView]: lazily resolved reference and compound
//     datasets returned by reads.
//   - [Namespace]: specification documents cached in the store.
//
// Large arrays can be written from a [builder.ChunkIterator]. Iterators are
// handed to a [ChunkQueue] and drained after each dataset, or once at the end
// of the write with [DeferChunks].
package zarrio
