// Package filter implements the zarr chunk codec pipeline.
//
// A zarr v2 array lists an ordered set of filters and at most one
// compressor in its .zarray document. Each entry is a JSON object whose
// "id" names the codec. When writing, filters run in declaration order and
// the compressor runs last; reading applies them in reverse.
//
// # Supported Codecs
//
//   - zlib: DEFLATE compression via [Zlib], using compress/zlib.
//   - zstd: Zstandard compression via [Zstd] (klauspost/compress).
//   - lz4: LZ4 block compression via [LZ4] (pierrec/lz4). The block is
//     prefixed with its uncompressed length as a little-endian uint32.
//   - shuffle: byte shuffling via [Shuffle]. Groups byte position i of
//     every element together to improve compression of numeric data.
//   - fletcher32: checksum via [Fletcher32Filter]. Appends a 32-bit Fletcher
//     checksum on encode and verifies it on decode.
//
// # Pipeline
//
//	p, err := filter.NewPipeline(filters, compressor)
//	raw, err := p.Encode(chunk)
//	chunk, err = p.Decode(raw)
//
// # Key Types
//
//   - [Filter]: Interface implemented by all codecs (ID, Encode, Decode)
//   - [Config]: JSON codec configuration as stored in .zarray
//   - [Pipeline]: Ordered filters plus optional compressor
package filter
