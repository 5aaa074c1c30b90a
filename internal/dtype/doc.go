// Package dtype handles zarr storage codes and their Go value mapping.
//
// A zarr v2 array declares one dtype code in its .zarray document. This
// package maps those codes to Go values and back:
//
//	Code | Go type  | Layout
//	-----|----------|------------------------------
//	|i1  | int8     | packed, 1 byte
//	<i2  | int16    | packed, little-endian
//	<i4  | int32    | packed, little-endian
//	<i8  | int64    | packed, little-endian
//	|u1  | uint8    | packed, 1 byte
//	<u2  | uint16   | packed, little-endian
//	<u4  | uint32   | packed, little-endian
//	<u8  | uint64   | packed, little-endian
//	<f4  | float32  | packed, IEEE 754
//	<f8  | float64  | packed, IEEE 754
//	|b1  | bool     | packed, 0 or 1
//	|O   | any      | object-coded (see store codecs)
//
// # Encoding
//
// Use [Encode] and [Decode] to move between flat []any element slices and
// the packed chunk bytes:
//
//	raw, err := dtype.Encode(dtype.Float64, []any{1.0, 2.0})
//	vals, err := dtype.Decode(dtype.Float64, raw, 2)
//
// [Convert] coerces one value to the Go type of a code; [Exact] reports
// whether a value already has that type. Object-coded values are never
// packed here.
package dtype
