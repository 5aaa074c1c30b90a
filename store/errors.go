package store

import "errors"

// Common errors
var (
	ErrNotFound       = errors.New("key not found")
	ErrReadOnly       = errors.New("store is read-only")
	ErrExists         = errors.New("node already exists")
	ErrNotGroup       = errors.New("node is not a group")
	ErrNotArray       = errors.New("node is not an array")
	ErrInvalidMode    = errors.New("invalid open mode")
	ErrNotListable    = errors.New("store cannot list keys")
	ErrTypeCoercion   = errors.New("bulk assignment requires type coercion")
	ErrUnserializable = errors.New("value cannot be serialized")
)
