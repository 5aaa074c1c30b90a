package datatype

import (
	"errors"
	"fmt"
)

// ErrUnresolvedType is returned when a descriptor or value cannot be mapped
// to a StorageType.
var ErrUnresolvedType = errors.New("unresolved type")

// UnresolvedTypeError reports the descriptor or value that failed to
// resolve.
type UnresolvedTypeError struct {
	Value  any
	Reason string
}

func (e *UnresolvedTypeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot resolve dtype %v (%T): %s", e.Value, e.Value, e.Reason)
	}
	return fmt.Sprintf("cannot resolve dtype %v (%T)", e.Value, e.Value)
}

func (e *UnresolvedTypeError) Unwrap() error {
	return ErrUnresolvedType
}
