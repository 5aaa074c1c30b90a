package zarrio

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-zarrio/internal/registry"
)

// Common errors
var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrBadReference         = errors.New("bad reference")
	ErrNotWritten           = registry.ErrNotWritten
	ErrNotImplemented       = errors.New("not implemented")
	ErrNotBuilt             = errors.New("node has not been built")
	ErrClosed               = errors.New("session is closed")
	ErrLinkDepth            = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth is the maximum number of links that can be followed while
// reading one chain of link targets. This prevents runaway recursion through
// stores that link into each other.
const MaxLinkDepth = 100

// AttributeError reports an attribute that could not be written, even after
// narrowing its value.
type AttributeError struct {
	Key   string
	Value any
	Err   error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("writing attribute %q (type %T, value %v): %v", e.Key, e.Value, e.Value, e.Err)
}

func (e *AttributeError) Unwrap() error { return e.Err }

// DatasetError reports a dataset that could not be created.
type DatasetError struct {
	Name   string
	Parent string
	Err    error
}

func (e *DatasetError) Error() string {
	return fmt.Sprintf("could not create dataset %s in %s: %v", e.Name, e.Parent, e.Err)
}

func (e *DatasetError) Unwrap() error { return e.Err }
