package store

import (
	"fmt"

	"github.com/robert-malhotra/go-zarrio/internal/layout"
)

// CopyArray copies src into dst under name: metadata, attributes and every
// stored chunk are copied byte for byte.
func CopyArray(src *Array, dst *Group, name string) (*Array, error) {
	if dst.readOnly {
		return nil, fmt.Errorf("%w: copying into %s", ErrReadOnly, dst.Path())
	}
	if dst.Contains(name) {
		return nil, fmt.Errorf("%w: %s", ErrExists, "/"+dst.childPath(name))
	}
	target := dst.childPath(name)

	meta, err := src.store.Get(joinKey(src.path, ArrayKey))
	if err != nil {
		return nil, fmt.Errorf("copying %s: %w", src.Path(), err)
	}
	if err := dst.store.Set(joinKey(target, ArrayKey), meta); err != nil {
		return nil, fmt.Errorf("copying %s: %w", src.Path(), err)
	}

	if attrs, err := src.store.Get(joinKey(src.path, AttrsKey)); err == nil {
		if err := dst.store.Set(joinKey(target, AttrsKey), attrs); err != nil {
			return nil, fmt.Errorf("copying %s attributes: %w", src.Path(), err)
		}
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("copying %s attributes: %w", src.Path(), err)
	}

	// Chunks are enumerated from the grid so stores that cannot list keys
	// still copy completely.
	sep := src.meta.DimensionSeparator
	for _, coord := range src.grid.All() {
		suffix := layout.Key(coord, sep)
		data, err := src.store.Get(joinKey(src.path, suffix))
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("copying chunk %s of %s: %w", suffix, src.Path(), err)
		}
		if err := dst.store.Set(joinKey(target, suffix), data); err != nil {
			return nil, fmt.Errorf("copying chunk %s of %s: %w", suffix, src.Path(), err)
		}
	}

	return openArray(dst.store, target, dst.sync, dst.readOnly)
}
