package store

import (
	"errors"
	"path"
)

// WalkFunc is called for each node during traversal.
// path is the full path to the node.
// node is either *Group or *Array.
// err is any error encountered listing or opening the node.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(path string, node Node, err error) error

// ErrSkipGroup can be returned from WalkFunc on a group to skip its
// children.
var ErrSkipGroup = errors.New("skip group")

// Walk traverses g and everything below it depth-first. Each group is
// visited before its children; child groups come before child arrays, both
// sorted by name.
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn)
	if errors.Is(err, ErrSkipGroup) {
		return nil
	}
	return err
}

func walkGroup(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	groups, err := g.Groups()
	if err != nil {
		return fn(g.Path(), g, err)
	}
	for _, child := range groups {
		if err := walkGroup(child, fn); err != nil && !errors.Is(err, ErrSkipGroup) {
			return err
		}
	}

	names, err := g.ArrayNames()
	if err != nil {
		return fn(g.Path(), g, err)
	}
	for _, name := range names {
		a, err := openArray(g.store, g.childPath(name), g.sync, g.readOnly)
		if err != nil {
			if err := fn(path.Join(g.Path(), name), nil, err); err != nil {
				return err
			}
			continue
		}
		if err := fn(a.Path(), a, nil); err != nil {
			return err
		}
	}
	return nil
}
