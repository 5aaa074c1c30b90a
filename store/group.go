package store

import (
	"fmt"
	"path"
	"strings"
)

// Node is a group or an array.
type Node interface {
	// Path returns the absolute in-store path, "/" for the root.
	Path() string
	// Basename returns the last path component, "" for the root.
	Basename() string
	Attrs() *Attributes
	Store() Store
}

// Group is a zarr group.
type Group struct {
	store    Store
	path     string
	sync     Synchronizer
	readOnly bool
	attrs    *Attributes
}

func newGroup(st Store, p string, s Synchronizer, readOnly bool) *Group {
	p = cleanPath(p)
	return &Group{store: st, path: p, sync: s, readOnly: readOnly, attrs: newAttributes(st, p, s, readOnly)}
}

// Path returns the absolute path of the group.
func (g *Group) Path() string {
	return "/" + g.path
}

// Basename returns the group name (last component of path).
func (g *Group) Basename() string {
	if g.path == "" {
		return ""
	}
	return path.Base(g.path)
}

// Attrs returns the attributes of the group.
func (g *Group) Attrs() *Attributes { return g.attrs }

// Store returns the backing store.
func (g *Group) Store() Store { return g.store }

// Synchronizer returns the synchronizer the group was opened with.
func (g *Group) Synchronizer() Synchronizer { return g.sync }

// ReadOnly reports whether the hierarchy was opened read-only.
func (g *Group) ReadOnly() bool { return g.readOnly }

func (g *Group) childPath(name string) string {
	return cleanPath(joinKey(g.path, name))
}

func (g *Group) listPrefix() string {
	if g.path == "" {
		return ""
	}
	return g.path + "/"
}

func (g *Group) has(p, doc string) (bool, error) {
	_, err := g.store.Get(joinKey(p, doc))
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// GroupNames returns the names of the child groups, sorted.
func (g *Group) GroupNames() ([]string, error) {
	keys, err := g.store.List(g.listPrefix())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", g.Path(), err)
	}
	return children(keys, g.listPrefix(), GroupKey), nil
}

// ArrayNames returns the names of the child arrays, sorted.
func (g *Group) ArrayNames() ([]string, error) {
	keys, err := g.store.List(g.listPrefix())
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", g.Path(), err)
	}
	return children(keys, g.listPrefix(), ArrayKey), nil
}

// Groups returns the child groups sorted by name.
func (g *Group) Groups() ([]*Group, error) {
	names, err := g.GroupNames()
	if err != nil {
		return nil, err
	}
	out := make([]*Group, len(names))
	for i, n := range names {
		out[i] = newGroup(g.store, g.childPath(n), g.sync, g.readOnly)
	}
	return out, nil
}

// Arrays returns the child arrays sorted by name.
func (g *Group) Arrays() ([]*Array, error) {
	names, err := g.ArrayNames()
	if err != nil {
		return nil, err
	}
	out := make([]*Array, 0, len(names))
	for _, n := range names {
		a, err := openArray(g.store, g.childPath(n), g.sync, g.readOnly)
		if err != nil {
			return nil, fmt.Errorf("opening array %q: %w", n, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Contains reports whether a group or array exists at the relative path.
func (g *Group) Contains(relativePath string) bool {
	_, err := g.Get(relativePath)
	return err == nil
}

// Get opens the group or array at a relative path. An absolute path is
// resolved from the store root.
func (g *Group) Get(relativePath string) (Node, error) {
	p := g.childPath(relativePath)
	if strings.HasPrefix(relativePath, "/") {
		p = cleanPath(relativePath)
	}

	if ok, err := g.has(p, GroupKey); err != nil {
		return nil, err
	} else if ok {
		return newGroup(g.store, p, g.sync, g.readOnly), nil
	}
	if ok, err := g.has(p, ArrayKey); err != nil {
		return nil, err
	} else if ok {
		return openArray(g.store, p, g.sync, g.readOnly)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, "/"+p)
}

// OpenGroup opens a subgroup by relative path.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	n, err := g.Get(relativePath)
	if err != nil {
		return nil, err
	}
	grp, ok := n.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, n.Path())
	}
	return grp, nil
}

// OpenArray opens an array by relative path.
func (g *Group) OpenArray(relativePath string) (*Array, error) {
	n, err := g.Get(relativePath)
	if err != nil {
		return nil, err
	}
	a, ok := n.(*Array)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotArray, n.Path())
	}
	return a, nil
}

// RequireGroup opens the named subgroup, creating it and any missing
// intermediate groups.
func (g *Group) RequireGroup(name string) (*Group, error) {
	if g.readOnly {
		return nil, fmt.Errorf("%w: creating group %q", ErrReadOnly, name)
	}
	current := g
	for _, part := range strings.Split(cleanPath(name), "/") {
		if part == "" {
			continue
		}
		p := current.childPath(part)
		if ok, err := current.has(p, ArrayKey); err != nil {
			return nil, err
		} else if ok {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, "/"+p)
		}
		ok, err := current.has(p, GroupKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := writeGroupMeta(g.store, p); err != nil {
				return nil, err
			}
		}
		current = newGroup(g.store, p, g.sync, g.readOnly)
	}
	return current, nil
}

// CreateGroup creates the named subgroup, failing with ErrExists if a node
// is already there.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if g.Contains(name) {
		return nil, fmt.Errorf("%w: %s", ErrExists, "/"+g.childPath(name))
	}
	return g.RequireGroup(name)
}

// RequireArray opens the named array if it exists with a compatible shape
// and dtype, and creates it otherwise.
func (g *Group) RequireArray(name string, opts ArrayOptions) (*Array, error) {
	p := g.childPath(name)
	ok, err := g.has(p, ArrayKey)
	if err != nil {
		return nil, err
	}
	if ok {
		a, err := openArray(g.store, p, g.sync, g.readOnly)
		if err != nil {
			return nil, err
		}
		if !equalInts(a.Shape(), opts.Shape) {
			return nil, fmt.Errorf("%w: array %s has shape %v, required %v", ErrExists, a.Path(), a.Shape(), opts.Shape)
		}
		if opts.Record != nil {
			if !a.record.Equal(opts.Record) {
				return nil, fmt.Errorf("%w: array %s has dtype %s, required %v", ErrExists, a.Path(), a.meta.Dtype, opts.Record)
			}
		} else if opts.Dtype != "" && a.Dtype() != opts.Dtype {
			return nil, fmt.Errorf("%w: array %s has dtype %s, required %s", ErrExists, a.Path(), a.Dtype(), opts.Dtype)
		}
		return a, nil
	}
	return g.CreateArray(name, opts)
}

// CreateArray creates the named array, failing with ErrExists if a node is
// already there.
func (g *Group) CreateArray(name string, opts ArrayOptions) (*Array, error) {
	if g.readOnly {
		return nil, fmt.Errorf("%w: creating array %q", ErrReadOnly, name)
	}
	if g.Contains(name) {
		return nil, fmt.Errorf("%w: %s", ErrExists, "/"+g.childPath(name))
	}
	if dir := path.Dir(cleanPath(name)); dir != "." {
		if _, err := g.RequireGroup(dir); err != nil {
			return nil, err
		}
	}

	meta, err := opts.meta()
	if err != nil {
		return nil, fmt.Errorf("array %q: %w", name, err)
	}
	p := g.childPath(name)
	data, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}
	if err := g.store.Set(joinKey(p, ArrayKey), data); err != nil {
		return nil, fmt.Errorf("writing %s: %w", ArrayKey, err)
	}
	return openArray(g.store, p, g.sync, g.readOnly)
}

func writeGroupMeta(st Store, p string) error {
	data, err := encodeMeta(groupMeta{ZarrFormat: zarrFormat})
	if err != nil {
		return err
	}
	if err := st.Set(joinKey(p, GroupKey), data); err != nil {
		return fmt.Errorf("writing %s: %w", GroupKey, err)
	}
	return nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
