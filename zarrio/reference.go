package zarrio

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/internal/registry"
	"github.com/robert-malhotra/go-zarrio/store"
)

// Reserved attribute names.
const (
	// DtypeAttr holds the type tag of every dataset.
	DtypeAttr = "zarr_dtype"
	// LinkAttr holds the ordered link list of a group.
	LinkAttr = "zarr_link"
	// SpecLocAttr names the specification cache group on the root.
	SpecLocAttr = ".specloc"
)

// Reference identifies a node by store and path, plus the stable identities
// of the node and of the root of its file. Source is "." for the same store
// and otherwise a location relative to the referring store.
type Reference struct {
	Source         string
	Path           string
	ObjectID       *string
	SourceObjectID *string
}

// Map returns the wire form of r, with absent ids as nil.
func (r Reference) Map() map[string]any {
	return map[string]any{
		"source":           r.Source,
		"path":             r.Path,
		"object_id":        optional(r.ObjectID),
		"source_object_id": optional(r.SourceObjectID),
	}
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ParseReference decodes the wire form of a reference or link entry.
func ParseReference(v any) (Reference, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Reference{}, fmt.Errorf("%w: record is %T, not an object", ErrBadReference, v)
	}
	var r Reference
	if s, ok := m["source"].(string); ok {
		r.Source = s
	}
	p, ok := m["path"].(string)
	if !ok {
		return Reference{}, fmt.Errorf("%w: record without path: %v", ErrBadReference, m)
	}
	r.Path = p
	if s, ok := m["object_id"].(string); ok {
		r.ObjectID = &s
	}
	if s, ok := m["source_object_id"].(string); ok {
		r.SourceObjectID = &s
	}
	return r, nil
}

// MakeReference builds the reference record of target. Links are followed
// one level and containers are built through the configured manager. A
// non-empty exportSource makes the record local to this store.
func (z *IO) MakeReference(target any, exportSource string) (Reference, error) {
	b, err := z.referent(target)
	if err != nil {
		return Reference{}, err
	}
	p := registry.PathOf(b)

	ref := Reference{Path: p}
	if id, ok := b.ObjectID(); ok {
		ref.ObjectID = &id
	}
	if root, ok := builder.Root(b); ok {
		if id, ok := root.ObjectID(); ok {
			ref.SourceObjectID = &id
		}
	} else {
		z.logger.Warn("could not determine source_object_id", "path", p)
	}

	if exportSource != "" {
		ref.Source = "."
	} else {
		ref.Source = z.relativeSource(b.Source())
	}
	return ref, nil
}

func (z *IO) referent(target any) (builder.Builder, error) {
	switch t := target.(type) {
	case *builder.RegionBuilder:
		return nil, fmt.Errorf("%w: region references", ErrNotImplemented)
	case *builder.ReferenceBuilder:
		return builder.Target(t.Target()), nil
	case builder.Builder:
		return builder.Target(t), nil
	case builder.Container:
		if z.opts.manager == nil {
			return nil, fmt.Errorf("%w: referencing container %s without a manager", ErrUnsupportedOperation, t.ContainerName())
		}
		b, err := z.opts.manager.Build(t)
		if err != nil {
			return nil, fmt.Errorf("building container %s: %w", t.ContainerName(), err)
		}
		return builder.Target(b), nil
	}
	return nil, fmt.Errorf("%w: cannot reference %T", ErrBadReference, target)
}

// relativeSource expresses origin relative to this store. Origins that are
// not zarr directories, and every origin of a remote session, map to the
// session itself.
func (z *IO) relativeSource(origin string) string {
	if z.remote {
		if store.IsRemote(origin) && strings.TrimRight(origin, "/") != strings.TrimRight(z.abspath, "/") {
			return origin
		}
		return "."
	}
	if origin == "" || store.IsRemote(origin) {
		return "."
	}
	if info, err := os.Stat(origin); err != nil || !info.IsDir() {
		return "."
	}
	abs, err := filepath.Abs(origin)
	if err != nil {
		return "."
	}
	rel, err := filepath.Rel(z.abspath, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// storeSource expresses the location of another store relative to this
// one, as written into link entries for linked arrays.
func (z *IO) storeSource(location string) string {
	if z.sameStore(location) {
		return "."
	}
	if !z.remote && !store.IsRemote(location) {
		if rel, err := filepath.Rel(z.abspath, location); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return location
}

// resolveLocation turns a record source into a store location.
func (z *IO) resolveLocation(source string) string {
	if source == "" {
		source = "."
	}
	if store.IsRemote(source) {
		return source
	}
	if filepath.IsAbs(source) {
		return filepath.Clean(source)
	}
	if z.remote {
		return strings.TrimRight(z.abspath, "/") + strings.TrimLeft(source, ".")
	}
	return filepath.Join(z.abspath, filepath.FromSlash(source))
}

// ResolveRef opens the node a reference record points at. It returns the
// node's name, or the root name for a record without a path.
func (z *IO) ResolveRef(ref Reference) (string, store.Node, error) {
	if err := z.check(); err != nil {
		return "", nil, err
	}
	location := z.resolveLocation(ref.Source)
	root, err := z.openReferenced(location)
	if err != nil {
		return "", nil, fmt.Errorf("%w: opening %s: %v", ErrBadReference, location, err)
	}

	name := builder.RootName
	var node store.Node = root
	if p := strings.Trim(ref.Path, "/"); p != "" {
		name = path.Base(p)
		node, err = root.Get("/" + p)
		if err != nil {
			return "", nil, fmt.Errorf("%w: found bad link to object %s in file %s", ErrBadReference, ref.Path, location)
		}
	}
	return name, node, nil
}

func (z *IO) openReferenced(location string) (*store.Group, error) {
	if z.sameStore(location) {
		return z.root, nil
	}
	if g, ok := z.external[location]; ok {
		return g, nil
	}
	g, err := store.OpenConsolidated(location, store.ModeRead, z.opts.storeOptions()...)
	if err != nil {
		return nil, err
	}
	z.external[location] = g
	return g, nil
}

func (z *IO) sameStore(location string) bool {
	if z.remote {
		return strings.TrimRight(location, "/") == strings.TrimRight(z.abspath, "/")
	}
	return filepath.Clean(location) == z.abspath
}
