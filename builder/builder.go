// Package builder provides the in-memory container model that is mapped to
// and from a zarr store: groups, datasets, links and references.
//
// Builders are owned by the caller. The IO layer reads their identity fields
// (name, parent, location, source) but never rewrites them; per-session state
// such as "already written" lives in registries keyed by builder identity.
package builder

import (
	"sort"

	"github.com/google/uuid"
)

// RootName is the name of the sentinel root builder of every file.
const RootName = "root"

// ObjectIDKey is the attribute holding a builder's stable identity.
const ObjectIDKey = "object_id"

// Builder is implemented by *GroupBuilder, *DatasetBuilder and *LinkBuilder.
type Builder interface {
	Name() string
	Parent() *GroupBuilder
	Source() string
	Location() (string, bool)
	Attributes() map[string]any
	Attribute(key string) (any, bool)
	ObjectID() (string, bool)
}

// NewObjectID returns a fresh random object identity.
func NewObjectID() string {
	return uuid.NewString()
}

type base struct {
	name        string
	source      string
	location    string
	hasLocation bool
	parent      *GroupBuilder
	attributes  map[string]any
}

func newBase(name string) base {
	return base{name: name, attributes: make(map[string]any)}
}

// Name returns the builder name.
func (b *base) Name() string { return b.name }

// Parent returns the enclosing group, or nil for a root.
func (b *base) Parent() *GroupBuilder { return b.parent }

// Source returns the location of the file this builder was read from or is
// destined for. Empty for builders that have never touched a store.
func (b *base) Source() string { return b.source }

// SetSource sets the origin file of the builder.
func (b *base) SetSource(source string) { b.source = source }

// Location returns the explicit in-store parent path, if one was set.
func (b *base) Location() (string, bool) { return b.location, b.hasLocation }

// SetLocation sets the explicit in-store parent path.
func (b *base) SetLocation(location string) {
	b.location = location
	b.hasLocation = true
}

// Attributes returns the attribute map. The map is live.
func (b *base) Attributes() map[string]any { return b.attributes }

// Attribute returns a single attribute value.
func (b *base) Attribute(key string) (any, bool) {
	v, ok := b.attributes[key]
	return v, ok
}

// SetAttribute sets an attribute value.
func (b *base) SetAttribute(key string, value any) {
	b.attributes[key] = value
}

// ObjectID returns the object_id attribute when it is a string.
func (b *base) ObjectID() (string, bool) {
	v, ok := b.attributes[ObjectIDKey]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AttributeNames returns the attribute keys of b in sorted order.
func AttributeNames(b Builder) []string {
	attrs := b.Attributes()
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Root walks the parent chain of b, starting with b itself, until it finds
// the builder named RootName.
func Root(b Builder) (Builder, bool) {
	var curr Builder = b
	for curr != nil {
		if curr.Name() == RootName {
			return curr, true
		}
		p := curr.Parent()
		if p == nil {
			return nil, false
		}
		curr = p
	}
	return nil, false
}

// Target returns the builder a link points at, following one level of link
// indirection. Non-link builders are returned unchanged.
func Target(b Builder) Builder {
	if l, ok := b.(*LinkBuilder); ok {
		return l.Target()
	}
	return b
}
