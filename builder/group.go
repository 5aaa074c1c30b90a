package builder

import "sort"

// GroupBuilder is a node with child groups, datasets and links.
type GroupBuilder struct {
	base
	groups   map[string]*GroupBuilder
	datasets map[string]*DatasetBuilder
	links    map[string]*LinkBuilder
}

// NewGroup creates an empty group builder.
func NewGroup(name string) *GroupBuilder {
	return &GroupBuilder{
		base:     newBase(name),
		groups:   make(map[string]*GroupBuilder),
		datasets: make(map[string]*DatasetBuilder),
		links:    make(map[string]*LinkBuilder),
	}
}

// NewRoot creates the sentinel root group of a file.
func NewRoot() *GroupBuilder {
	return NewGroup(RootName)
}

// SetGroup adds child as a subgroup and makes g its parent.
func (g *GroupBuilder) SetGroup(child *GroupBuilder) *GroupBuilder {
	child.parent = g
	g.groups[child.name] = child
	return child
}

// SetDataset adds child as a dataset and makes g its parent.
func (g *GroupBuilder) SetDataset(child *DatasetBuilder) *DatasetBuilder {
	child.parent = g
	g.datasets[child.name] = child
	return child
}

// SetLink adds child as a link and makes g its parent.
func (g *GroupBuilder) SetLink(child *LinkBuilder) *LinkBuilder {
	child.parent = g
	g.links[child.name] = child
	return child
}

// Group returns the named subgroup.
func (g *GroupBuilder) Group(name string) (*GroupBuilder, bool) {
	c, ok := g.groups[name]
	return c, ok
}

// Dataset returns the named dataset.
func (g *GroupBuilder) Dataset(name string) (*DatasetBuilder, bool) {
	c, ok := g.datasets[name]
	return c, ok
}

// Link returns the named link.
func (g *GroupBuilder) Link(name string) (*LinkBuilder, bool) {
	c, ok := g.links[name]
	return c, ok
}

// Groups returns the subgroups sorted by name.
func (g *GroupBuilder) Groups() []*GroupBuilder {
	out := make([]*GroupBuilder, 0, len(g.groups))
	for _, name := range sortedKeys(g.groups) {
		out = append(out, g.groups[name])
	}
	return out
}

// Datasets returns the datasets sorted by name.
func (g *GroupBuilder) Datasets() []*DatasetBuilder {
	out := make([]*DatasetBuilder, 0, len(g.datasets))
	for _, name := range sortedKeys(g.datasets) {
		out = append(out, g.datasets[name])
	}
	return out
}

// Links returns the links sorted by name.
func (g *GroupBuilder) Links() []*LinkBuilder {
	out := make([]*LinkBuilder, 0, len(g.links))
	for _, name := range sortedKeys(g.links) {
		out = append(out, g.links[name])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
