package zarrio

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/datatype"
	"github.com/robert-malhotra/go-zarrio/store"
)

// ReadBuilder reads the whole store into a builder tree rooted at a group
// named root. Every node is read once per session: later reads, and links
// or references to a node already read, return the same builder.
func (z *IO) ReadBuilder() (*builder.GroupBuilder, error) {
	if err := z.check(); err != nil {
		return nil, err
	}
	z.linkDepth = 0
	return z.readGroup(z.root, builder.RootName)
}

// GetBuilder returns the builder read from node in this session.
func (z *IO) GetBuilder(node store.Node) (builder.Builder, error) {
	if err := z.check(); err != nil {
		return nil, err
	}
	b, ok := z.built[builtKey(node)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBuilt, node.Path())
	}
	return b, nil
}

// GetContainer returns the container constructed from the builder read
// from node, using the session manager.
func (z *IO) GetContainer(node store.Node) (builder.Container, error) {
	b, err := z.GetBuilder(node)
	if err != nil {
		return nil, err
	}
	if z.opts.manager == nil {
		return nil, fmt.Errorf("%w: no manager to construct %s", ErrUnsupportedOperation, node.Path())
	}
	return z.opts.manager.Construct(b)
}

func builtKey(node store.Node) string {
	return node.Store().Location() + node.Path()
}

// nodeSource is the source recorded on builders read from node.
func (z *IO) nodeSource(node store.Node) string {
	loc := node.Store().Location()
	if z.sameStore(loc) {
		return z.Source()
	}
	return loc
}

func (z *IO) readNode(node store.Node, name string) (builder.Builder, error) {
	switch n := node.(type) {
	case *store.Group:
		return z.readGroup(n, name)
	case *store.Array:
		return z.readDataset(n, name)
	}
	return nil, fmt.Errorf("unexpected node %T at %s", node, node.Path())
}

func (z *IO) readGroup(node *store.Group, name string) (*builder.GroupBuilder, error) {
	key := builtKey(node)
	if b, ok := z.built[key]; ok {
		if g, ok := b.(*builder.GroupBuilder); ok {
			return g, nil
		}
		return nil, fmt.Errorf("node %s was read as %T", node.Path(), b)
	}

	isRoot := node.Path() == "/"
	g := builder.NewGroup(name)
	g.SetSource(z.nodeSource(node))
	if !isRoot {
		g.SetLocation(path.Dir(node.Path()))
	}
	// Registered before recursing so cycles through links and references
	// resolve to this builder.
	z.built[key] = g
	z.tracker.SetWritten(g)

	attrs, err := z.readAttributes(node, isRoot)
	if err != nil {
		return nil, err
	}
	for k, v := range attrs {
		g.SetAttribute(k, v)
	}

	specloc := ""
	if isRoot {
		if v, ok, err := node.Attrs().Get(SpecLocAttr); err == nil && ok {
			specloc, _ = v.(string)
		}
	}

	groups, err := node.Groups()
	if err != nil {
		return nil, fmt.Errorf("listing groups of %s: %w", node.Path(), err)
	}
	for _, sub := range groups {
		if specloc != "" && sub.Basename() == specloc {
			continue
		}
		child, err := z.readGroup(sub, sub.Basename())
		if err != nil {
			return nil, err
		}
		g.SetGroup(child)
	}

	arrays, err := node.Arrays()
	if err != nil {
		return nil, fmt.Errorf("listing arrays of %s: %w", node.Path(), err)
	}
	for _, arr := range arrays {
		d, err := z.readDataset(arr, arr.Basename())
		if err != nil {
			return nil, err
		}
		g.SetDataset(d)
	}

	if err := z.readLinks(node, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (z *IO) readDataset(node *store.Array, name string) (*builder.DatasetBuilder, error) {
	key := builtKey(node)
	if b, ok := z.built[key]; ok {
		if d, ok := b.(*builder.DatasetBuilder); ok {
			return d, nil
		}
		return nil, fmt.Errorf("node %s was read as %T", node.Path(), b)
	}

	d := builder.NewDataset(name, nil, nil)
	d.SetSource(z.nodeSource(node))
	d.SetLocation(path.Dir(node.Path()))
	d.Maxshape = node.Shape()
	d.Chunked = !equalShape(node.Shape(), node.Chunks())
	z.built[key] = d
	z.tracker.SetWritten(d)

	tag, ok, err := node.Attrs().Get(DtypeAttr)
	if err != nil {
		return nil, fmt.Errorf("reading type tag of %s: %w", node.Path(), err)
	}
	switch {
	case !ok:
		z.logger.Warn("dataset has no type tag, using storage dtype", "path", node.Path(), "dtype", node.Meta().Dtype)
		d.Data = node
		if rec := node.Record(); rec != nil {
			if c, ok := datatype.FromRecord(rec); ok {
				d.Dtype = c
				d.Data = &TableView{array: node, compound: c, io: z}
			}
		} else if st, ok := datatype.FromCode(node.Dtype()); ok {
			d.Dtype = st
		}
	case tag == datatype.TagScalar:
		vals, err := node.Read()
		if err != nil {
			return nil, fmt.Errorf("reading scalar %s: %w", node.Path(), err)
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("scalar dataset %s is empty", node.Path())
		}
		d.Data = vals[0]
		if st, ok := datatype.FromCode(node.Dtype()); ok {
			d.Dtype = st
		} else if st, err := datatype.Infer(vals[0]); err == nil {
			d.Dtype = st
		}
	case tag == datatype.TagRegion:
		return nil, fmt.Errorf("%w: region references in %s", ErrNotImplemented, node.Path())
	default:
		st, err := datatype.ParseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("type tag of %s: %w", node.Path(), err)
		}
		d.Dtype = st
		switch t := st.(type) {
		case datatype.Compound:
			if hasRegionField(tag) {
				return nil, fmt.Errorf("%w: region references in %s", ErrNotImplemented, node.Path())
			}
			d.Data = &TableView{array: node, compound: t, io: z}
		case datatype.Reference:
			d.Data = &ReferenceView{array: node, io: z}
		default:
			d.Data = node
		}
	}

	attrs, err := z.readAttributes(node, false)
	if err != nil {
		return nil, err
	}
	for k, v := range attrs {
		d.SetAttribute(k, v)
	}
	return d, nil
}

// hasRegionField reports whether a compound tag declares a region field.
func hasRegionField(tag any) bool {
	fields, ok := tag.([]any)
	if !ok {
		return false
	}
	for _, f := range fields {
		if m, ok := f.(map[string]any); ok && m["dtype"] == datatype.TagRegion {
			return true
		}
	}
	return false
}

// readAttributes returns the user attributes of node with reference
// records resolved to builders. Reserved keys are dropped.
func (z *IO) readAttributes(node store.Node, isRoot bool) (map[string]any, error) {
	raw, err := node.Attrs().AsMap()
	if err != nil {
		return nil, fmt.Errorf("reading attributes of %s: %w", node.Path(), err)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(raw))
	for _, k := range keys {
		if k == DtypeAttr || k == LinkAttr || (isRoot && k == SpecLocAttr) {
			continue
		}
		v := raw[k]
		m, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		switch m[DtypeAttr] {
		case datatype.TagObject, "reference":
			ref, err := ParseReference(m["value"])
			if err != nil {
				return nil, fmt.Errorf("attribute %q of %s: %w", k, node.Path(), err)
			}
			target, err := z.resolveBuilder(node, ref)
			if err != nil {
				return nil, fmt.Errorf("attribute %q of %s: %w", k, node.Path(), err)
			}
			out[k] = target
		case datatype.TagRegion:
			return nil, fmt.Errorf("%w: region reference in attribute %q of %s", ErrNotImplemented, k, node.Path())
		default:
			out[k] = v
		}
	}
	return out, nil
}

// readLinks adds the link entries of node to g.
func (z *IO) readLinks(node *store.Group, g *builder.GroupBuilder) error {
	raw, ok, err := node.Attrs().Get(LinkAttr)
	if err != nil {
		return fmt.Errorf("reading links of %s: %w", node.Path(), err)
	}
	if !ok {
		return nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("%w: %s of %s is %T, not a list", ErrBadReference, LinkAttr, node.Path(), raw)
	}

	for _, e := range entries {
		m, _ := e.(map[string]any)
		name, _ := m["name"].(string)
		if name == "" {
			return fmt.Errorf("%w: unnamed link in %s", ErrBadReference, node.Path())
		}
		ref, err := ParseReference(e)
		if err != nil {
			return fmt.Errorf("link %s in %s: %w", name, node.Path(), err)
		}

		if z.linkDepth >= MaxLinkDepth {
			return fmt.Errorf("%w: following link %s in %s", ErrLinkDepth, name, node.Path())
		}
		z.linkDepth++
		target, err := z.resolveBuilder(node, ref)
		z.linkDepth--
		if err != nil {
			return fmt.Errorf("link %s in %s: %w", name, node.Path(), err)
		}

		link := builder.NewLink(name, target)
		link.SetSource(z.nodeSource(node))
		link.SetLocation(node.Path())
		z.tracker.SetWritten(link)
		g.SetLink(link)
	}
	return nil
}

// resolveBuilder reads the node a record found on from points at. Relative
// sources are taken relative to the store holding from.
func (z *IO) resolveBuilder(from store.Node, ref Reference) (builder.Builder, error) {
	if loc := from.Store().Location(); !z.sameStore(loc) {
		ref.Source = rebase(loc, ref.Source)
	}
	name, node, err := z.ResolveRef(ref)
	if err != nil {
		return nil, err
	}
	return z.readNode(node, name)
}

// rebase expresses source, relative to the store at base, as an absolute
// location.
func rebase(base, source string) string {
	if source == "" {
		source = "."
	}
	if store.IsRemote(source) || filepath.IsAbs(source) {
		return source
	}
	if store.IsRemote(base) {
		if source == "." {
			return base
		}
		return strings.TrimRight(base, "/") + "/" + strings.TrimPrefix(source, "./")
	}
	return filepath.Join(base, filepath.FromSlash(source))
}
