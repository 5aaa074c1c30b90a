package zarrio

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/robert-malhotra/go-zarrio/datatype"
	"github.com/robert-malhotra/go-zarrio/internal/dtype"
	"github.com/robert-malhotra/go-zarrio/store"
)

// DefaultSpecLocation is the group the specification cache is written to
// when the root does not name one.
const DefaultSpecLocation = "specifications"

const unversioned = "unversioned"

// Namespace is a set of specification documents cached beside the data.
// Documents are stored as JSON, one scalar text dataset each.
type Namespace struct {
	Name      string
	Version   string
	Documents map[string]any
}

// cacheNamespaces writes ns below the root's specification group,
// overwriting documents already cached under the same version.
func (z *IO) cacheNamespaces(ns []Namespace) error {
	attrs := z.root.Attrs()
	v, ok, err := attrs.Get(SpecLocAttr)
	if err != nil {
		return fmt.Errorf("reading %s: %w", SpecLocAttr, err)
	}
	specloc, _ := v.(string)
	if !ok || specloc == "" {
		specloc = DefaultSpecLocation
		if err := attrs.Set(SpecLocAttr, specloc); err != nil {
			return fmt.Errorf("setting %s: %w", SpecLocAttr, err)
		}
	}

	for _, n := range ns {
		version := n.Version
		if version == "" {
			version = unversioned
		}
		g, err := z.root.RequireGroup(specloc + "/" + n.Name + "/" + version)
		if err != nil {
			return fmt.Errorf("caching namespace %s: %w", n.Name, err)
		}

		names := make([]string, 0, len(n.Documents))
		for name := range n.Documents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			doc, err := json.Marshal(n.Documents[name])
			if err != nil {
				return fmt.Errorf("encoding %s of namespace %s: %w", name, n.Name, err)
			}
			arr, err := g.RequireArray(name, store.ArrayOptions{
				Shape:       []int{1},
				Dtype:       dtype.Object,
				ObjectCodec: z.opts.objectCodec,
			})
			if err != nil {
				return fmt.Errorf("caching %s of namespace %s: %w", name, n.Name, err)
			}
			if err := arr.Set([]int{0}, string(doc)); err != nil {
				return fmt.Errorf("caching %s of namespace %s: %w", name, n.Name, err)
			}
			if err := arr.Attrs().Set(DtypeAttr, datatype.TagScalar); err != nil {
				return err
			}
		}
		z.logger.Debug("cached namespace", "name", n.Name, "version", version, "documents", len(names))
	}
	return nil
}

// LoadNamespaces reads cached namespaces from the store at location. With
// no names every cached namespace is loaded. When a namespace is cached
// under several versions the last in sorted order wins. A store without a
// specification cache yields an empty result.
func LoadNamespaces(location string, names []string, opts ...Option) (map[string]Namespace, error) {
	z, err := Open(location, string(store.ModeRead), opts...)
	if err != nil {
		return nil, err
	}
	defer z.Close()

	out := make(map[string]Namespace)
	v, ok, err := z.root.Attrs().Get(SpecLocAttr)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", SpecLocAttr, err)
	}
	specloc, _ := v.(string)
	if !ok || specloc == "" {
		z.logger.Warn("no cached namespaces found", "location", location)
		return out, nil
	}
	spec, err := z.root.OpenGroup(specloc)
	if err != nil {
		return nil, fmt.Errorf("opening specification cache %s: %w", specloc, err)
	}

	if len(names) == 0 {
		if names, err = spec.GroupNames(); err != nil {
			return nil, err
		}
	}
	for _, name := range names {
		ns, err := loadNamespace(spec, name)
		if err != nil {
			return nil, err
		}
		out[name] = ns
	}
	return out, nil
}

func loadNamespace(spec *store.Group, name string) (Namespace, error) {
	g, err := spec.OpenGroup(name)
	if err != nil {
		return Namespace{}, fmt.Errorf("namespace %s: %w", name, err)
	}
	versions, err := g.GroupNames()
	if err != nil {
		return Namespace{}, err
	}
	if len(versions) == 0 {
		return Namespace{}, fmt.Errorf("namespace %s has no cached versions", name)
	}
	sort.Strings(versions)
	version := versions[len(versions)-1]

	vg, err := g.OpenGroup(version)
	if err != nil {
		return Namespace{}, err
	}
	arrays, err := vg.Arrays()
	if err != nil {
		return Namespace{}, err
	}
	ns := Namespace{Name: name, Version: version, Documents: make(map[string]any, len(arrays))}
	if version == unversioned {
		ns.Version = ""
	}
	for _, arr := range arrays {
		raw, err := arr.Get(0)
		if err != nil {
			return Namespace{}, fmt.Errorf("reading %s of namespace %s: %w", arr.Basename(), name, err)
		}
		text, ok := raw.(string)
		if !ok {
			return Namespace{}, fmt.Errorf("document %s of namespace %s is %T, not text", arr.Basename(), name, raw)
		}
		var doc any
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return Namespace{}, fmt.Errorf("decoding %s of namespace %s: %w", arr.Basename(), name, err)
		}
		ns.Documents[arr.Basename()] = doc
	}
	return ns, nil
}
