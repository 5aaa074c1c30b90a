package zarrio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/store"
)

// writer carries the settings of one tree write.
type writer struct {
	*IO
	ctx  context.Context
	opts *writeOptions
}

// Write writes the tree under root and caches any namespaces given with
// WithNamespaces.
func (z *IO) Write(ctx context.Context, root *builder.GroupBuilder, opts ...WriteOption) error {
	if err := z.WriteBuilder(ctx, root, opts...); err != nil {
		return err
	}
	wo := applyWriteOptions(opts)
	if len(wo.namespaces) == 0 {
		return nil
	}
	if err := z.cacheNamespaces(wo.namespaces); err != nil {
		return err
	}
	if wo.consolidate {
		return z.consolidate()
	}
	return nil
}

// WriteBuilder writes root depth first: groups, then datasets, then links at
// every level, then the root attributes. Queued chunk writes are drained
// before the store's metadata is consolidated.
func (z *IO) WriteBuilder(ctx context.Context, root *builder.GroupBuilder, opts ...WriteOption) error {
	if err := z.check(); err != nil {
		return err
	}
	if !z.writable() {
		return fmt.Errorf("%w: cannot write to %s in mode %q", ErrUnsupportedOperation, z.location, z.mode)
	}
	if z.tracker.IsWritten(root) {
		z.logger.Debug("skipping builder tree already written", "name", root.Name())
		return nil
	}
	w := &writer{IO: z, ctx: ctx, opts: applyWriteOptions(opts)}

	for _, g := range root.Groups() {
		if _, err := w.writeGroup(z.root, g); err != nil {
			return err
		}
	}
	for _, d := range root.Datasets() {
		if _, err := w.writeDataset(z.root, d, nil); err != nil {
			return err
		}
	}
	for _, l := range root.Links() {
		if err := w.writeLink(z.root, l); err != nil {
			return err
		}
	}
	if err := w.writeAttributes(z.root, root.Attributes()); err != nil {
		return err
	}
	if err := z.queue.Drain(ctx); err != nil {
		return fmt.Errorf("writing chunked datasets: %w", err)
	}
	z.tracker.SetWritten(root)
	z.logger.Debug("done writing builder tree", "name", root.Name(), "location", z.location)

	if w.opts.consolidate {
		return z.consolidate()
	}
	return nil
}

func (z *IO) consolidate() error {
	if err := store.ConsolidateStore(z.root.Store()); err != nil {
		return fmt.Errorf("consolidating metadata: %w", err)
	}
	return nil
}

func (w *writer) writeGroup(parent *store.Group, b *builder.GroupBuilder) (*store.Group, error) {
	if w.tracker.IsWritten(b) {
		return parent.OpenGroup(b.Name())
	}
	group, err := parent.RequireGroup(b.Name())
	if err != nil {
		return nil, fmt.Errorf("creating group %s in %s: %w", b.Name(), parent.Path(), err)
	}
	w.logger.Debug("writing group", "name", b.Name(), "parent", parent.Path())

	for _, g := range b.Groups() {
		if _, err := w.writeGroup(group, g); err != nil {
			return nil, err
		}
	}
	for _, d := range b.Datasets() {
		if _, err := w.writeDataset(group, d, nil); err != nil {
			return nil, err
		}
	}
	for _, l := range b.Links() {
		if err := w.writeLink(group, l); err != nil {
			return nil, err
		}
	}
	if err := w.writeAttributes(group, b.Attributes()); err != nil {
		return nil, err
	}
	w.tracker.SetWritten(b)
	return group, nil
}

func (w *writer) writeLink(parent *store.Group, b *builder.LinkBuilder) error {
	if w.tracker.IsWritten(b) {
		w.logger.Debug("skipping link already written", "name", b.Name(), "parent", parent.Path())
		return nil
	}
	w.logger.Debug("writing link", "name", b.Name(), "parent", parent.Path())

	target := b.Target()
	if target == nil {
		return fmt.Errorf("%w: link %s in %s has no target", ErrBadReference, b.Name(), parent.Path())
	}
	ref, err := w.MakeReference(target, w.opts.exportSource)
	if err != nil {
		return fmt.Errorf("link %s in %s: %w", b.Name(), parent.Path(), err)
	}
	// Links whose target shares their origin always point into this store.
	if b.Source() == target.Source() {
		ref.Source = "."
	}
	if err := addLink(parent, ref.Source, ref.Path, b.Name()); err != nil {
		return err
	}
	w.tracker.SetWritten(b)
	return nil
}

// addLink appends a {source, path, name} entry to the link list of parent.
func addLink(parent *store.Group, source, target, name string) error {
	attrs := parent.Attrs()
	current, _, err := attrs.Get(LinkAttr)
	if err != nil {
		return fmt.Errorf("reading links of %s: %w", parent.Path(), err)
	}
	links, _ := current.([]any)
	links = append(append([]any(nil), links...), map[string]any{
		"source": source,
		"path":   target,
		"name":   name,
	})
	if err := attrs.Set(LinkAttr, links); err != nil {
		return fmt.Errorf("writing link %s in %s: %w", name, parent.Path(), err)
	}
	return nil
}

// writeAttributes stores attrs on node in one document update. Sequences are
// stored as JSON lists and references as {zarr_dtype: "object", value}
// records. A value the store rejects is narrowed once (byte strings become
// text, non-finite floats become strings) before failing with an
// *AttributeError.
func (w *writer) writeAttributes(node store.Node, attrs map[string]any) error {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]any, len(attrs))
	for _, key := range keys {
		value := attrs[key]
		if isReferenceValue(value) {
			ref, err := w.MakeReference(value, w.opts.exportSource)
			if err != nil {
				return &AttributeError{Key: key, Value: value, Err: err}
			}
			values[key] = map[string]any{DtypeAttr: "object", "value": ref.Map()}
			continue
		}

		v := normalizeAttribute(value)
		if err := store.CheckSerializable(v); err != nil {
			if !errors.Is(err, store.ErrUnserializable) {
				return &AttributeError{Key: key, Value: value, Err: err}
			}
			v = narrow(v)
			if retryErr := store.CheckSerializable(v); retryErr != nil {
				return &AttributeError{Key: key, Value: value, Err: err}
			}
		}
		values[key] = v
	}

	if err := node.Attrs().Update(values); err != nil {
		return fmt.Errorf("writing attributes of %s: %w", node.Path(), err)
	}
	return nil
}

func isReferenceValue(v any) bool {
	switch v.(type) {
	case *builder.ReferenceBuilder, *builder.RegionBuilder, builder.Builder, builder.Container:
		return true
	}
	return false
}

// normalizeAttribute turns slices and arrays, other than byte strings, into
// ordered []any lists.
func normalizeAttribute(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return v
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeAttribute(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

// narrow converts values JSON cannot hold faithfully into ones it can.
// Byte strings become UTF-8 text and non-finite floats become "NaN",
// "Infinity" or "-Infinity"; lists are narrowed element-wise.
func narrow(v any) any {
	switch x := v.(type) {
	case []byte:
		return decodeText(x)
	case float64:
		if s, ok := nonFinite(x); ok {
			return s
		}
		return v
	case float32:
		if s, ok := nonFinite(float64(x)); ok {
			return s
		}
		return v
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = narrow(x[i])
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return decodeText(b)
	}
	return v
}

func nonFinite(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}
	return "", false
}

func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return string([]rune(string(b)))
}
