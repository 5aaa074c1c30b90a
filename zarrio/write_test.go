package zarrio

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/chunkqueue"
	"github.com/robert-malhotra/go-zarrio/datatype"
	"github.com/robert-malhotra/go-zarrio/internal/filter"
	"github.com/robert-malhotra/go-zarrio/store"
)

func TestRoundtrip(t *testing.T) {
	loc := tempStore(t)
	root := newRootWithID()
	root.SetAttribute("description", "test file")
	acq := root.SetGroup(builder.NewGroup("acquisition"))
	acq.SetAttribute("count", 3)
	acq.SetDataset(builder.NewDataset("ints", []int32{1, 2, 3}, nil))
	acq.SetDataset(builder.NewDataset("names", []string{"a", "b"}, "text"))
	acq.SetDataset(builder.NewDataset("rate", 2.5, nil))
	acq.SetDataset(builder.NewDataset("label", "hello", nil))
	acq.SetDataset(builder.NewDataset("matrix", [][]float64{{1, 2}, {3, 4}, {5, 6}}, "float64"))
	acq.SetGroup(builder.NewGroup("nested")).SetAttribute("tags", []string{"x", "y"})
	writeTree(t, loc, root)

	z, back := readTree(t, loc)
	require.Equal(t, builder.RootName, back.Name())
	require.Equal(t, "test file", back.Attributes()["description"])
	require.NotContains(t, back.Attributes(), LinkAttr)

	racq, ok := back.Group("acquisition")
	require.True(t, ok)
	require.Equal(t, int64(3), racq.Attributes()["count"])
	require.Equal(t, z.Source(), racq.Source())

	tests := []struct {
		name  string
		tag   any
		dtype datatype.StorageType
		want  []any
	}{
		{"ints", "int32", datatype.Primitive{Kind: datatype.Int32}, []any{int32(1), int32(2), int32(3)}},
		{"names", "str", datatype.Text{}, []any{"a", "b"}},
		{"matrix", "float64", datatype.Primitive{Kind: datatype.Float64}, []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := racq.Dataset(tt.name)
			require.True(t, ok)
			require.Equal(t, tt.dtype, d.Dtype)
			arr, ok := d.Data.(*store.Array)
			require.True(t, ok, "data is %T", d.Data)
			vals, err := arr.Read()
			require.NoError(t, err)
			require.Equal(t, tt.want, vals)

			tag, ok, err := arr.Attrs().Get(DtypeAttr)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tt.tag, tag)
		})
	}

	matrix, _ := racq.Dataset("matrix")
	require.Equal(t, []int{3, 2}, matrix.Maxshape)
	require.False(t, matrix.Chunked)

	rate, _ := racq.Dataset("rate")
	require.Equal(t, 2.5, rate.Data)
	label, _ := racq.Dataset("label")
	require.Equal(t, "hello", label.Data)
	require.Equal(t, datatype.Text{}, label.Dtype)

	nested, ok := racq.Group("nested")
	require.True(t, ok)
	require.Equal(t, []any{"x", "y"}, nested.Attributes()["tags"])

	p, err := z.WrittenPath(nested)
	require.NoError(t, err)
	require.Equal(t, "/acquisition/nested", p)
}

func TestReadReturnsSameBuilders(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	root.SetGroup(builder.NewGroup("g")).SetDataset(builder.NewDataset("d", []int64{1}, nil))
	writeTree(t, loc, root)

	z, first := readTree(t, loc)
	second, err := z.ReadBuilder()
	require.NoError(t, err)
	require.Same(t, first, second)

	node, err := z.Root().Get("/g/d")
	require.NoError(t, err)
	b, err := z.GetBuilder(node)
	require.NoError(t, err)
	g, _ := first.Group("g")
	d, _ := g.Dataset("d")
	require.Same(t, d, b)

	_, err = z.GetContainer(node)
	require.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestGetBuilderBeforeRead(t *testing.T) {
	loc := tempStore(t)
	writeTree(t, loc, builder.NewRoot())
	z, err := Open(loc, "r")
	require.NoError(t, err)
	defer z.Close()

	_, err = z.GetBuilder(z.Root())
	require.ErrorIs(t, err, ErrNotBuilt)
}

func TestWriteIsIdempotent(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	data := root.SetGroup(builder.NewGroup("data"))
	values := data.SetDataset(builder.NewDataset("values", []int32{1, 2}, nil))
	root.SetLink(builder.NewLink("alias", values))

	z, err := Open(loc, "w")
	require.NoError(t, err)
	defer z.Close()
	ctx := context.Background()
	require.NoError(t, z.WriteBuilder(ctx, root))
	require.NoError(t, z.WriteBuilder(ctx, root))

	links, ok, err := z.Root().Attrs().Get(LinkAttr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, links, 1)

	require.True(t, z.GetWritten(values, false))
	require.True(t, z.GetWritten(values, true))
	require.True(t, z.BuilderExistsOnDisk(data))
}

func TestWrittenPathNotWritten(t *testing.T) {
	z, err := Open(tempStore(t), "w")
	require.NoError(t, err)
	defer z.Close()

	g := builder.NewGroup("never")
	_, err = z.WrittenPath(g)
	require.ErrorIs(t, err, ErrNotWritten)
	require.False(t, z.GetWritten(g, false))
}

func TestLinks(t *testing.T) {
	loc := tempStore(t)
	root := newRootWithID()
	data := root.SetGroup(builder.NewGroup("data"))
	values := data.SetDataset(builder.NewDataset("values", []float32{1, 2}, nil))
	analysis := root.SetGroup(builder.NewGroup("analysis"))
	analysis.SetLink(builder.NewLink("ref_values", values))
	data.SetLink(builder.NewLink("up", root))
	root.SetLink(builder.NewLink("shortcut", analysis))

	z, err := Open(loc, "w")
	require.NoError(t, err)
	require.NoError(t, z.WriteBuilder(context.Background(), root))
	raw, _, err := z.Root().Attrs().Get(LinkAttr)
	require.NoError(t, err)
	require.Equal(t, []any{map[string]any{"source": ".", "path": "/analysis", "name": "shortcut"}}, raw)
	z.Close()

	_, back := readTree(t, loc)
	rdata, _ := back.Group("data")
	rvalues, _ := rdata.Dataset("values")
	ranalysis, _ := back.Group("analysis")

	link, ok := ranalysis.Link("ref_values")
	require.True(t, ok)
	require.Same(t, rvalues, link.Target())

	up, ok := rdata.Link("up")
	require.True(t, ok)
	require.Same(t, back, up.Target())

	shortcut, ok := back.Link("shortcut")
	require.True(t, ok)
	require.Same(t, ranalysis, shortcut.Target())
}

func TestReferences(t *testing.T) {
	loc := tempStore(t)
	root := newRootWithID()
	units := root.SetGroup(builder.NewGroup("units"))
	unitsID := builder.NewObjectID()
	units.SetAttribute(builder.ObjectIDKey, unitsID)
	spikes := units.SetDataset(builder.NewDataset("spikes", []float64{0.1, 0.2}, nil))

	refs := root.SetDataset(builder.NewDataset("refs", []builder.Builder{units, spikes}, nil))
	refs.SetAttribute("target", builder.NewReference(units))
	root.SetDataset(builder.NewDataset("single", builder.NewReference(spikes), nil))
	root.SetDataset(builder.NewDataset("declared", []builder.Builder{units}, datatype.RefSpec{TargetType: "Units", RefType: "object"}))
	writeTree(t, loc, root)

	raw, err := store.OpenConsolidated(loc, store.ModeRead)
	require.NoError(t, err)
	arr, err := raw.OpenArray("refs")
	require.NoError(t, err)
	recs, err := arr.Read()
	require.NoError(t, err)
	rootID, _ := root.ObjectID()
	require.Equal(t, map[string]any{
		"source":           ".",
		"path":             "/units",
		"object_id":        unitsID,
		"source_object_id": rootID,
	}, recs[0])
	require.Equal(t, "/units/spikes", recs[1].(map[string]any)["path"])
	require.Nil(t, recs[1].(map[string]any)["object_id"])
	tag, _, _ := arr.Attrs().Get(DtypeAttr)
	require.Equal(t, "object", tag)

	attr, _, err := arr.Attrs().Get("target")
	require.NoError(t, err)
	require.Equal(t, "object", attr.(map[string]any)[DtypeAttr])

	_, back := readTree(t, loc)
	runits, _ := back.Group("units")
	rspikes, _ := runits.Dataset("spikes")
	rrefs, _ := back.Dataset("refs")
	view, ok := rrefs.Data.(*ReferenceView)
	require.True(t, ok, "data is %T", rrefs.Data)
	require.Equal(t, 2, view.Len())

	first, err := view.Index(0)
	require.NoError(t, err)
	require.Same(t, runits, first)
	all, err := view.Slice()
	require.NoError(t, err)
	require.Same(t, rspikes, all[1])
	require.Same(t, runits, rrefs.Attributes()["target"])

	single, _ := back.Dataset("single")
	sview := single.Data.(*ReferenceView)
	require.Equal(t, 1, sview.Len())
	got, err := sview.Index(0)
	require.NoError(t, err)
	require.Same(t, rspikes, got)

	declared, _ := back.Dataset("declared")
	require.IsType(t, &ReferenceView{}, declared.Data)
}

func TestRegionReferencesNotImplemented(t *testing.T) {
	root := builder.NewRoot()
	g := root.SetGroup(builder.NewGroup("g"))
	root.SetDataset(builder.NewDataset("region", builder.NewRegion(g, []int{0, 2}), nil))

	z, err := Open(tempStore(t), "w")
	require.NoError(t, err)
	defer z.Close()
	err = z.WriteBuilder(context.Background(), root)
	require.ErrorIs(t, err, ErrNotImplemented)
	var dsErr *DatasetError
	require.ErrorAs(t, err, &dsErr)
	require.Equal(t, "region", dsErr.Name)
}

func TestCompoundWithReferences(t *testing.T) {
	loc := tempStore(t)
	root := newRootWithID()
	units := root.SetGroup(builder.NewGroup("units"))
	electrodes := root.SetGroup(builder.NewGroup("electrodes"))
	layout := []datatype.FieldSpec{
		{Name: "x", Dtype: "int32"},
		{Name: "lbl", Dtype: "text"},
		{Name: "ref", Dtype: datatype.RefSpec{TargetType: "Group", RefType: "object"}},
	}
	rows := [][]any{
		{1, "a", units},
		{2, []byte("b"), electrodes},
		{3, "c", builder.NewReference(units)},
	}
	root.SetDataset(builder.NewDataset("table", rows, layout))
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	runits, _ := back.Group("units")
	relectrodes, _ := back.Group("electrodes")
	table, _ := back.Dataset("table")
	view, ok := table.Data.(*TableView)
	require.True(t, ok, "data is %T", table.Data)
	require.Len(t, view.Compound().Fields, 3)
	require.Equal(t, "lbl", view.Compound().Fields[1].Name)

	got, err := view.Slice()
	require.NoError(t, err)
	require.Len(t, got, 3)
	want := []struct {
		x   int32
		lbl string
		ref builder.Builder
	}{{1, "a", runits}, {2, "b", relectrodes}, {3, "c", runits}}
	for i, w := range want {
		row := got[i].([]any)
		require.Equal(t, w.x, row[0])
		require.Equal(t, w.lbl, row[1])
		require.Same(t, w.ref, row[2])
	}

	tag, _, err := view.Array().Attrs().Get(DtypeAttr)
	require.NoError(t, err)
	require.Equal(t, []any{
		map[string]any{"name": "x", "dtype": "int32"},
		map[string]any{"name": "lbl", "dtype": "str"},
		map[string]any{"name": "ref", "dtype": "object"},
	}, tag)
}

func TestCompoundFromMaps(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	layout := []datatype.FieldSpec{{Name: "id", Dtype: "int64"}, {Name: "score", Dtype: "float64"}}
	root.SetDataset(builder.NewDataset("scores", []map[string]any{
		{"id": 7, "score": 0.5},
		{"id": 8, "score": 1},
	}, layout))
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	d, _ := back.Dataset("scores")
	row, err := d.Data.(*TableView).Index(1)
	require.NoError(t, err)
	require.Equal(t, []any{int64(8), 1.0}, row)
}

// spyQueue checks that every enqueued array already exists, filled with
// its fill value, when the queue is drained.
type spyQueue struct {
	t       *testing.T
	inner   *chunkqueue.Queue
	pending []*store.Array
	drained int
}

func (q *spyQueue) Enqueue(target chunkqueue.Target, it builder.ChunkIterator) {
	q.pending = append(q.pending, target.(*store.Array))
	q.inner.Enqueue(target, it)
}

func (q *spyQueue) Drain(ctx context.Context) error {
	for _, arr := range q.pending {
		v, err := arr.Get(0, 0)
		require.NoError(q.t, err)
		require.Equal(q.t, 0.0, v)
		q.drained++
	}
	q.pending = nil
	return q.inner.Drain(ctx)
}

func TestChunkedDeferred(t *testing.T) {
	loc := tempStore(t)
	data := make([]float64, 100*10)
	for i := range data {
		data[i] = float64(i) + 1
	}
	it, err := builder.NewSliceIterator(data, []int{100, 10}, 7, "float64")
	require.NoError(t, err)

	root := builder.NewRoot()
	root.SetDataset(builder.NewDataset("big", it, nil))
	root.SetDataset(builder.NewDataset("small", []int8{1}, nil))

	q := &spyQueue{t: t, inner: chunkqueue.New(chunkqueue.WithJobs(4))}
	z, err := Open(loc, "w", WithChunkQueue(q), WithCompressor(filter.Config{"id": "zstd", "level": 3}))
	require.NoError(t, err)
	require.NoError(t, z.WriteBuilder(context.Background(), root, DeferChunks()))
	require.Equal(t, 1, q.drained)
	z.Close()

	_, back := readTree(t, loc)
	big, _ := back.Dataset("big")
	require.True(t, big.Chunked)
	require.Equal(t, []int{100, 10}, big.Maxshape)
	arr := big.Data.(*store.Array)
	require.Equal(t, []int{7, 10}, arr.Chunks())
	vals, err := arr.Read()
	require.NoError(t, err)
	require.Len(t, vals, 1000)
	for i, v := range vals {
		require.Equal(t, float64(i)+1, v)
	}
}

func TestChunkedEager(t *testing.T) {
	loc := tempStore(t)
	it, err := builder.NewSliceIterator([]int32{1, 2, 3, 4, 5}, []int{5}, 2, nil)
	require.NoError(t, err)
	root := builder.NewRoot()
	root.SetDataset(builder.NewDataset("counts", it, "int32"))
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	d, _ := back.Dataset("counts")
	vals, err := d.Data.(*store.Array).Read()
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2), int32(3), int32(4), int32(5)}, vals)
}

func TestDataIOSettings(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	root.SetDataset(builder.NewDataset("padded", &DataIO{
		Data:       []float64{1, 2, 3},
		Shape:      []int{6},
		Chunks:     []int{2},
		FillValue:  -1.0,
		Compressor: filter.Config{"id": "lz4"},
	}, nil))
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	d, _ := back.Dataset("padded")
	arr := d.Data.(*store.Array)
	require.Equal(t, []int{2}, arr.Chunks())
	vals, err := arr.Read()
	require.NoError(t, err)
	require.Equal(t, []any{1.0, 2.0, 3.0, -1.0, -1.0, -1.0}, vals)
	require.True(t, d.Chunked)
}

func TestLinkAndCopyArrays(t *testing.T) {
	srcLoc := tempStore(t)
	src := builder.NewRoot()
	src.SetDataset(builder.NewDataset("values", []int16{4, 5, 6}, nil))
	writeTree(t, srcLoc, src)

	srcSession, srcRoot := readTree(t, srcLoc)
	values, _ := srcRoot.Dataset("values")
	arr := values.Data.(*store.Array)
	require.Equal(t, srcSession.Source(), values.Source())

	dstLoc := tempStore(t)
	dst := builder.NewRoot()
	dst.SetDataset(builder.NewDataset("linked", arr, nil))
	dst.SetDataset(builder.NewDataset("copied", NewDataIO(arr).WithLink(false), nil))
	writeTree(t, dstLoc, dst)

	z, back := readTree(t, dstLoc)
	_, ok := back.Dataset("linked")
	require.False(t, ok)
	link, ok := back.Link("linked")
	require.True(t, ok)
	target := link.Target().(*builder.DatasetBuilder)
	require.Equal(t, srcLoc, target.Source())

	copied, ok := back.Dataset("copied")
	require.True(t, ok)
	require.Equal(t, z.Source(), copied.Source())
	vals, err := copied.Data.(*store.Array).Read()
	require.NoError(t, err)
	require.Equal(t, []any{int16(4), int16(5), int16(6)}, vals)
}

func TestAttributeValues(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	g := root.SetGroup(builder.NewGroup("g"))
	g.SetAttribute("raw", []byte("bytes become text"))
	g.SetAttribute("floats", []float64{0.5, 1.5})
	g.SetAttribute("nested", [][]int{{1, 2}, {3}})
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	rg, _ := back.Group("g")
	require.Equal(t, "bytes become text", rg.Attributes()["raw"])
	require.Equal(t, []any{0.5, 1.5}, rg.Attributes()["floats"])
	require.Equal(t, []any{[]any{int64(1), int64(2)}, []any{int64(3)}}, rg.Attributes()["nested"])
}

func TestAttributeError(t *testing.T) {
	root := builder.NewRoot()
	g := root.SetGroup(builder.NewGroup("g"))
	g.SetAttribute("callback", func() {})

	z, err := Open(tempStore(t), "w")
	require.NoError(t, err)
	defer z.Close()
	err = z.WriteBuilder(context.Background(), root)
	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
	require.Equal(t, "callback", attrErr.Key)
	require.ErrorIs(t, err, store.ErrUnserializable)
	require.Contains(t, err.Error(), "func()")
}

func TestEmptyDataCannotBeTyped(t *testing.T) {
	root := builder.NewRoot()
	root.SetDataset(builder.NewDataset("empty", []any{}, nil))

	z, err := Open(tempStore(t), "w")
	require.NoError(t, err)
	defer z.Close()
	err = z.WriteBuilder(context.Background(), root)
	require.ErrorIs(t, err, datatype.ErrUnresolvedType)
	require.Contains(t, err.Error(), "could not determine type")
}

func TestObjectCodecs(t *testing.T) {
	for _, codec := range []string{store.JSONCodecID, store.CBORCodecID} {
		t.Run(codec, func(t *testing.T) {
			loc := tempStore(t)
			root := builder.NewRoot()
			g := root.SetGroup(builder.NewGroup("g"))
			root.SetDataset(builder.NewDataset("refs", []builder.Builder{g}, nil))
			root.SetDataset(builder.NewDataset("words", []string{"alpha", "beta"}, nil))

			z, err := Open(loc, "w", WithObjectCodec(codec))
			require.NoError(t, err)
			require.NoError(t, z.WriteBuilder(context.Background(), root))
			z.Close()

			_, back := readTree(t, loc)
			rg, _ := back.Group("g")
			refs, _ := back.Dataset("refs")
			got, err := refs.Data.(*ReferenceView).Index(0)
			require.NoError(t, err)
			require.Same(t, rg, got)

			words, _ := back.Dataset("words")
			vals, err := words.Data.(*store.Array).Read()
			require.NoError(t, err)
			require.Equal(t, []any{"alpha", "beta"}, vals)
		})
	}
}

func TestAttributeFloatsKeepType(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	g := root.SetGroup(builder.NewGroup("g"))
	g.SetAttribute("rate", 2.0)
	g.SetAttribute("rates", []float64{1, 2})
	g.SetAttribute("missing", math.NaN())
	g.SetAttribute("bounds", []float64{math.Inf(-1), 0.5, math.Inf(1)})
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	rg, _ := back.Group("g")
	require.Equal(t, 2.0, rg.Attributes()["rate"])
	require.Equal(t, []any{1.0, 2.0}, rg.Attributes()["rates"])
	require.Equal(t, "NaN", rg.Attributes()["missing"])
	require.Equal(t, []any{"-Infinity", 0.5, "Infinity"}, rg.Attributes()["bounds"])
}

func TestDeclaredPrimitiveByteSlices(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	root.SetDataset(builder.NewDataset("u8", []uint8{1, 2}, "uint8"))
	root.SetDataset(builder.NewDataset("blob", []byte("abc"), "bytes"))
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	u8, _ := back.Dataset("u8")
	require.Equal(t, datatype.Primitive{Kind: datatype.Uint8}, u8.Dtype)
	vals, err := u8.Data.(*store.Array).Read()
	require.NoError(t, err)
	require.Equal(t, []any{uint8(1), uint8(2)}, vals)

	blob, _ := back.Dataset("blob")
	require.Equal(t, datatype.Bytes{}, blob.Dtype)
	require.Equal(t, []byte("abc"), blob.Data)
}

func TestSharedBuildersWrittenOnce(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	first := root.SetGroup(builder.NewGroup("first"))
	second := root.SetGroup(builder.NewGroup("second"))
	shared := builder.NewDataset("shared", []int32{7}, nil)
	first.SetDataset(shared)
	second.SetDataset(shared)
	alias := root.SetLink(builder.NewLink("alias", first))

	z, err := Open(loc, "w")
	require.NoError(t, err)
	defer z.Close()
	ctx := context.Background()
	require.NoError(t, z.WriteBuilder(ctx, root))

	// Only the first visit creates the array.
	rfirst, err := z.Root().OpenGroup("first")
	require.NoError(t, err)
	rsecond, err := z.Root().OpenGroup("second")
	require.NoError(t, err)
	require.NotEqual(t, rfirst.Contains("shared"), rsecond.Contains("shared"))

	// A second tree reusing written builders adds nothing.
	again := builder.NewRoot()
	again.SetLink(alias)
	again.SetDataset(shared)
	require.NoError(t, z.WriteBuilder(ctx, again))
	require.False(t, z.Root().Contains("shared"))

	links, _, err := z.Root().Attrs().Get(LinkAttr)
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestCrossFileReferences(t *testing.T) {
	otherLoc := tempStore(t)
	other := newRootWithID()
	units := other.SetGroup(builder.NewGroup("units"))
	unitsID := builder.NewObjectID()
	units.SetAttribute(builder.ObjectIDKey, unitsID)
	writeTree(t, otherLoc, other)
	otherID, _ := other.ObjectID()

	_, otherBack := readTree(t, otherLoc)
	runits, _ := otherBack.Group("units")
	require.Equal(t, otherLoc, runits.Source())

	loc := tempStore(t)
	root := newRootWithID()
	root.SetDataset(builder.NewDataset("refs", []builder.Builder{runits}, nil))
	writeTree(t, loc, root)

	raw, err := store.OpenConsolidated(loc, store.ModeRead)
	require.NoError(t, err)
	arr, err := raw.OpenArray("refs")
	require.NoError(t, err)
	recs, err := arr.Read()
	require.NoError(t, err)
	rec := recs[0].(map[string]any)
	require.NotEqual(t, ".", rec["source"])
	require.Equal(t, "/units", rec["path"])
	require.Equal(t, unitsID, rec["object_id"])
	require.Equal(t, otherID, rec["source_object_id"])

	_, back := readTree(t, loc)
	refs, _ := back.Dataset("refs")
	got, err := refs.Data.(*ReferenceView).Index(0)
	require.NoError(t, err)
	target := got.(*builder.GroupBuilder)
	id, ok := target.ObjectID()
	require.True(t, ok)
	require.Equal(t, unitsID, id)
	require.Equal(t, otherLoc, target.Source())
}

func TestCompoundNonFiniteFloats(t *testing.T) {
	loc := tempStore(t)
	root := builder.NewRoot()
	layout := []datatype.FieldSpec{{Name: "v", Dtype: "float64"}, {Name: "lbl", Dtype: "text"}}
	root.SetDataset(builder.NewDataset("t", [][]any{
		{math.NaN(), "a"},
		{1.5, "b"},
		{math.Inf(-1), "c"},
	}, layout))
	writeTree(t, loc, root)

	_, back := readTree(t, loc)
	d, _ := back.Dataset("t")
	rows, err := d.Data.(*TableView).Slice()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	first := rows[0].([]any)
	require.True(t, math.IsNaN(first[0].(float64)))
	require.Equal(t, "a", first[1])
	require.Equal(t, []any{1.5, "b"}, rows[1])
	require.Equal(t, []any{math.Inf(-1), "c"}, rows[2])
}
