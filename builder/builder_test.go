package builder

import (
	"errors"
	"io"
	"testing"
)

func TestGroupChildrenSorted(t *testing.T) {
	root := NewRoot()
	root.SetGroup(NewGroup("zeta"))
	root.SetGroup(NewGroup("alpha"))
	root.SetDataset(NewDataset("b", []int32{1}, nil))
	root.SetDataset(NewDataset("a", []int32{1}, nil))

	groups := root.Groups()
	if len(groups) != 2 || groups[0].Name() != "alpha" || groups[1].Name() != "zeta" {
		t.Fatalf("unexpected group order: %v", groups)
	}
	datasets := root.Datasets()
	if datasets[0].Name() != "a" || datasets[1].Name() != "b" {
		t.Fatalf("unexpected dataset order")
	}
	if groups[0].Parent() != root {
		t.Error("SetGroup did not set parent")
	}
}

func TestRoot(t *testing.T) {
	root := NewRoot()
	g := root.SetGroup(NewGroup("acq"))
	d := g.SetDataset(NewDataset("data", 1.0, "float64"))

	got, ok := Root(d)
	if !ok || got != root {
		t.Fatalf("Root(d) = %v, %v", got, ok)
	}

	orphan := NewGroup("orphan")
	if _, ok := Root(orphan); ok {
		t.Error("expected no root for orphan builder")
	}
}

func TestTargetFollowsOneLink(t *testing.T) {
	d := NewDataset("d", 1, nil)
	l1 := NewLink("l1", d)
	l2 := NewLink("l2", l1)

	if Target(l1) != d {
		t.Error("Target(l1) should be the dataset")
	}
	if Target(l2) != l1 {
		t.Error("Target should follow exactly one level")
	}
	if Target(d) != d {
		t.Error("Target of a non-link is itself")
	}
}

func TestObjectID(t *testing.T) {
	g := NewGroup("g")
	if _, ok := g.ObjectID(); ok {
		t.Error("unexpected object id")
	}
	id := NewObjectID()
	g.SetAttribute(ObjectIDKey, id)
	got, ok := g.ObjectID()
	if !ok || got != id {
		t.Errorf("ObjectID = %q, %v", got, ok)
	}
}

func TestSliceIterator(t *testing.T) {
	data := make([]float64, 12)
	for i := range data {
		data[i] = float64(i)
	}
	it, err := NewSliceIterator(data, []int{6, 2}, 4, "float64")
	if err != nil {
		t.Fatalf("NewSliceIterator failed: %v", err)
	}
	if cs := it.RecommendedChunkShape(); cs[0] != 4 || cs[1] != 2 {
		t.Errorf("chunk shape = %v", cs)
	}

	c1, err := it.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if c1.Start[0] != 0 || c1.Stop[0] != 4 || len(c1.Data.([]float64)) != 8 {
		t.Errorf("first chunk = %+v", c1)
	}
	c2, err := it.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if c2.Start[0] != 4 || c2.Stop[0] != 6 || c2.Data.([]float64)[0] != 8 {
		t.Errorf("second chunk = %+v", c2)
	}
	if _, err := it.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestSliceIteratorShapeMismatch(t *testing.T) {
	if _, err := NewSliceIterator([]int32{1, 2, 3}, []int{2, 2}, 1, nil); err == nil {
		t.Error("expected shape mismatch error")
	}
}
