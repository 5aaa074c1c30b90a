package chunkqueue

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/internal/layout"
)

// recorder collects written blocks into a flat slice of the full shape.
type recorder struct {
	mu     sync.Mutex
	path   string
	shape  []int
	values []any
	blocks int
	fail   error
}

func newRecorder(path string, shape ...int) *recorder {
	return &recorder{path: path, shape: shape, values: make([]any, layout.Len(shape))}
}

func (r *recorder) Path() string { return r.path }

func (r *recorder) WriteBlock(start, stop []int, values []any) error {
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g := &layout.Grid{Shape: r.shape, Chunks: r.shape}
	g.CopyIn(r.values, make([]int, len(r.shape)), values, start, stop)
	r.blocks++
	return nil
}

func floats(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestDrainWritesEverything(t *testing.T) {
	q := New(WithJobs(4))

	var recs []*recorder
	for _, name := range []string{"a", "b", "c"} {
		it, err := builder.NewSliceIterator(floats(100*10), []int{100, 10}, 7, "float64")
		if err != nil {
			t.Fatalf("NewSliceIterator failed: %v", err)
		}
		r := newRecorder(name, 100, 10)
		recs = append(recs, r)
		q.Enqueue(r, it)
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	if err := q.Drain(context.Background()); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after Drain: %d", q.Len())
	}

	for _, r := range recs {
		if r.blocks != 15 {
			t.Errorf("%s: %d blocks written, want 15", r.path, r.blocks)
		}
		for i, v := range r.values {
			if v != float64(i) {
				t.Fatalf("%s: element %d = %v", r.path, i, v)
			}
		}
	}
}

func TestDrainEmpty(t *testing.T) {
	if err := New().Drain(context.Background()); err != nil {
		t.Errorf("Drain on empty queue: %v", err)
	}
}

func TestDrainReportsFirstError(t *testing.T) {
	boom := errors.New("disk full")
	q := New()

	it, _ := builder.NewSliceIterator([]int{1, 2, 3}, []int{3}, 1, "int")
	bad := newRecorder("bad", 3)
	bad.fail = boom
	q.Enqueue(bad, it)

	err := q.Drain(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
	if q.Len() != 0 {
		t.Error("failed items must not stay queued")
	}
}

func TestDrainCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := New()
	it, _ := builder.NewSliceIterator([]int{1, 2}, []int{2}, 1, "int")
	q.Enqueue(newRecorder("x", 2), it)
	if err := q.Drain(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDrainConvertsTypedChunks(t *testing.T) {
	q := New()
	it, _ := builder.NewSliceIterator([]string{"x", "y", "z", "w"}, []int{2, 2}, 1, "text")
	r := newRecorder("s", 2, 2)
	q.Enqueue(r, it)
	if err := q.Drain(context.Background()); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if !reflect.DeepEqual(r.values, []any{"x", "y", "z", "w"}) {
		t.Errorf("values = %v", r.values)
	}
}
