// Package chunkqueue materializes incrementally-produced arrays.
//
// Writers enqueue (array, iterator) pairs while they traverse a tree and
// drain the queue at a synchronization point. Items are written
// concurrently, one goroutine per item up to the configured job count;
// the chunks of a single item are written in iterator order.
package chunkqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/internal/layout"
)

// Target is the array a queued iterator is written into.
type Target interface {
	Path() string
	WriteBlock(start, stop []int, values []any) error
}

type item struct {
	target Target
	iter   builder.ChunkIterator
}

// Queue is a FIFO of pending chunked writes. It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	items  []item
	jobs   int
	logger *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithJobs bounds the number of items written at once. Values below one
// mean one.
func WithJobs(n int) Option {
	return func(q *Queue) {
		q.jobs = max(n, 1)
	}
}

// WithLogger sets the logger receiving per-item debug records.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// New returns an empty queue writing one item at a time.
func New(opts ...Option) *Queue {
	q := &Queue{jobs: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue records that iter must be written into target.
func (q *Queue) Enqueue(target Target, iter builder.ChunkIterator) {
	q.mu.Lock()
	q.items = append(q.items, item{target: target, iter: iter})
	q.mu.Unlock()
	q.logger.Debug("queued chunked write", "array", target.Path())
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain writes every pending item and empties the queue. When Drain
// returns nil every enqueued array is fully written. On error the
// remaining items are dropped and the first error is returned.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	if len(items) == 0 {
		return nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(q.jobs)
	for _, it := range items {
		it := it
		eg.Go(func() error {
			return q.write(ctx, it)
		})
	}
	return eg.Wait()
}

func (q *Queue) write(ctx context.Context, it item) error {
	chunks := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := it.iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("producing chunk %d of %s: %w", chunks, it.target.Path(), err)
		}
		values, err := layout.Values(chunk.Data)
		if err != nil {
			return fmt.Errorf("chunk %d of %s: %w", chunks, it.target.Path(), err)
		}
		if err := it.target.WriteBlock(chunk.Start, chunk.Stop, values); err != nil {
			return fmt.Errorf("writing chunk %d of %s: %w", chunks, it.target.Path(), err)
		}
		chunks++
	}
	q.logger.Debug("wrote chunked array", "array", it.target.Path(), "chunks", chunks)
	return nil
}
