package zarrio

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/chunkqueue"
	"github.com/robert-malhotra/go-zarrio/internal/filter"
	"github.com/robert-malhotra/go-zarrio/store"
)

// ChunkQueue materializes chunk iterators. Enqueue records a pending write;
// after Drain returns nil every enqueued array is fully written.
type ChunkQueue interface {
	Enqueue(target chunkqueue.Target, iter builder.ChunkIterator)
	Drain(ctx context.Context) error
}

// Option configures a session.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	sync        store.Synchronizer
	objectCodec string
	compressor  filter.Config
	storageOpts map[string]string
	httpClient  *http.Client
	manager     builder.Manager
	queue       ChunkQueue
	jobs        int
}

func defaultOptions() *options {
	return &options{
		logger:      slog.Default(),
		objectCodec: store.JSONCodecID,
		jobs:        1,
	}
}

// WithLogger sets the session logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSynchronizer plumbs s to the store layer so that several sessions can
// update one store concurrently.
func WithSynchronizer(s store.Synchronizer) Option {
	return func(o *options) {
		o.sync = s
	}
}

// WithObjectCodec selects the element codec of object-coded arrays: "json2"
// (default) or "cbor".
func WithObjectCodec(id string) Option {
	return func(o *options) {
		o.objectCodec = id
	}
}

// WithCompressor sets the compressor of every array the session creates,
// for example {"id": "zstd", "level": 3}.
func WithCompressor(c filter.Config) Option {
	return func(o *options) {
		o.compressor = c
	}
}

// WithStorageOptions passes backend options to remote stores.
func WithStorageOptions(opts map[string]string) Option {
	return func(o *options) {
		o.storageOpts = opts
	}
}

// WithHTTPClient sets the client used for http(s) stores.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithManager sets the manager used by GetContainer and to build
// containers found in dataset data.
func WithManager(m builder.Manager) Option {
	return func(o *options) {
		o.manager = m
	}
}

// WithChunkQueue replaces the default chunk queue.
func WithChunkQueue(q ChunkQueue) Option {
	return func(o *options) {
		o.queue = q
	}
}

// WithJobs sets how many chunked arrays the default queue writes at once.
func WithJobs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.jobs = n
		}
	}
}

func (o *options) storeOptions() []store.Option {
	opts := []store.Option{store.WithSynchronizer(o.sync)}
	if o.storageOpts != nil {
		opts = append(opts, store.WithStorageOptions(o.storageOpts))
	}
	if o.httpClient != nil {
		opts = append(opts, store.WithHTTPClient(o.httpClient))
	}
	return opts
}

// WriteOption configures one Write, WriteBuilder or Export call.
type WriteOption func(*writeOptions)

type writeOptions struct {
	linkData     bool
	deferChunks  bool
	exportSource string
	consolidate  bool
	namespaces   []Namespace
}

func defaultWriteOptions() *writeOptions {
	return &writeOptions{
		linkData:    true,
		consolidate: true,
	}
}

// LinkData selects whether datasets backed by arrays of another store are
// linked (true, the default) or copied.
func LinkData(link bool) WriteOption {
	return func(o *writeOptions) {
		o.linkData = link
	}
}

// DeferChunks queues chunk iterators until the whole tree is written
// instead of draining after each dataset.
func DeferChunks() WriteOption {
	return func(o *writeOptions) {
		o.deferChunks = true
	}
}

// ExportSource marks the write as an export from source. Every reference
// written is made local to the new store.
func ExportSource(source string) WriteOption {
	return func(o *writeOptions) {
		o.exportSource = source
	}
}

// Consolidate selects whether .zmetadata is written after the tree (the
// default is true).
func Consolidate(consolidate bool) WriteOption {
	return func(o *writeOptions) {
		o.consolidate = consolidate
	}
}

// WithNamespaces caches the given namespace documents in the store.
func WithNamespaces(ns ...Namespace) WriteOption {
	return func(o *writeOptions) {
		o.namespaces = append(o.namespaces, ns...)
	}
}

func applyWriteOptions(opts []WriteOption) *writeOptions {
	o := defaultWriteOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DataIO wraps dataset data with per-dataset storage settings.
type DataIO struct {
	Data any
	// Chunks overrides the chunk shape.
	Chunks []int
	// Shape overrides the array shape, for example to preallocate.
	Shape      []int
	Compressor filter.Config
	Filters    []filter.Config
	FillValue  any
	// LinkData overrides the write-wide LinkData setting when non-nil.
	LinkData *bool
}

// NewDataIO wraps data with default settings.
func NewDataIO(data any) *DataIO {
	return &DataIO{Data: data}
}

// WithLink sets the LinkData override and returns d.
func (d *DataIO) WithLink(link bool) *DataIO {
	d.LinkData = &link
	return d
}
