package zarrio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/chunkqueue"
	"github.com/robert-malhotra/go-zarrio/internal/registry"
	"github.com/robert-malhotra/go-zarrio/store"
)

// ModeReadNoConsolidated opens a store read-only without consulting its
// consolidated metadata.
const ModeReadNoConsolidated = "r-"

// IO is one open session on a zarr store. A session is not safe for
// concurrent use: reads and writes traverse the tree on the calling
// goroutine, and only queued chunk writes fan out.
type IO struct {
	location string
	abspath  string
	mode     string
	remote   bool
	root     *store.Group
	closed   bool

	opts    *options
	logger  *slog.Logger
	queue   ChunkQueue
	tracker *registry.Tracker

	// built maps store location + node path to the builder read from it.
	built map[string]builder.Builder
	// external caches stores opened to resolve references into other files.
	external  map[string]*store.Group
	linkDepth int
}

// Open opens the store at location. mode is one of r, r-, r+, a, w, w-.
// Mode r opens through consolidated metadata when the store has it.
func Open(location, mode string, opts ...Option) (*IO, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	storeMode := mode
	if mode == ModeReadNoConsolidated {
		storeMode = string(store.ModeRead)
	}
	m, err := store.ParseMode(storeMode)
	if err != nil {
		return nil, err
	}

	z := &IO{
		location: location,
		abspath:  location,
		mode:     mode,
		remote:   store.IsRemote(location),
		opts:     o,
		logger:   o.logger,
		queue:    o.queue,
		tracker:  registry.NewTracker(),
		built:    make(map[string]builder.Builder),
		external: make(map[string]*store.Group),
	}
	if !z.remote {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", location, err)
		}
		z.abspath = abs
	}
	if z.queue == nil {
		z.queue = chunkqueue.New(chunkqueue.WithJobs(o.jobs), chunkqueue.WithLogger(o.logger))
	}

	if mode == string(store.ModeRead) {
		z.root, err = store.OpenConsolidated(location, m, o.storeOptions()...)
	} else {
		z.root, err = store.Open(location, m, o.storeOptions()...)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", location, err)
	}

	z.logger.Debug("opened store", "location", location, "mode", mode)
	return z, nil
}

// Close ends the session and forgets its registries.
func (z *IO) Close() error {
	if z.closed {
		return nil
	}
	z.closed = true
	z.built = nil
	z.external = nil
	z.tracker.Reset()
	return nil
}

// Location returns the location the session was opened with.
func (z *IO) Location() string { return z.location }

// AbsPath returns the absolute location of the store. Remote locations are
// returned unchanged.
func (z *IO) AbsPath() string { return z.abspath }

// Mode returns the open mode.
func (z *IO) Mode() string { return z.mode }

// IsRemote reports whether the store is addressed by URL.
func (z *IO) IsRemote() bool { return z.remote }

// Root returns the root group of the store.
func (z *IO) Root() *store.Group { return z.root }

// Source is the source recorded on builders read by this session.
func (z *IO) Source() string { return z.abspath }

func (z *IO) writable() bool {
	return z.mode != string(store.ModeRead) && z.mode != ModeReadNoConsolidated
}

func (z *IO) check() error {
	if z.closed {
		return ErrClosed
	}
	return nil
}

// CanRead reports whether location holds a readable zarr hierarchy.
func CanRead(location string, opts ...Option) bool {
	z, err := Open(location, string(store.ModeRead), opts...)
	if err != nil {
		return false
	}
	z.Close()
	return true
}

// IsZarrStore reports whether path is a local directory holding a zarr
// group.
func IsZarrStore(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(path, store.GroupKey))
	return err == nil
}
