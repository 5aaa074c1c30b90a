package store

import (
	"fmt"
	"net/http"
	"strings"
)

// Mode is a zarr open mode.
type Mode string

// Open modes.
const (
	// ModeRead opens an existing hierarchy read-only.
	ModeRead Mode = "r"
	// ModeReadWrite opens an existing hierarchy for update.
	ModeReadWrite Mode = "r+"
	// ModeAppend opens or creates a hierarchy for update.
	ModeAppend Mode = "a"
	// ModeWrite creates a hierarchy, removing anything already there.
	ModeWrite Mode = "w"
	// ModeCreate creates a hierarchy, failing if one exists.
	ModeCreate Mode = "w-"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeRead, ModeReadWrite, ModeAppend, ModeWrite, ModeCreate:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Writable reports whether m permits writes.
func (m Mode) Writable() bool {
	return m != ModeRead
}

// Option configures how a store is opened.
type Option func(*options)

type options struct {
	sync    Synchronizer
	headers map[string]string
	client  *http.Client
}

// WithSynchronizer serializes chunk and attribute updates through s.
func WithSynchronizer(s Synchronizer) Option {
	return func(o *options) {
		o.sync = s
	}
}

// WithStorageOptions passes backend options to remote stores. For HTTP
// stores every entry is sent as a request header.
func WithStorageOptions(opts map[string]string) Option {
	return func(o *options) {
		o.headers = opts
	}
}

// WithHTTPClient sets the client used by HTTP stores.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IsRemote reports whether location is a URL rather than a local path.
func IsRemote(location string) bool {
	return strings.Contains(location, "://")
}

// NewStore returns the backend for location: memory:// locations map to
// in-process stores, http(s):// to read-only HTTP stores, and anything else
// to a local directory.
func NewStore(location string, opts ...Option) (Store, error) {
	o := applyOptions(opts)
	switch {
	case strings.HasPrefix(location, MemoryScheme):
		return NewMemoryStore(location), nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPStore(location, o.client, o.headers), nil
	case IsRemote(location):
		return nil, fmt.Errorf("unsupported store scheme in %q", location)
	}
	return NewDirectoryStore(location)
}

// Open opens the hierarchy at location and returns its root group.
func Open(location string, mode Mode, opts ...Option) (*Group, error) {
	st, err := NewStore(location, opts...)
	if err != nil {
		return nil, err
	}
	return OpenStore(st, mode, opts...)
}

// OpenStore opens the hierarchy held by st.
func OpenStore(st Store, mode Mode, opts ...Option) (*Group, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	exists, err := hasKey(st, GroupKey)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeRead, ModeReadWrite:
		if !exists {
			return nil, fmt.Errorf("%w: no zarr group at %s", ErrNotFound, st.Location())
		}
	case ModeAppend:
		if !exists {
			if err := writeGroupMeta(st, ""); err != nil {
				return nil, err
			}
		}
	case ModeWrite:
		if err := clearStore(st); err != nil {
			return nil, err
		}
		if err := writeGroupMeta(st, ""); err != nil {
			return nil, err
		}
	case ModeCreate:
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrExists, st.Location())
		}
		if ok, err := hasKey(st, ArrayKey); err != nil {
			return nil, err
		} else if ok {
			return nil, fmt.Errorf("%w: %s", ErrExists, st.Location())
		}
		if err := writeGroupMeta(st, ""); err != nil {
			return nil, err
		}
	}

	return newGroup(st, "", o.sync, mode == ModeRead || st.ReadOnly()), nil
}

func hasKey(st Store, key string) (bool, error) {
	_, err := st.Get(key)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func clearStore(st Store) error {
	if st.ReadOnly() {
		return fmt.Errorf("%w: %s", ErrReadOnly, st.Location())
	}
	if c, ok := st.(clearer); ok {
		return c.Clear()
	}
	keys, err := st.List("")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := st.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
