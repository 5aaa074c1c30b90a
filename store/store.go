// Package store implements a zarr v2 hierarchy of groups, chunked arrays
// and JSON attributes over pluggable key/value stores.
package store

import (
	"errors"
	"path"
	"sort"
	"strings"
)

// Reserved metadata keys.
const (
	GroupKey        = ".zgroup"
	ArrayKey        = ".zarray"
	AttrsKey        = ".zattrs"
	ConsolidatedKey = ".zmetadata"
)

// Store is a flat key/value namespace with "/"-separated keys.
type Store interface {
	// Get returns the value of key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// List returns every key that starts with prefix, sorted.
	List(prefix string) ([]string, error)

	// Location returns the path or URL the store was opened from.
	Location() string

	// ReadOnly reports whether Set and Delete are rejected.
	ReadOnly() bool
}

// clearer is implemented by stores that can drop all keys at once.
type clearer interface {
	Clear() error
}

// joinKey joins key components, dropping empty ones.
func joinKey(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// cleanPath normalizes a node path to "a/b" form; the root is "".
func cleanPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// isMetaKey reports whether key names a metadata document.
func isMetaKey(key string) bool {
	base := path.Base(key)
	return base == GroupKey || base == ArrayKey || base == AttrsKey
}

// children returns the sorted names of the immediate children below prefix
// that own a document named doc. prefix is "" or ends in "/".
func children(keys []string, prefix, doc string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		parts := strings.Split(k[len(prefix):], "/")
		if len(parts) == 2 && parts[1] == doc && !seen[parts[0]] {
			seen[parts[0]] = true
			names = append(names, parts[0])
		}
	}
	sort.Strings(names)
	return names
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
