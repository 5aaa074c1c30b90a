// Package registry computes canonical in-store paths of builders and
// tracks which builders a session has written or read.
package registry

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/robert-malhotra/go-zarrio/builder"
)

// ErrNotWritten is returned by Check for builders the session has not
// touched.
var ErrNotWritten = errors.New("builder not written")

// PathOf returns the absolute in-store path of b. An explicit location is
// joined with the name; otherwise the names of the parent chain up to the
// root builder are joined. The root itself maps to "/".
func PathOf(b builder.Builder) string {
	if loc, ok := b.Location(); ok {
		p := path.Clean("/" + strings.ReplaceAll(path.Join(loc, b.Name()), "\\", "/"))
		return p
	}
	var names []string
	var curr builder.Builder = b
	for curr != nil && curr.Name() != builder.RootName {
		names = append(names, curr.Name())
		p := curr.Parent()
		if p == nil {
			break
		}
		curr = p
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/")
}

// Tracker records per-builder completion for one session. Entries are keyed
// by builder identity, never by name or path.
type Tracker struct {
	written map[builder.Builder]bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{written: make(map[builder.Builder]bool)}
}

// IsWritten reports whether b has been written or read.
func (t *Tracker) IsWritten(b builder.Builder) bool {
	return t.written[b]
}

// SetWritten marks b as written. Marking twice is harmless.
func (t *Tracker) SetWritten(b builder.Builder) {
	t.written[b] = true
}

// Check returns ErrNotWritten if b has not been written.
func (t *Tracker) Check(b builder.Builder) error {
	if !t.written[b] {
		return fmt.Errorf("%w: %s", ErrNotWritten, PathOf(b))
	}
	return nil
}

// Len returns the number of builders marked written.
func (t *Tracker) Len() int {
	return len(t.written)
}

// Reset forgets every entry.
func (t *Tracker) Reset() {
	clear(t.written)
}
