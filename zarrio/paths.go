package zarrio

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/internal/registry"
	"github.com/robert-malhotra/go-zarrio/store"
)

// GetWritten reports whether b has been written or read in this session.
// With checkOnDisk the node must also exist in the store.
func (z *IO) GetWritten(b builder.Builder, checkOnDisk bool) bool {
	if !z.tracker.IsWritten(b) {
		return false
	}
	if checkOnDisk {
		return z.BuilderExistsOnDisk(b)
	}
	return true
}

// WrittenPath returns the in-store path of a builder this session has
// written, or ErrNotWritten.
func (z *IO) WrittenPath(b builder.Builder) (string, error) {
	if err := z.tracker.Check(b); err != nil {
		return "", err
	}
	return registry.PathOf(b), nil
}

// BuilderDiskPath returns where b lives: a filesystem path below the store
// directory, or the store URL joined with the node path.
func (z *IO) BuilderDiskPath(b builder.Builder) string {
	p := strings.TrimPrefix(registry.PathOf(b), "/")
	if z.remote {
		return strings.TrimRight(z.abspath, "/") + "/" + p
	}
	return filepath.Join(z.abspath, filepath.FromSlash(p))
}

// BuilderExistsOnDisk reports whether the node of b exists in the store.
func (z *IO) BuilderExistsOnDisk(b builder.Builder) bool {
	if z.remote {
		return z.root.Contains(registry.PathOf(b))
	}
	_, err := os.Stat(z.BuilderDiskPath(b))
	return err == nil
}

// ZarrPaths returns the store location and in-store path of node.
func ZarrPaths(node store.Node) (string, string) {
	return node.Store().Location(), node.Path()
}

// ParentPath returns the in-store path of node's parent. The root is its
// own parent.
func ParentPath(node store.Node) string {
	return path.Dir(node.Path())
}
