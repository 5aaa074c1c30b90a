package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const tempPrefix = ".tmp-"

// DirectoryStore keeps every key as a file below a root directory.
type DirectoryStore struct {
	root string
}

// NewDirectoryStore returns a store rooted at dir. The directory is created
// lazily on the first write.
func NewDirectoryStore(dir string) (*DirectoryStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	return &DirectoryStore{root: abs}, nil
}

func (s *DirectoryStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *DirectoryStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isDirErr(s.path(key)) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func isDirErr(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// Set writes value to a temporary file and renames it into place so readers
// never observe a partial document.
func (s *DirectoryStore) Set(key string, value []byte) error {
	target := s.path(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming %s: %w", key, err)
	}
	return nil
}

func (s *DirectoryStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *DirectoryStore) List(prefix string) ([]string, error) {
	var keys []string
	start := s.root
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		start = s.path(prefix[:i])
	}
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes the root directory and everything below it.
func (s *DirectoryStore) Clear() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("clearing %s: %w", s.root, err)
	}
	return nil
}

func (s *DirectoryStore) Location() string { return s.root }

func (s *DirectoryStore) ReadOnly() bool { return false }
