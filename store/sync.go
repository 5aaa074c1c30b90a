package store

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/fslock"
)

// Synchronizer serializes read-modify-write cycles on individual keys.
// Lock blocks until key is held and returns the function releasing it.
type Synchronizer interface {
	Lock(key string) (unlock func(), err error)
}

// ThreadSynchronizer locks keys with one in-process mutex per key.
type ThreadSynchronizer struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewThreadSynchronizer returns an empty in-process synchronizer.
func NewThreadSynchronizer() *ThreadSynchronizer {
	return &ThreadSynchronizer{locks: make(map[string]*sync.Mutex)}
}

func (s *ThreadSynchronizer) Lock(key string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock, nil
}

// ProcessSynchronizer locks keys with lock files in a shared directory, so
// separate processes writing the same store serialize their updates.
type ProcessSynchronizer struct {
	dir     string
	timeout time.Duration
}

// NewProcessSynchronizer creates dir if needed and returns a synchronizer
// keeping its lock files there. A positive timeout bounds each Lock call.
func NewProcessSynchronizer(dir string, timeout time.Duration) (*ProcessSynchronizer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	return &ProcessSynchronizer{dir: dir, timeout: timeout}, nil
}

func (s *ProcessSynchronizer) Lock(key string) (func(), error) {
	l := fslock.New(filepath.Join(s.dir, lockFileName(key)))

	var err error
	if s.timeout > 0 {
		err = l.LockWithTimeout(s.timeout)
	} else {
		err = l.Lock()
	}
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", key, err)
	}
	return func() { l.Unlock() }, nil
}

// lockFileName maps a key to a file name; distinct keys get distinct names.
func lockFileName(key string) string {
	return url.PathEscape(key) + ".lock"
}

func lockKey(s Synchronizer, key string) (func(), error) {
	if s == nil {
		return func() {}, nil
	}
	return s.Lock(key)
}
