package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryScheme is the location prefix of in-process stores.
const MemoryScheme = "memory://"

var memoryStores = struct {
	sync.Mutex
	byName map[string]*MemoryStore
}{byName: make(map[string]*MemoryStore)}

// MemoryStore is an in-process store addressed by a memory:// location.
// Stores with the same name share their contents for the life of the
// process.
type MemoryStore struct {
	name string
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns the shared store registered under name, creating
// it if needed.
func NewMemoryStore(name string) *MemoryStore {
	name = strings.Trim(strings.TrimPrefix(name, MemoryScheme), "/")
	memoryStores.Lock()
	defer memoryStores.Unlock()
	if s, ok := memoryStores.byName[name]; ok {
		return s
	}
	s := &MemoryStore{name: name, data: make(map[string][]byte)}
	memoryStores.byName[name] = s
	return s
}

// DropMemoryStore forgets the store registered under name.
func DropMemoryStore(name string) {
	name = strings.Trim(strings.TrimPrefix(name, MemoryScheme), "/")
	memoryStores.Lock()
	delete(memoryStores.byName, name)
	memoryStores.Unlock()
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear drops every key.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.data = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Location() string { return MemoryScheme + s.name }

func (s *MemoryStore) ReadOnly() bool { return false }
