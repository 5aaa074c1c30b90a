package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ConsolidatedStore serves metadata documents from a .zmetadata index and
// everything else from the wrapped store.
type ConsolidatedStore struct {
	Store
	mu   sync.RWMutex
	meta map[string]json.RawMessage
}

// NewConsolidatedStore reads the .zmetadata document of inner.
func NewConsolidatedStore(inner Store) (*ConsolidatedStore, error) {
	data, err := inner.Get(ConsolidatedKey)
	if err != nil {
		return nil, err
	}
	var doc consolidatedMeta
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConsolidatedKey, err)
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]json.RawMessage)
	}
	return &ConsolidatedStore{Store: inner, meta: doc.Metadata}, nil
}

func (s *ConsolidatedStore) Get(key string) ([]byte, error) {
	if !isMetaKey(key) {
		return s.Store.Get(key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.meta[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

// Set writes through to the wrapped store and keeps the index current.
func (s *ConsolidatedStore) Set(key string, value []byte) error {
	if err := s.Store.Set(key, value); err != nil {
		return err
	}
	if isMetaKey(key) {
		s.mu.Lock()
		s.meta[key] = append(json.RawMessage(nil), value...)
		s.mu.Unlock()
	}
	return nil
}

func (s *ConsolidatedStore) Delete(key string) error {
	if err := s.Store.Delete(key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.meta, key)
	s.mu.Unlock()
	return nil
}

// List returns the indexed metadata keys under prefix. Chunk keys are not
// indexed.
func (s *ConsolidatedStore) List(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.meta {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// OpenConsolidated opens the hierarchy at location through its .zmetadata
// index, falling back to a plain Open when the index is absent. Modes that
// create or replace the hierarchy always open plainly.
func OpenConsolidated(location string, mode Mode, opts ...Option) (*Group, error) {
	if mode != ModeRead && mode != ModeReadWrite {
		return Open(location, mode, opts...)
	}
	st, err := NewStore(location, opts...)
	if err != nil {
		return nil, err
	}
	cs, err := NewConsolidatedStore(st)
	if err != nil {
		if isNotFound(err) {
			return OpenStore(st, mode, opts...)
		}
		return nil, err
	}
	return OpenStore(cs, mode, opts...)
}

// Consolidate writes the .zmetadata index of the hierarchy at location.
func Consolidate(location string, opts ...Option) error {
	st, err := NewStore(location, opts...)
	if err != nil {
		return err
	}
	return ConsolidateStore(st)
}

// ConsolidateStore indexes every metadata document of st in .zmetadata.
func ConsolidateStore(st Store) error {
	keys, err := st.List("")
	if err != nil {
		return fmt.Errorf("consolidating %s: %w", st.Location(), err)
	}
	doc := consolidatedMeta{
		Metadata:               make(map[string]json.RawMessage),
		ZarrConsolidatedFormat: 1,
	}
	for _, k := range keys {
		if !isMetaKey(k) {
			continue
		}
		data, err := st.Get(k)
		if err != nil {
			return fmt.Errorf("consolidating %s: %w", k, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("consolidating %s: invalid JSON", k)
		}
		doc.Metadata[k] = data
	}
	data, err := encodeMeta(doc)
	if err != nil {
		return err
	}
	return st.Set(ConsolidatedKey, data)
}
