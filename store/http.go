package store

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPStore is a read-only store served over HTTP(S). Keys are fetched with
// GET relative to the base URL. HTTP servers cannot enumerate keys, so
// hierarchies served this way are normally opened consolidated.
type HTTPStore struct {
	base    string
	client  *http.Client
	headers map[string]string
}

// NewHTTPStore returns a store reading from base. headers are sent with
// every request; a nil client uses http.DefaultClient.
func NewHTTPStore(base string, client *http.Client, headers map[string]string) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{base: strings.TrimRight(base, "/"), client: client, headers: headers}
}

func (s *HTTPStore) Get(key string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, s.base+"/"+key, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", key, err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching %s: unexpected status %s", key, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (s *HTTPStore) Set(key string, value []byte) error {
	return fmt.Errorf("%w: %s", ErrReadOnly, s.base)
}

func (s *HTTPStore) Delete(key string) error {
	return fmt.Errorf("%w: %s", ErrReadOnly, s.base)
}

func (s *HTTPStore) List(prefix string) ([]string, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotListable, s.base)
}

func (s *HTTPStore) Location() string { return s.base }

func (s *HTTPStore) ReadOnly() bool { return true }
