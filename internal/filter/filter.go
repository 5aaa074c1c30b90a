package filter

import (
	"fmt"
	"sort"
)

// Filter is the interface implemented by all chunk codecs.
type Filter interface {
	// ID returns the codec identifier stored in .zarray.
	ID() string

	// Encode transforms chunk bytes to their stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored bytes back to chunk bytes.
	Decode(input []byte) ([]byte, error)

	// Config returns the JSON configuration of the codec, including "id".
	Config() Config
}

// Config is a codec configuration object. The "id" key names the codec.
type Config map[string]any

// ID returns the codec identifier, or "" when absent.
func (c Config) ID() string {
	id, _ := c["id"].(string)
	return id
}

// Int returns an integer parameter. JSON numbers decode as float64 or
// int64 depending on the decoder, so both are accepted.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Registry maps codec IDs to constructors.
var Registry = map[string]func(Config) (Filter, error){
	ZlibID:       func(c Config) (Filter, error) { return NewZlib(c.Int("level", 1)) },
	ZstdID:       func(c Config) (Filter, error) { return NewZstd(c.Int("level", 3)), nil },
	LZ4ID:        func(c Config) (Filter, error) { return NewLZ4(c.Int("acceleration", 1)), nil },
	ShuffleID:    func(c Config) (Filter, error) { return NewShuffle(c.Int("elementsize", 1)), nil },
	Fletcher32ID: func(Config) (Filter, error) { return NewFletcher32(), nil },
}

// New creates a codec from its configuration.
func New(cfg Config) (Filter, error) {
	constructor, ok := Registry[cfg.ID()]
	if !ok {
		return nil, fmt.Errorf("unsupported codec %q (supported: %v)", cfg.ID(), Names())
	}
	return constructor(cfg)
}

// Names returns the registered codec IDs in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for id := range Registry {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}
