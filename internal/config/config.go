// Package config loads the YAML configuration of the zarrio command-line
// tools.
//
// Configuration is read from a single file named by:
//   - the --config flag passed to the command, or
//   - the ZARRIO_CONFIG environment variable
//
// With neither, the defaults returned by Default are used.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-zarrio/internal/filter"
	"github.com/robert-malhotra/go-zarrio/store"
	"github.com/robert-malhotra/go-zarrio/zarrio"
)

// EnvVar names the configuration file when no path is given.
const EnvVar = "ZARRIO_CONFIG"

// Config is the configuration of a zarrio session.
type Config struct {
	// ObjectCodec is the element codec of object-coded arrays: json2 or cbor.
	// Default: json2
	ObjectCodec string `yaml:"object_codec"`

	// Compressor configures array compression. An empty ID disables it.
	Compressor CompressorConfig `yaml:"compressor"`

	// Jobs is how many chunked arrays are written concurrently.
	// Default: 1
	Jobs int `yaml:"jobs"`

	// Consolidate writes .zmetadata after every write.
	// Default: true
	Consolidate bool `yaml:"consolidate"`

	// LinkData links arrays of other stores instead of copying them.
	// Default: true
	LinkData bool `yaml:"link_data"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`
}

// CompressorConfig selects a compressor.
type CompressorConfig struct {
	// ID is zlib, zstd or lz4.
	ID string `yaml:"id"`

	// Level is the compression level; zero means the codec default.
	Level int `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ObjectCodec: store.JSONCodecID,
		Jobs:        1,
		Consolidate: true,
		LinkData:    true,
		LogLevel:    "info",
	}
}

// Load loads the file named by ZARRIO_CONFIG, or returns the defaults when
// the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.ObjectCodec {
	case store.JSONCodecID, store.CBORCodecID:
	default:
		return fmt.Errorf("unknown object_codec %q", c.ObjectCodec)
	}
	switch c.Compressor.ID {
	case "", filter.ZlibID, filter.ZstdID, filter.LZ4ID:
	default:
		return fmt.Errorf("unknown compressor %q", c.Compressor.ID)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", s)
}

// Logger returns a text logger writing to stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SessionOptions returns the session options the configuration selects.
func (c *Config) SessionOptions(logger *slog.Logger) []zarrio.Option {
	opts := []zarrio.Option{
		zarrio.WithLogger(logger),
		zarrio.WithObjectCodec(c.ObjectCodec),
		zarrio.WithJobs(c.Jobs),
	}
	if cc := c.Compressor.config(); cc != nil {
		opts = append(opts, zarrio.WithCompressor(cc))
	}
	return opts
}

// WriteOptions returns the write options the configuration selects.
func (c *Config) WriteOptions() []zarrio.WriteOption {
	return []zarrio.WriteOption{
		zarrio.Consolidate(c.Consolidate),
		zarrio.LinkData(c.LinkData),
	}
}

func (c CompressorConfig) config() filter.Config {
	if c.ID == "" {
		return nil
	}
	cfg := filter.Config{"id": c.ID}
	if c.Level != 0 {
		cfg["level"] = c.Level
	}
	return cfg
}
