// Package config loads the configuration file used by structkit-inspect.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Engine identifies the storage engine that holds the data being inspected.
type Engine string

const (
	// Pebble is the engine implemented by the pebblestore package.
	Pebble Engine = "pebble"

	// Badger is the engine implemented by the badgerstore package.
	Badger Engine = "badger"
)

// Compression is the block compression used by the engine.
type Compression string

const (
	// NoCompression disables compression.
	NoCompression Compression = "none"

	// Snappy selects Snappy compression.
	Snappy Compression = "snappy"

	// Zstd selects Zstandard compression.
	Zstd Compression = "zstd"
)

// Config is the top-level configuration.
type Config struct {
	Engine      Engine      `yaml:"engine"`
	Path        string      `yaml:"path"`
	Compression Compression `yaml:"compression"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine:      Pebble,
		Compression: Snappy,
	}
}

// Load reads the configuration file at path.
//
// Fields that are absent from the file keep their default values. The result
// is not validated, as the caller may still override some fields.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse decodes YAML data into cfg.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unable to parse config YAML: %w", err)
	}

	cfg.Engine = ParseEngine(string(cfg.Engine))
	cfg.Compression = Compression(strings.ToLower(string(cfg.Compression)))

	return nil
}

// ParseEngine returns the [Engine] named by s, ignoring case.
func ParseEngine(s string) Engine {
	return Engine(strings.ToLower(s))
}

// Validate returns an error if c is not usable.
func (c Config) Validate() error {
	switch c.Engine {
	case Pebble, Badger:
	default:
		return fmt.Errorf("unsupported engine %q, expected %q or %q", c.Engine, Pebble, Badger)
	}

	switch c.Compression {
	case NoCompression, Snappy, Zstd:
	default:
		return fmt.Errorf("unsupported compression %q", c.Compression)
	}

	if c.Path == "" {
		return errors.New("path must not be empty")
	}

	return nil
}
