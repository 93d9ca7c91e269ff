// Package config loads loom's small CLI configuration file, a YAML file
// whose path the CLI takes from --config: which Datalog engine strategy
// to use, how long a synthesis run may take before timing out, how large
// a sketch may grow
// before the PBN controller gives up, and which telemetry categories are
// enabled. A single source of truth, loaded once, with defaults applied
// for anything the file omits or for when the file does not exist at
// all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineStrategy selects which internal/mangleengine.Engine the oracle
// loads.
type EngineStrategy string

const (
	// StrategyCached pushes/pops a store snapshot around each query.
	StrategyCached EngineStrategy = "cached"
	// StrategyUncached re-evaluates the full program text on each query.
	StrategyUncached EngineStrategy = "uncached"
)

// Config is loom's CLI-level configuration.
type Config struct {
	// Engine selects the Datalog engine strategy. Defaults to "cached".
	Engine EngineStrategy `yaml:"engine"`

	// QueryTimeout bounds a whole synthesis run: the CLI builds one timer
	// from it per run. Zero means no timeout (an Infinite timer.Timer).
	// Defaults to 10s.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// MaxSketchSize bounds the sketch.Size (App and Hole nodes) a PBN any-search will grow
	// a sketch to before giving up with timer.ErrOutOfMemory. Defaults to
	// 256.
	MaxSketchSize int `yaml:"max_sketch_size"`

	// Categories lists the telemetry categories to enable; nil means all
	// categories are enabled.
	Categories []string `yaml:"categories"`
}

// Default returns loom's built-in configuration defaults.
func Default() Config {
	return Config{
		Engine:        StrategyCached,
		QueryTimeout:  10 * time.Second,
		MaxSketchSize: 256,
	}
}

// Load reads a Config from path, a YAML file, applying Default() for any
// field the file leaves at its zero value. A missing file is not an
// error: Load returns Default() unchanged, since an empty config is a
// valid config.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if fromFile.Engine != "" {
		cfg.Engine = fromFile.Engine
	}
	if fromFile.QueryTimeout != 0 {
		cfg.QueryTimeout = fromFile.QueryTimeout
	}
	if fromFile.MaxSketchSize != 0 {
		cfg.MaxSketchSize = fromFile.MaxSketchSize
	}
	if fromFile.Categories != nil {
		cfg.Categories = fromFile.Categories
	}
	return cfg, nil
}

// CategoryEnabled reports whether cat is enabled under this config: every
// category is enabled when Categories is nil, otherwise only the ones
// named.
func (c Config) CategoryEnabled(cat string) bool {
	if c.Categories == nil {
		return true
	}
	for _, c := range c.Categories {
		if c == cat {
			return true
		}
	}
	return false
}
