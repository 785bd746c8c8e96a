// Package config loads sqlgraph CLI configuration.
//
// Values are layered: built-in defaults, then sqlgraph.yaml (found in the
// working directory or one of its parents), then SQLGRAPH_* environment
// variables, then explicitly set command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/sqlgraph/internal/engine"
	"github.com/leapstack-labs/sqlgraph/pkg/layout"
)

// Default configuration values.
const (
	DefaultStateFile   = ".sqlgraph/state.db"
	DefaultOutput      = "auto" // TTY=text, non-TTY=markdown
	DefaultInput       = "auto" // .json files are syntax trees
	DefaultConcurrency = 4
	DefaultPort        = 8787
	DefaultDebounceMS  = 100
)

// Config holds all CLI configuration options.
type Config struct {
	Output      string       `koanf:"output" validate:"oneof=auto text markdown json yaml dot mermaid"`
	Verbose     bool         `koanf:"verbose"`
	StatePath   string       `koanf:"state_path" validate:"required"`
	Input       string       `koanf:"input" validate:"oneof=auto sql json"`
	Conditions  bool         `koanf:"conditions"`
	Concurrency int          `koanf:"concurrency" validate:"min=1,max=256"`
	Layout      LayoutConfig `koanf:"layout"`
	Serve       ServeConfig  `koanf:"serve"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// LayoutConfig holds diagram layout constants.
type LayoutConfig struct {
	HorizontalSpacing float64 `koanf:"horizontal_spacing" validate:"gt=0"`
	BaseNodeHeight    float64 `koanf:"base_node_height" validate:"gte=0"`
	HeightPerColumn   float64 `koanf:"height_per_column" validate:"gte=0"`
	VerticalPadding   float64 `koanf:"vertical_padding" validate:"gte=0"`
	Direction         string  `koanf:"direction" validate:"oneof=left_to_right right_to_left"`
}

// ServeConfig holds configuration for the HTTP server.
type ServeConfig struct {
	Port       int  `koanf:"port" validate:"min=0,max=65535"`
	Watch      bool `koanf:"watch"`
	DebounceMS int  `koanf:"debounce_ms" validate:"min=1"`
}

// defaults returns the flattened default values loaded before any file.
func defaults() map[string]any {
	opts := layout.DefaultOptions()
	return map[string]any{
		"output":                    DefaultOutput,
		"verbose":                   false,
		"state_path":                DefaultStateFile,
		"input":                     DefaultInput,
		"conditions":                false,
		"concurrency":               DefaultConcurrency,
		"layout.horizontal_spacing": opts.HorizontalSpacing,
		"layout.base_node_height":   opts.BaseNodeHeight,
		"layout.height_per_column":  opts.HeightPerColumn,
		"layout.vertical_padding":   opts.VerticalPadding,
		"layout.direction":          string(opts.Direction),
		"serve.port":                DefaultPort,
		"serve.watch":               true,
		"serve.debounce_ms":         DefaultDebounceMS,
	}
}

// Default returns the configuration used when nothing has been loaded.
func Default() *Config {
	opts := layout.DefaultOptions()
	return &Config{
		Output:      DefaultOutput,
		StatePath:   DefaultStateFile,
		Input:       DefaultInput,
		Concurrency: DefaultConcurrency,
		Layout: LayoutConfig{
			HorizontalSpacing: opts.HorizontalSpacing,
			BaseNodeHeight:    opts.BaseNodeHeight,
			HeightPerColumn:   opts.HeightPerColumn,
			VerticalPadding:   opts.VerticalPadding,
			Direction:         string(opts.Direction),
		},
		Serve: ServeConfig{
			Port:       DefaultPort,
			Watch:      true,
			DebounceMS: DefaultDebounceMS,
		},
	}
}

// LayoutOptions converts the layout section for the layout engine.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		HorizontalSpacing: c.Layout.HorizontalSpacing,
		BaseNodeHeight:    c.Layout.BaseNodeHeight,
		HeightPerColumn:   c.Layout.HeightPerColumn,
		VerticalPadding:   c.Layout.VerticalPadding,
		Direction:         layout.Direction(c.Layout.Direction),
	}
}

// InputKind converts the input setting for the engine. "auto" leaves the
// choice to the file extension.
func (c *Config) InputKind() engine.Input {
	switch c.Input {
	case "sql":
		return engine.InputSQL
	case "json":
		return engine.InputJSON
	}
	return ""
}

// Debounce is the serve watcher's debounce delay.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Serve.DebounceMS) * time.Millisecond
}

// EngineConfig builds the engine configuration. History is left for the
// caller to open.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Conditions:  c.Conditions,
		Concurrency: c.Concurrency,
		Layout:      c.LayoutOptions(),
		Debounce:    c.Debounce(),
	}
}
