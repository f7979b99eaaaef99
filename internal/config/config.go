// Package config loads and validates the assetpipe configuration.
//
// A Config is produced once per invocation by a Builder, which layers built-in defaults,
// an optional preset, an optional YAML or TOML file and command line overrides, then
// validates the result. Callers treat the returned Config as read-only.
package config

import (
	"time"
)

// Config is the complete, validated configuration of one invocation.
type Config struct {
	Version string `yaml:"version" toml:"version"`
	// Mode is the scheduling mode: parallel or sequential.
	Mode string `yaml:"mode" toml:"mode"`
	// Clean removes previous outputs before building.
	Clean      bool   `yaml:"clean" toml:"clean"`
	Production bool   `yaml:"production" toml:"production"`
	Strategy   string `yaml:"strategy" toml:"strategy"`
	// Concurrency bounds per-stage file parallelism; 0 means unbounded.
	Concurrency int `yaml:"concurrency" toml:"concurrency"`

	Style   StyleConfig   `yaml:"css" toml:"css"`
	Script  ScriptConfig  `yaml:"js" toml:"js"`
	Markup  MarkupConfig  `yaml:"html" toml:"html"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Notify  NotifyConfig  `yaml:"notify" toml:"notify"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-" toml:"-"`
}

// StageConfig holds the settings every stage shares.
type StageConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled"`
	InputDir   string `yaml:"input_dir" toml:"input_dir"`
	OutputDir  string `yaml:"output_dir" toml:"output_dir"`
	SourceMaps bool   `yaml:"source_maps" toml:"source_maps"`
	// Strategy overrides the global strategy for this stage.
	Strategy string `yaml:"strategy,omitempty" toml:"strategy,omitempty"`
}

// StyleConfig configures the stylesheet stage.
type StyleConfig struct {
	StageConfig `yaml:",inline"`
}

// ScriptConfig configures the script stage.
type ScriptConfig struct {
	StageConfig `yaml:",inline"`
	Minify      bool   `yaml:"minify" toml:"minify"`
	Bundle      bool   `yaml:"bundle" toml:"bundle"`
	Entry       string `yaml:"entry" toml:"entry"`
	Target      string `yaml:"target" toml:"target"`
	Format      string `yaml:"format" toml:"format"`
	GlobalName  string `yaml:"global_name" toml:"global_name"`
}

// MarkupConfig configures the page stage.
type MarkupConfig struct {
	StageConfig       `yaml:",inline"`
	Markdown          bool   `yaml:"markdown" toml:"markdown"`
	Obfuscate         bool   `yaml:"obfuscate" toml:"obfuscate"`
	Collapse          bool   `yaml:"collapse" toml:"collapse"`
	IdentifierPattern string `yaml:"identifier_pattern,omitempty" toml:"identifier_pattern,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce" toml:"debounce"`
	// FullRebuildInterval schedules a periodic full build while watching; empty disables it.
	FullRebuildInterval string `yaml:"full_rebuild_interval,omitempty" toml:"full_rebuild_interval,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
	Path    string `yaml:"path" toml:"path"`
}

// NotifyConfig configures publishing of build reports to NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty" toml:"nats_url,omitempty"`
	Subject string `yaml:"subject" toml:"subject"`
	// Stream, when set, publishes through JetStream into this stream (created on demand).
	Stream string `yaml:"stream,omitempty" toml:"stream,omitempty"`
}

// Enabled reports whether report publishing is configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// LoggingConfig configures the log level.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// DebounceDuration returns the parsed watch debounce. Validate guarantees it parses.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(w.Debounce)
	return d
}

// FullRebuildDuration returns the periodic rebuild interval, or 0 when disabled.
func (w WatchConfig) FullRebuildDuration() time.Duration {
	if w.FullRebuildInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(w.FullRebuildInterval)
	return d
}

// StageStrategy resolves the effective strategy of a stage.
func (c *Config) StageStrategy(s StageConfig) string {
	if s.Strategy != "" {
		return s.Strategy
	}
	return c.Strategy
}
