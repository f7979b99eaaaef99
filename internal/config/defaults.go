package config

import "fmt"

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1.0"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite applier with every domain applier.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&GlobalDefaultApplier{},
			&StyleDefaultApplier{},
			&ScriptDefaultApplier{},
			&MarkupDefaultApplier{},
			&WatchDefaultApplier{},
			&MetricsDefaultApplier{},
			&NotifyDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// Defaults returns a configuration with only built-in defaults applied.
func Defaults() *Config {
	cfg := &Config{
		Style:  StyleConfig{StageConfig: StageConfig{Enabled: true, SourceMaps: true}},
		Script: ScriptConfig{StageConfig: StageConfig{Enabled: true, SourceMaps: true}, Minify: true},
		Markup: MarkupConfig{Collapse: true},
	}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// GlobalDefaultApplier handles top level defaults.
type GlobalDefaultApplier struct{}

func (g *GlobalDefaultApplier) Domain() string { return "global" }

func (g *GlobalDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Mode == "" {
		cfg.Mode = "parallel"
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "preferred"
	}
	if cfg.Concurrency < 0 {
		cfg.Concurrency = 0
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return nil
}

// StyleDefaultApplier handles stylesheet stage defaults.
type StyleDefaultApplier struct{}

func (s *StyleDefaultApplier) Domain() string { return "css" }

func (s *StyleDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Style.InputDir == "" {
		cfg.Style.InputDir = "css"
	}
	if cfg.Style.OutputDir == "" {
		cfg.Style.OutputDir = "dist/css"
	}
	return nil
}

// ScriptDefaultApplier handles script stage defaults.
type ScriptDefaultApplier struct{}

func (s *ScriptDefaultApplier) Domain() string { return "js" }

func (s *ScriptDefaultApplier) ApplyDefaults(cfg *Config) error {
	js := &cfg.Script
	if js.InputDir == "" {
		js.InputDir = "js"
	}
	if js.OutputDir == "" {
		js.OutputDir = "dist/js"
	}
	if js.Entry == "" {
		js.Entry = "main.js"
	}
	if js.Target == "" {
		js.Target = "es2015"
	}
	if js.Format == "" {
		js.Format = "iife"
	}
	if js.GlobalName == "" {
		js.GlobalName = "App"
	}
	return nil
}

// MarkupDefaultApplier handles page stage defaults.
type MarkupDefaultApplier struct{}

func (m *MarkupDefaultApplier) Domain() string { return "html" }

func (m *MarkupDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Markup.InputDir == "" {
		cfg.Markup.InputDir = "pages"
	}
	if cfg.Markup.OutputDir == "" {
		cfg.Markup.OutputDir = "dist/html"
	}
	return nil
}

// WatchDefaultApplier handles watch mode defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "300ms"
	}
	return nil
}

// MetricsDefaultApplier handles metrics endpoint defaults.
type MetricsDefaultApplier struct{}

func (m *MetricsDefaultApplier) Domain() string { return "metrics" }

func (m *MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// NotifyDefaultApplier handles report publishing defaults.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "assetpipe.reports"
	}
	return nil
}
