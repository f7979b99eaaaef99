package config

import (
	"sort"
	"strings"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Preset adjusts a configuration for a common use case before the file is applied.
type Preset func(cfg *Config)

var presets = map[string]Preset{
	"development": func(cfg *Config) {
		cfg.Mode = "parallel"
		cfg.Clean = false
		cfg.Production = false
		cfg.Style.SourceMaps = true
		cfg.Script.SourceMaps = true
		cfg.Script.Minify = false
		cfg.Script.Target = "modern"
	},
	"production": func(cfg *Config) {
		cfg.Mode = "parallel"
		cfg.Clean = true
		cfg.Production = true
		cfg.Style.SourceMaps = false
		cfg.Script.SourceMaps = true
		cfg.Script.Minify = true
		cfg.Script.Bundle = true
		cfg.Script.Target = "es2015"
		cfg.Markup.Obfuscate = true
	},
	"modern": func(cfg *Config) {
		cfg.Mode = "parallel"
		cfg.Production = true
		cfg.Style.SourceMaps = false
		cfg.Script.SourceMaps = false
		cfg.Script.Minify = true
		cfg.Script.Bundle = true
		cfg.Script.Target = "modern"
		cfg.Script.Format = "esm"
	},
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupPreset(name string) (Preset, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, foundationerrors.ConfigError("unknown preset").
			WithContext("preset", name).
			WithContext("known", strings.Join(PresetNames(), ",")).
			Build()
	}
	return p, nil
}
