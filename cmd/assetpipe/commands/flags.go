package commands

import (
	"git.home.luguber.info/inful/assetpipe/internal/config"
)

// BuildFlags are shared by the build and watch commands. Unset flags leave the
// configured values alone.
type BuildFlags struct {
	Sequential bool     `help:"Run stages one after another instead of in parallel"`
	Clean      bool     `help:"Remove previous outputs before building"`
	Production bool     `help:"Production build: drop console/debugger statements and define NODE_ENV"`
	Obfuscate  bool     `help:"Rename class and id attributes in pages"`
	NoMaps     bool     `name:"no-maps" help:"Disable source maps for every stage"`
	Strategy   string   `help:"Processing strategy: preferred or fallback"`
	Only       []string `help:"Build only these stages (css, js, html)" sep:","`
}

// override folds the flags into the configuration.
func (f BuildFlags) override() config.Override {
	return func(cfg *config.Config) {
		if f.Sequential {
			cfg.Mode = "sequential"
		}
		if f.Clean {
			cfg.Clean = true
		}
		if f.Production {
			cfg.Production = true
		}
		if f.Obfuscate {
			cfg.Markup.Obfuscate = true
		}
		if f.NoMaps {
			cfg.Style.SourceMaps = false
			cfg.Script.SourceMaps = false
			cfg.Markup.SourceMaps = false
		}
		if f.Strategy != "" {
			// The flag beats per-stage strategies from the file too.
			cfg.Strategy = f.Strategy
			cfg.Style.Strategy = f.Strategy
			cfg.Script.Strategy = f.Strategy
			cfg.Markup.Strategy = f.Strategy
		}
	}
}
