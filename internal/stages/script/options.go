// Package script implements the script stage. Each *.js input is transpiled and
// optionally minified; in bundle mode a single entry point is bundled instead.
package script

import (
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/foundation/normalization"
	"git.home.luguber.info/inful/assetpipe/internal/stages"
)

// Config configures the script stage.
type Config struct {
	ID          string
	InputDir    string
	OutputDir   string
	SourceMaps  bool
	Strategy    stages.Strategy
	Concurrency int

	Minify bool
	// Production drops console and debugger statements and defines NODE_ENV.
	Production bool
	Target     string
	Format     string
	GlobalName string
	// Bundle builds Entry into a single bundle instead of per-file outputs.
	Bundle bool
	Entry  string
}

// New builds the script stage. Bundle mode yields a stage that rebuilds as a whole.
func New(cfg Config) (build.Stage, error) {
	if cfg.ID == "" {
		cfg.ID = "js"
	}
	if _, err := parseTarget(cfg.Target); err != nil {
		return nil, err
	}
	if _, err := parseFormat(cfg.Format); err != nil {
		return nil, err
	}
	if cfg.Bundle {
		return newBundleStage(cfg)
	}
	return stages.NewFileStage(stages.Options{
		ID:          cfg.ID,
		InputDir:    cfg.InputDir,
		OutputDir:   cfg.OutputDir,
		Include:     "**/*.js",
		Exclude:     []string{"**/*.min.js"},
		SourceMaps:  cfg.SourceMaps,
		Concurrency: cfg.Concurrency,
	}, newProcessor(cfg))
}

var (
	targets = normalization.NewNormalizer(map[string]api.Target{
		"":       api.ESNext,
		"modern": api.ESNext,
		"esnext": api.ESNext,
		"es2015": api.ES2015,
		"es6":    api.ES2015,
		"es5":    api.ES5,
	})
	formats = normalization.NewNormalizer(map[string]api.Format{
		"":     api.FormatIIFE,
		"iife": api.FormatIIFE,
		"esm":  api.FormatESModule,
		"cjs":  api.FormatCommonJS,
	})
)

func parseTarget(s string) (api.Target, error) {
	if t, ok := targets.Normalize(s); ok {
		return t, nil
	}
	return 0, foundationerrors.ConfigError("unknown script target").
		WithContext("target", s).
		WithContext("valid", targets.Valid()).
		Build()
}

func parseFormat(s string) (api.Format, error) {
	if f, ok := formats.Normalize(s); ok {
		return f, nil
	}
	return 0, foundationerrors.ConfigError("unknown script format").
		WithContext("format", s).
		WithContext("valid", formats.Valid()).
		Build()
}

func (c Config) drop() api.Drop {
	if c.Production {
		return api.DropConsole | api.DropDebugger
	}
	return 0
}

func (c Config) define() map[string]string {
	env := `"development"`
	if c.Production {
		env = `"production"`
	}
	return map[string]string{"process.env.NODE_ENV": env}
}

func (c Config) outputSuffix() string {
	if c.Minify {
		return ".min.js"
	}
	return ".js"
}

// esbuildErr folds esbuild diagnostics into one error.
func esbuildErr(msgs []api.Message) error {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, m.Location.File+":"+strconv.Itoa(m.Location.Line)+": "+m.Text)
			continue
		}
		parts = append(parts, m.Text)
	}
	return foundationerrors.BuildError(strings.Join(parts, "; ")).Build()
}
