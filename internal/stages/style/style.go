// Package style implements the stylesheet stage: every *.css input becomes a minified
// <name>.min.css output.
package style

import (
	"context"
	"regexp"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"git.home.luguber.info/inful/assetpipe/internal/stages"
)

const mediaType = "text/css"

// Config configures the style stage.
type Config struct {
	ID          string
	InputDir    string
	OutputDir   string
	SourceMaps  bool
	Strategy    stages.Strategy
	Concurrency int
}

// New builds the style stage.
func New(cfg Config) (*stages.FileStage, error) {
	if cfg.ID == "" {
		cfg.ID = "css"
	}
	return stages.NewFileStage(stages.Options{
		ID:          cfg.ID,
		InputDir:    cfg.InputDir,
		OutputDir:   cfg.OutputDir,
		Include:     "**/*.css",
		Exclude:     []string{"**/*.min.css"},
		SourceMaps:  cfg.SourceMaps,
		Concurrency: cfg.Concurrency,
	}, NewProcessor(cfg.Strategy))
}

// Processor minifies one stylesheet.
type Processor struct {
	minify func(string) (string, error)
}

// NewProcessor selects the minifier implementation.
func NewProcessor(strategy stages.Strategy) *Processor {
	if strategy == stages.StrategyFallback {
		return &Processor{minify: fallbackMinify}
	}
	m := minify.New()
	m.AddFunc(mediaType, css.Minify)
	return &Processor{minify: func(s string) (string, error) { return m.String(mediaType, s) }}
}

// OutputName maps foo.css to foo.min.css.
func (p *Processor) OutputName(rel string) string {
	return strings.TrimSuffix(rel, ".css") + ".min.css"
}

func (p *Processor) Process(_ context.Context, in stages.Input, withMap bool) (stages.Output, error) {
	code, err := p.minify(string(in.Data))
	if err != nil {
		return stages.Output{}, err
	}
	out := stages.Output{}
	if withMap {
		sm, err := stages.WholeFileMap(in)
		if err != nil {
			return stages.Output{}, err
		}
		out.SourceMap = sm
		code += "\n/*# sourceMappingURL=" + stages.MapURL(in) + " */"
	}
	out.Data = []byte(code)
	return out, nil
}

var (
	commentRe    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`\s*([{};:,>])\s*`)
	lastSemiRe   = regexp.MustCompile(`;}`)
)

// fallbackMinify strips comments and collapses whitespace around punctuation.
func fallbackMinify(s string) (string, error) {
	s = commentRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = punctRe.ReplaceAllString(s, "$1")
	s = lastSemiRe.ReplaceAllString(s, "}")
	return strings.TrimSpace(s), nil
}
