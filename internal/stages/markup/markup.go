// Package markup implements the page stage: HTML pages, and optionally markdown pages,
// are renamed, collapsed and written as <name>.html.
package markup

import (
	"context"
	"path"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/obfuscate"
	"git.home.luguber.info/inful/assetpipe/internal/stages"
)

// Config configures the markup stage.
type Config struct {
	ID          string
	InputDir    string
	OutputDir   string
	SourceMaps  bool
	Strategy    stages.Strategy
	Concurrency int

	Markdown  bool
	Obfuscate bool
	Collapse  bool
	// IdentifierPattern restricts which class and id tokens are renamed.
	IdentifierPattern *regexp.Regexp
}

// New builds the markup stage.
func New(cfg Config) (*stages.FileStage, error) {
	if cfg.ID == "" {
		cfg.ID = "html"
	}
	include := "**/*.html"
	if cfg.Markdown {
		include = "**/*.{html,md}"
	}
	return stages.NewFileStage(stages.Options{
		ID:          cfg.ID,
		InputDir:    cfg.InputDir,
		OutputDir:   cfg.OutputDir,
		Include:     include,
		Exclude:     []string{"**/*.min.html"},
		SourceMaps:  cfg.SourceMaps,
		Concurrency: cfg.Concurrency,
	}, NewProcessor(cfg))
}

// Processor runs the page pipeline: render, rename, collapse.
type Processor struct {
	cfg      Config
	collapse func([]byte) ([]byte, error)
}

// NewProcessor selects the collapse implementation from the strategy.
func NewProcessor(cfg Config) *Processor {
	p := &Processor{cfg: cfg, collapse: collapseTokens}
	if cfg.Strategy == stages.StrategyFallback {
		p.collapse = collapsePatterns
	}
	return p
}

func (p *Processor) OutputName(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
}

func (p *Processor) Process(_ context.Context, in stages.Input, withMap bool) (stages.Output, error) {
	doc := in.Data
	if path.Ext(in.Rel) == ".md" {
		title := strings.TrimSuffix(path.Base(in.Rel), ".md")
		rendered, err := renderMarkdownPage(doc, title)
		if err != nil {
			return stages.Output{}, err
		}
		doc = rendered
	}

	// Renaming runs before collapsing; each document gets its own map.
	if p.cfg.Obfuscate {
		renamed, _ := obfuscate.Obfuscate(string(doc), obfuscate.Options{IdentifierPattern: p.cfg.IdentifierPattern})
		doc = []byte(renamed)
	}
	if p.cfg.Collapse {
		collapsed, err := p.collapse(doc)
		if err != nil {
			return stages.Output{}, err
		}
		doc = collapsed
	}

	out := stages.Output{Data: doc}
	if withMap {
		sm, err := stages.WholeFileMap(in)
		if err != nil {
			return stages.Output{}, err
		}
		out.SourceMap = sm
		out.Data = append(append([]byte{}, doc...), []byte("\n<!--# sourceMappingURL="+stages.MapURL(in)+" -->")...)
	}
	return out, nil
}
