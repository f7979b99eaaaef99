// Package pipeline turns a validated configuration into the stages of one invocation.
package pipeline

import (
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/stages"
	"git.home.luguber.info/inful/assetpipe/internal/stages/markup"
	"git.home.luguber.info/inful/assetpipe/internal/stages/script"
	"git.home.luguber.info/inful/assetpipe/internal/stages/style"
)

// Stage identifiers in declaration order.
const (
	StyleID  = "css"
	ScriptID = "js"
	MarkupID = "html"
)

// StageIDs lists every known stage in declaration order.
var StageIDs = []string{StyleID, ScriptID, MarkupID}

// Root is the output directory of one stage.
type Root struct {
	StageID string
	Dir     string
}

// BuildPlan is an immutable execution plan derived from config.
type BuildPlan struct {
	Config *config.Config
	Mode   build.SchedulingMode
	Clean  bool
	// Stages are in declaration order: css, js, html.
	Stages []build.Stage
	Roots  []Root
}

// BuildPlanBuilder constructs a BuildPlan.
type BuildPlanBuilder struct {
	cfg  *config.Config
	only []string
}

// NewBuildPlanBuilder creates a builder with base config.
func NewBuildPlanBuilder(cfg *config.Config) *BuildPlanBuilder {
	return &BuildPlanBuilder{cfg: cfg}
}

// WithOnly restricts the plan to the named stages. Empty keeps every enabled stage.
func (b *BuildPlanBuilder) WithOnly(ids []string) *BuildPlanBuilder {
	b.only = nil
	for _, id := range ids {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			b.only = append(b.only, id)
		}
	}
	return b
}

// Build resolves the enabled stages. Asking for a stage that is unknown or disabled is a
// validation error; a plan without stages is a configuration error.
func (b *BuildPlanBuilder) Build() (*BuildPlan, error) {
	for _, id := range b.only {
		if !slices.Contains(StageIDs, id) {
			return nil, foundationerrors.ValidationError("unknown stage").
				WithContext("stage", id).
				WithContext("known", strings.Join(StageIDs, ", ")).
				Build()
		}
		if !b.enabled(id) {
			return nil, foundationerrors.ValidationError("stage is disabled in the configuration").
				WithContext("stage", id).
				Build()
		}
	}

	plan := &BuildPlan{
		Config: b.cfg,
		Mode:   build.ParseSchedulingMode(b.cfg.Mode),
		Clean:  b.cfg.Clean,
	}
	for _, id := range StageIDs {
		if !b.selected(id) {
			continue
		}
		st, err := b.newStage(id)
		if err != nil {
			return nil, err
		}
		plan.Stages = append(plan.Stages, st)
		plan.Roots = append(plan.Roots, Root{StageID: id, Dir: st.OutputRoot()})
	}
	if len(plan.Stages) == 0 {
		return nil, foundationerrors.ConfigError("no stages enabled").Build()
	}
	return plan, nil
}

func (b *BuildPlanBuilder) selected(id string) bool {
	if !b.enabled(id) {
		return false
	}
	return len(b.only) == 0 || slices.Contains(b.only, id)
}

func (b *BuildPlanBuilder) enabled(id string) bool {
	return b.stageConfig(id).Enabled
}

func (b *BuildPlanBuilder) stageConfig(id string) config.StageConfig {
	switch id {
	case StyleID:
		return b.cfg.Style.StageConfig
	case ScriptID:
		return b.cfg.Script.StageConfig
	default:
		return b.cfg.Markup.StageConfig
	}
}

func (b *BuildPlanBuilder) newStage(id string) (build.Stage, error) {
	cfg := b.cfg
	sc := b.stageConfig(id)
	strategy, err := stages.ParseStrategy(cfg.StageStrategy(sc))
	if err != nil {
		return nil, err
	}

	switch id {
	case StyleID:
		st, err := style.New(style.Config{
			ID:          id,
			InputDir:    sc.InputDir,
			OutputDir:   sc.OutputDir,
			SourceMaps:  sc.SourceMaps,
			Strategy:    strategy,
			Concurrency: cfg.Concurrency,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case ScriptID:
		return script.New(script.Config{
			ID:          id,
			InputDir:    sc.InputDir,
			OutputDir:   sc.OutputDir,
			SourceMaps:  sc.SourceMaps,
			Strategy:    strategy,
			Concurrency: cfg.Concurrency,
			Minify:      cfg.Script.Minify,
			Production:  cfg.Production,
			Target:      cfg.Script.Target,
			Format:      cfg.Script.Format,
			GlobalName:  cfg.Script.GlobalName,
			Bundle:      cfg.Script.Bundle,
			Entry:       cfg.Script.Entry,
		})
	default:
		mc := markup.Config{
			ID:          id,
			InputDir:    sc.InputDir,
			OutputDir:   sc.OutputDir,
			SourceMaps:  sc.SourceMaps,
			Strategy:    strategy,
			Concurrency: cfg.Concurrency,
			Markdown:    cfg.Markup.Markdown,
			Obfuscate:   cfg.Markup.Obfuscate,
			Collapse:    cfg.Markup.Collapse,
		}
		if cfg.Markup.IdentifierPattern != "" {
			re, err := regexp.Compile(cfg.Markup.IdentifierPattern)
			if err != nil {
				return nil, foundationerrors.ConfigError("invalid identifier pattern").WithCause(err).Build()
			}
			mc.IdentifierPattern = re
		}
		st, err := markup.New(mc)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}
