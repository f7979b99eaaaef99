package commands

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/git"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/notify"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
)

// runner executes a plan and fans reports out to the console and, when configured, NATS.
type runner struct {
	plan      *pipeline.BuildPlan
	orch      *build.Orchestrator
	publisher *notify.Publisher
	ctx       context.Context

	mu  sync.Mutex
	out io.Writer
}

func newRunner(ctx context.Context, cfg *config.Config, plan *pipeline.BuildPlan, out io.Writer, recorder metrics.Recorder) *runner {
	r := &runner{
		plan: plan,
		orch: build.NewOrchestrator().
			WithRecorder(recorder).
			WithRevisionFunc(git.RevisionFunc(".")),
		ctx: ctx,
		out: out,
	}
	if cfg.Notify.Enabled() {
		pub, err := notify.Connect(cfg.Notify)
		if err != nil {
			slog.Warn("Report publishing disabled", logfields.Error(err))
		} else {
			r.publisher = pub
		}
	}
	return r
}

// fullBuild runs every stage of the plan. clean is honored only when the plan allows it.
func (r *runner) fullBuild(ctx context.Context, clean bool) (*build.BuildReport, error) {
	report, err := r.orch.Run(ctx, r.plan.Stages, r.plan.Mode, clean && r.plan.Clean)
	if err != nil {
		return nil, err
	}
	r.emit(report)
	return report, nil
}

// emit renders and publishes one report. Safe for concurrent use.
func (r *runner) emit(report *build.BuildReport) {
	r.mu.Lock()
	renderReport(r.out, report)
	r.mu.Unlock()
	if r.publisher != nil {
		if err := r.publisher.Publish(r.ctx, report); err != nil {
			slog.Warn("Report publish failed", logfields.BuildID(report.ID), logfields.Error(err))
		}
	}
}

func (r *runner) close() {
	if r.publisher != nil {
		r.publisher.Close()
	}
}
