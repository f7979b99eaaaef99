package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetpipe/internal/cleanup"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/observability"
)

// canceledReason is the failure reason of stages that never started because the run
// was canceled.
const canceledReason = "canceled"

// Cleaner removes previously produced output before a run.
type Cleaner interface {
	Clean(roots []string) cleanup.Result
}

// Orchestrator runs a declared set of stages and aggregates a BuildReport.
type Orchestrator struct {
	cleaner  Cleaner
	recorder metrics.Recorder
	revision func() string
}

// NewOrchestrator creates an orchestrator with a filesystem cleaner and no metrics.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		cleaner:  cleanup.NewCoordinator(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithCleaner sets the cleaner used when a run requests cleaning first.
func (o *Orchestrator) WithCleaner(c Cleaner) *Orchestrator {
	if c != nil {
		o.cleaner = c
	}
	return o
}

// WithRecorder sets the metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r != nil {
		o.recorder = r
	}
	return o
}

// WithRevisionFunc sets a function resolving the project revision stamped on reports.
func (o *Orchestrator) WithRevisionFunc(fn func() string) *Orchestrator {
	o.revision = fn
	return o
}

// Run executes every stage under the given scheduling mode. Stage failures never abort
// the run and are never returned as an error: they are recorded in the report, whose
// stage order always equals declaration order. The error is non-nil only for
// configuration problems detected before any stage runs.
func (o *Orchestrator) Run(ctx context.Context, stages []Stage, mode SchedulingMode, cleanFirst bool) (*BuildReport, error) {
	if err := ValidateStages(stages); err != nil {
		return nil, err
	}
	if mode != ModeParallel && mode != ModeSequential {
		return nil, foundationerrors.ConfigError("unknown scheduling mode").WithContext("mode", string(mode)).Build()
	}

	report := &BuildReport{
		ID:        uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now(),
	}
	if o.revision != nil {
		report.Revision = o.revision()
	}
	ctx = observability.WithBuildID(ctx, report.ID)
	observability.InfoContext(ctx, "Build started",
		logfields.Mode(string(mode)),
		slog.Int("stages", len(stages)),
		logfields.Revision(report.Revision))

	if cleanFirst {
		report.Warnings = o.clean(ctx, stages)
	}

	switch mode {
	case ModeSequential:
		report.Stages = o.runSequential(ctx, stages)
	case ModeParallel:
		report.Stages = o.runParallel(ctx, stages)
	}
	report.TotalDuration = time.Since(report.StartedAt)

	o.record(ctx, report)
	return report, nil
}

func (o *Orchestrator) clean(ctx context.Context, stages []Stage) []Warning {
	roots := make([]string, 0, len(stages))
	for _, st := range stages {
		roots = append(roots, st.OutputRoot())
	}
	res := o.cleaner.Clean(roots)
	o.recorder.IncCleanup(res.Removed, len(res.Warnings))

	warnings := make([]Warning, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, Warning{Kind: WarningCleanup, Path: w.Path, Message: w.Err.Error()})
	}
	observability.InfoContext(ctx, "Cleaned output roots",
		slog.Int("removed", res.Removed),
		slog.Int("warnings", len(warnings)))
	return warnings
}

func (o *Orchestrator) runSequential(ctx context.Context, stages []Stage) []StageResult {
	results := make([]StageResult, len(stages))
	for i, st := range stages {
		if ctx.Err() != nil {
			results[i] = NewFailure(st.ID(), canceledReason, 0)
			continue
		}
		results[i] = o.runStage(ctx, st)
	}
	return results
}

func (o *Orchestrator) runParallel(ctx context.Context, stages []Stage) []StageResult {
	results := make([]StageResult, len(stages))
	// A plain Group: a failed stage must not cancel its siblings.
	var g errgroup.Group
	for i, st := range stages {
		if ctx.Err() != nil {
			results[i] = NewFailure(st.ID(), canceledReason, 0)
			continue
		}
		g.Go(func() error {
			results[i] = o.runStage(ctx, st)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) runStage(ctx context.Context, st Stage) StageResult {
	ctx = observability.WithStage(ctx, st.ID())
	observability.DebugContext(ctx, "Stage started")
	res := InvokeBuildAll(ctx, st)
	if res.Succeeded() {
		observability.InfoContext(ctx, "Stage succeeded",
			logfields.Artifacts(len(res.Artifacts)),
			logfields.Duration(res.Duration))
	} else {
		observability.WarnContext(ctx, "Stage failed",
			logfields.Outcome(res.Outcome.Reason),
			logfields.Duration(res.Duration))
	}
	return res
}

func (o *Orchestrator) record(ctx context.Context, report *BuildReport) {
	for _, res := range report.Stages {
		o.recorder.ObserveStageDuration(res.StageID, res.Duration)
		switch {
		case res.Succeeded():
			o.recorder.IncStageResult(res.StageID, metrics.ResultSuccess)
			o.recorder.AddArtifacts(res.StageID, len(res.Artifacts))
		case res.Outcome.Reason == canceledReason:
			o.recorder.IncStageResult(res.StageID, metrics.ResultCanceled)
		default:
			o.recorder.IncStageResult(res.StageID, metrics.ResultFailure)
		}
	}
	o.recorder.ObserveBuildDuration(report.TotalDuration)

	outcome := metrics.BuildOutcomeSuccess
	if !report.Success() {
		outcome = metrics.BuildOutcomeFailed
	}
	o.recorder.IncBuildOutcome(outcome)
	observability.InfoContext(ctx, "Build finished",
		logfields.Outcome(string(outcome)),
		logfields.Artifacts(report.ArtifactCount()),
		logfields.Duration(report.TotalDuration))
}
