package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailure  ResultLabel = "failure"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel enumerates final build outcomes.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	BuildOutcomeFailed  BuildOutcomeLabel = "failed"
)

// RebuildScope distinguishes scoped (single file) from full stage rebuilds.
type RebuildScope string

const (
	ScopeFile  RebuildScope = "file"
	ScopeStage RebuildScope = "stage"
)

// Recorder defines observability hooks for build, stage and watch metrics. Implementations
// may forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddArtifacts(stage string, n int)
	IncCleanup(removed, warnings int)
	IncRebuild(stage string, scope RebuildScope)
	IncCoalescedEvent(stage string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) AddArtifacts(string, int)                   {}
func (NoopRecorder) IncCleanup(int, int)                        {}
func (NoopRecorder) IncRebuild(string, RebuildScope)            {}
func (NoopRecorder) IncCoalescedEvent(string)                   {}
