// Package build provides the orchestration core of assetpipe.
//
// It defines the stage contract every asset stage implements (Stage, plus the optional
// SingleFileBuilder and Watchable capabilities), the immutable result types a stage
// produces (StageResult, ArtifactRef) and the Orchestrator that composes stages into one
// run under a scheduling mode and aggregates their results into a BuildReport.
//
// Stage failures never escape as errors: they are recorded per stage in the report so a
// caller always learns exactly which parts succeeded. Only configuration problems (empty
// stage set, duplicate identifiers, overlapping output roots) are returned as errors, and
// they are returned before any stage runs.
package build
