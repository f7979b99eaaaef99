package build

import (
	"fmt"
	"strings"
	"time"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/foundation/normalization"
)

// SchedulingMode selects how the orchestrator runs stages.
type SchedulingMode string

const (
	// ModeParallel launches every stage concurrently and waits for all of them to settle.
	ModeParallel SchedulingMode = "parallel"
	// ModeSequential runs stages in declaration order and continues past failures.
	ModeSequential SchedulingMode = "sequential"
)

var schedulingModes = normalization.NewNormalizer(map[string]SchedulingMode{
	"parallel":   ModeParallel,
	"sequential": ModeSequential,
	"serial":     ModeSequential,
})

// ParseSchedulingMode normalizes a user supplied mode; it returns "" for unknown values.
func ParseSchedulingMode(s string) SchedulingMode {
	mode, _ := schedulingModes.Normalize(s)
	return mode
}

// WarningKind classifies non-fatal problems recorded in a report.
type WarningKind string

const WarningCleanup WarningKind = "cleanup"

// Warning is a non-fatal problem recorded during a run.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Path    string      `json:"path,omitempty"`
	Message string      `json:"message"`
}

// BuildReport aggregates the results of one run. It is created fresh per run and is
// read-only to callers.
type BuildReport struct {
	ID            string         `json:"id"`
	Mode          SchedulingMode `json:"mode"`
	Stages        []StageResult  `json:"stages"`
	Warnings      []Warning      `json:"warnings,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	TotalDuration time.Duration  `json:"-"`
	// Revision is the VCS revision of the project at build time, when known.
	Revision string `json:"revision,omitempty"`
	// Trigger is the changed path for incremental rebuilds; empty for full runs.
	Trigger string `json:"trigger,omitempty"`
}

// Get returns the result of a stage by ID.
func (r *BuildReport) Get(stageID string) (StageResult, bool) {
	for _, res := range r.Stages {
		if res.StageID == stageID {
			return res, true
		}
	}
	return StageResult{}, false
}

// StageIDs returns the stage identifiers in report order.
func (r *BuildReport) StageIDs() []string {
	ids := make([]string, len(r.Stages))
	for i, res := range r.Stages {
		ids[i] = res.StageID
	}
	return ids
}

// Failed returns the IDs of failed stages in report order.
func (r *BuildReport) Failed() []string {
	var ids []string
	for _, res := range r.Stages {
		if !res.Succeeded() {
			ids = append(ids, res.StageID)
		}
	}
	return ids
}

// Success reports whether every stage succeeded. Warnings do not affect success.
func (r *BuildReport) Success() bool {
	return len(r.Failed()) == 0
}

// TotalDurationMS returns the total run duration in whole milliseconds.
func (r *BuildReport) TotalDurationMS() int64 { return r.TotalDuration.Milliseconds() }

// ArtifactCount returns the number of artifacts across all stages.
func (r *BuildReport) ArtifactCount() int {
	n := 0
	for _, res := range r.Stages {
		n += len(res.Artifacts)
	}
	return n
}

// Err converts a failed report into a classified build error; it returns nil on success.
// The CLI derives its exit code from this error only.
func (r *BuildReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return foundationerrors.BuildError(fmt.Sprintf("%d of %d stages failed: %s", len(failed), len(r.Stages), strings.Join(failed, ", "))).
		WithContext("build_id", r.ID).
		Build()
}
