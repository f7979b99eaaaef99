package build

import (
	"slices"
	"time"
)

// OutcomeKind is the terminal state of one stage invocation.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome is Success or Failure(reason).
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
}

// Succeeded returns the success outcome.
func Succeeded() Outcome { return Outcome{Kind: OutcomeSuccess} }

// Failed returns a failure outcome with the given reason.
func Failed(reason string) Outcome { return Outcome{Kind: OutcomeFailure, Reason: reason} }

// IsSuccess reports whether the outcome is a success.
func (o Outcome) IsSuccess() bool { return o.Kind == OutcomeSuccess }

func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Kind)
	}
	return string(o.Kind) + ": " + o.Reason
}

// ArtifactRef describes one output file. It is never mutated after a stage emits it.
type ArtifactRef struct {
	SourcePath   string `json:"source_path"`
	OutputPath   string `json:"output_path"`
	ByteSize     int64  `json:"byte_size"`
	HasSourceMap bool   `json:"has_source_map"`
}

// StageResult is produced once per stage invocation and must not be modified afterwards.
// A failed result carries no artifacts.
type StageResult struct {
	StageID   string        `json:"stage_id"`
	Artifacts []ArtifactRef `json:"artifacts"`
	Duration  time.Duration `json:"-"`
	Outcome   Outcome       `json:"outcome"`
}

// NewSuccess creates a successful result. The artifact slice is copied.
func NewSuccess(stageID string, artifacts []ArtifactRef, d time.Duration) StageResult {
	return StageResult{
		StageID:   stageID,
		Artifacts: slices.Clone(artifacts),
		Duration:  nonNegative(d),
		Outcome:   Succeeded(),
	}
}

// NewFailure creates a failed result.
func NewFailure(stageID, reason string, d time.Duration) StageResult {
	return StageResult{
		StageID:  stageID,
		Duration: nonNegative(d),
		Outcome:  Failed(reason),
	}
}

// DurationMS returns the duration in whole milliseconds.
func (r StageResult) DurationMS() int64 { return r.Duration.Milliseconds() }

// Succeeded reports whether the stage succeeded.
func (r StageResult) Succeeded() bool { return r.Outcome.IsSuccess() }

// TotalBytes sums the byte size of all artifacts.
func (r StageResult) TotalBytes() int64 {
	var n int64
	for _, a := range r.Artifacts {
		n += a.ByteSize
	}
	return n
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
