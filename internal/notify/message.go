package notify

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Message is the wire form of a BuildReport.
type Message struct {
	ID         string          `json:"id"`
	Mode       string          `json:"mode"`
	Success    bool            `json:"success"`
	Revision   string          `json:"revision,omitempty"`
	Trigger    string          `json:"trigger,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
	Stages     []StageMessage  `json:"stages"`
	Warnings   []build.Warning `json:"warnings,omitempty"`
}

// StageMessage is the wire form of one StageResult.
type StageMessage struct {
	StageID    string              `json:"stage_id"`
	Outcome    string              `json:"outcome"`
	Reason     string              `json:"reason,omitempty"`
	DurationMS int64               `json:"duration_ms"`
	Artifacts  []build.ArtifactRef `json:"artifacts"`
}

// NewMessage converts a report, preserving stage order.
func NewMessage(report *build.BuildReport) Message {
	msg := Message{
		ID:         report.ID,
		Mode:       string(report.Mode),
		Success:    report.Success(),
		Revision:   report.Revision,
		Trigger:    report.Trigger,
		StartedAt:  report.StartedAt.UTC(),
		DurationMS: report.TotalDurationMS(),
		Stages:     make([]StageMessage, 0, len(report.Stages)),
		Warnings:   report.Warnings,
	}
	for _, res := range report.Stages {
		artifacts := res.Artifacts
		if artifacts == nil {
			artifacts = []build.ArtifactRef{}
		}
		msg.Stages = append(msg.Stages, StageMessage{
			StageID:    res.StageID,
			Outcome:    string(res.Outcome.Kind),
			Reason:     res.Outcome.Reason,
			DurationMS: res.DurationMS(),
			Artifacts:  artifacts,
		})
	}
	return msg
}

// Encode renders the report as JSON.
func Encode(report *build.BuildReport) ([]byte, error) {
	if report == nil {
		return nil, foundationerrors.ValidationError("report is nil").Build()
	}
	data, err := json.Marshal(NewMessage(report))
	if err != nil {
		return nil, foundationerrors.InternalError("failed to encode build report").WithCause(err).Build()
	}
	return data, nil
}
