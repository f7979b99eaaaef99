package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

type fakeSender struct {
	subject string
	data    []byte
	err     error
	closed  bool
}

func (f *fakeSender) Send(ctx context.Context, subject string, data []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.subject = subject
	f.data = data
	return f.err
}

func (f *fakeSender) Close() { f.closed = true }

func sampleReport() *build.BuildReport {
	return &build.BuildReport{
		ID:        "b-1",
		Mode:      build.ModeParallel,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Revision:  "abc123",
		Stages: []build.StageResult{
			build.NewSuccess("css", []build.ArtifactRef{{
				SourcePath: "css/site.css", OutputPath: "dist/css/site.min.css", ByteSize: 42, HasSourceMap: true,
			}}, 15*time.Millisecond),
			build.NewFailure("js", "syntax error", 3*time.Millisecond),
		},
		TotalDuration: 20 * time.Millisecond,
	}
}

func TestPublish_EncodesReportInOrder(t *testing.T) {
	sender := &fakeSender{}
	pub := NewPublisher(sender, "assetpipe.reports")

	require.NoError(t, pub.Publish(t.Context(), sampleReport()))
	require.Equal(t, "assetpipe.reports", sender.subject)

	var msg Message
	require.NoError(t, json.Unmarshal(sender.data, &msg))
	require.Equal(t, "b-1", msg.ID)
	require.Equal(t, "parallel", msg.Mode)
	require.False(t, msg.Success)
	require.Equal(t, int64(20), msg.DurationMS)
	require.Len(t, msg.Stages, 2)
	require.Equal(t, "css", msg.Stages[0].StageID)
	require.Equal(t, "success", msg.Stages[0].Outcome)
	require.Equal(t, int64(15), msg.Stages[0].DurationMS)
	require.Len(t, msg.Stages[0].Artifacts, 1)
	require.Equal(t, "js", msg.Stages[1].StageID)
	require.Equal(t, "syntax error", msg.Stages[1].Reason)
	require.NotNil(t, msg.Stages[1].Artifacts)
	require.Empty(t, msg.Stages[1].Artifacts)

	pub.Close()
	require.True(t, sender.closed)
}

func TestPublish_FailureIsWarning(t *testing.T) {
	sender := &fakeSender{err: errors.New("no responders")}
	pub := NewPublisher(sender, "reports")

	err := pub.Publish(t.Context(), sampleReport())
	require.Error(t, err)
	require.Equal(t, foundationerrors.SeverityWarning, foundationerrors.GetSeverity(err))
	require.Equal(t, foundationerrors.CategoryNotify, foundationerrors.GetCategory(err))
}

func TestEncode_NilReport(t *testing.T) {
	_, err := Encode(nil)
	require.Error(t, err)
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.NotifyConfig{})
	require.Error(t, err)
	require.Equal(t, foundationerrors.CategoryConfig, foundationerrors.GetCategory(err))
}
