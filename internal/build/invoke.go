package build

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/observability"
)

// InvokeBuildAll runs BuildAll on a stage and normalizes the result. A panic inside the
// stage becomes a failure; it never escapes to the caller.
func InvokeBuildAll(ctx context.Context, st Stage) StageResult {
	start := time.Now()
	res := func() (res StageResult) {
		defer recoverStage(ctx, st.ID(), &res)
		return st.BuildAll(ctx)
	}()
	return normalize(st.ID(), res, time.Since(start))
}

// InvokeBuildOne runs a scoped rebuild of one file. found is false when the input does
// not exist; the returned result is meaningless in that case.
func InvokeBuildOne(ctx context.Context, st Stage, file string) (StageResult, bool, error) {
	sb, ok := st.(SingleFileBuilder)
	if !ok {
		return StageResult{}, false, fmt.Errorf("stage %q does not support single-file builds", st.ID())
	}
	start := time.Now()
	found := true
	res := func() (res StageResult) {
		defer recoverStage(ctx, st.ID(), &res)
		res, found = sb.BuildOne(ctx, file)
		return res
	}()
	if !found {
		return StageResult{}, false, nil
	}
	return normalize(st.ID(), res, time.Since(start)), true, nil
}

func recoverStage(ctx context.Context, stageID string, res *StageResult) {
	r := recover()
	if r == nil {
		return
	}
	observability.ErrorContext(ctx, "Stage panicked",
		logfields.Stage(stageID),
		logfields.Error(fmt.Errorf("%v", r)),
		slog.String("stack", string(debug.Stack())))
	*res = NewFailure(stageID, fmt.Sprintf("panic: %v", r), 0)
}

// normalize enforces the result invariants regardless of what the stage returned.
func normalize(stageID string, res StageResult, measured time.Duration) StageResult {
	res.StageID = stageID
	if res.Duration <= 0 {
		res.Duration = measured
	}
	switch res.Outcome.Kind {
	case OutcomeSuccess:
	case OutcomeFailure:
		res.Artifacts = nil
		if res.Outcome.Reason == "" {
			res.Outcome.Reason = "stage failed"
		}
	default:
		res.Artifacts = nil
		res.Outcome = Failed("stage returned no outcome")
	}
	return res
}
