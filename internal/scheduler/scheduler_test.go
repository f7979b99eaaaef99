package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

func TestScheduleFullRebuild_Runs(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	s.minimum = 10 * time.Millisecond

	var runs atomic.Int32
	id, err := s.ScheduleFullRebuild(20*time.Millisecond, func(ctx context.Context) {
		if ctx.Err() == nil {
			runs.Add(1)
		}
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	s.Start(t.Context())
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	after := runs.Load()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, after, runs.Load())
}

func TestScheduleFullRebuild_RejectsShortInterval(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	_, err = s.ScheduleFullRebuild(100*time.Millisecond, func(context.Context) {})
	require.Error(t, err)
	require.Equal(t, foundationerrors.CategoryConfig, foundationerrors.GetCategory(err))
	require.NoError(t, s.Stop())
}
