// Package scheduler runs periodic full rebuilds while watching.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// MinInterval is the shortest accepted rebuild interval.
const MinInterval = time.Second

// Task is one scheduled run.
type Task func(ctx context.Context)

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	minimum   time.Duration

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. Jobs do not run until Start.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, minimum: MinInterval}, nil
}

// Start begins running jobs. Tasks receive a context derived from ctx that is canceled
// by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop cancels running tasks and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	return s.scheduler.Shutdown()
}

// ScheduleFullRebuild runs task every interval. A run still in progress when the next one
// is due causes that tick to be skipped.
func (s *Scheduler) ScheduleFullRebuild(interval time.Duration, task Task) (string, error) {
	if interval < s.minimum {
		return "", foundationerrors.ConfigError("full rebuild interval too short").
			WithContext("interval", interval.String()).
			WithContext("minimum", s.minimum.String()).
			Build()
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.execute, task),
		gocron.WithName("full-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create full rebuild job: %w", err)
	}
	slog.Info("Scheduled periodic full rebuild", logfields.Duration(interval))
	return job.ID().String(), nil
}

func (s *Scheduler) execute(task Task) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	slog.Info("Executing scheduled full rebuild")
	task(ctx)
}
