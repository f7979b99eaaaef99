package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	"git.home.luguber.info/inful/assetpipe/internal/incremental"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
	"git.home.luguber.info/inful/assetpipe/internal/scheduler"
	"git.home.luguber.info/inful/assetpipe/internal/watch"
)

const shutdownTimeout = 10 * time.Second

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Flags       BuildFlags    `embed:""`
	Debounce    time.Duration `help:"Quiet period before a changed input is rebuilt (overrides watch.debounce)"`
	SkipInitial bool          `name:"skip-initial" help:"Do not run a full build before watching"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig(w.Flags.override())
	if err != nil {
		return err
	}
	plan, err := pipeline.NewBuildPlanBuilder(cfg).WithOnly(w.Flags.Only).Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv, err := metrics.StartServer(cfg.Metrics.Listen, cfg.Metrics.Path, reg)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				slog.Warn("Metrics server shutdown failed", logfields.Error(err))
			}
		}()
	}

	r := newRunner(ctx, cfg, plan, os.Stdout, recorder)
	defer r.close()

	if !w.SkipInitial {
		if _, err := r.fullBuild(ctx, true); err != nil {
			return err
		}
	}

	debounce := cfg.Watch.DebounceDuration()
	if w.Debounce > 0 {
		debounce = w.Debounce
	}
	ctrl := incremental.NewController(watch.NewFSCapability(), plan.Stages).
		WithDebounce(debounce).
		WithRecorder(recorder)
	session, err := ctrl.Start(ctx, build.WatchSources(plan.Stages), r.emit)
	if err != nil {
		return err
	}
	defer session.Stop()

	if interval := cfg.Watch.FullRebuildDuration(); interval > 0 {
		sched, err := scheduler.NewScheduler()
		if err != nil {
			return err
		}
		// The sweep rewrites every output, so scoped rebuilds wait for it.
		if _, err := sched.ScheduleFullRebuild(interval, func(ctx context.Context) {
			session.RunExclusive(func() {
				if _, err := r.fullBuild(ctx, false); err != nil {
					slog.Warn("Scheduled full rebuild failed", logfields.Error(err))
				}
			})
		}); err != nil {
			_ = sched.Stop()
			return err
		}
		sched.Start(ctx)
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	slog.Info("Watching for changes, press Ctrl+C to stop", slog.Int("stages", len(plan.Stages)))
	<-ctx.Done()
	slog.Info("Stopping watch mode")
	return nil
}
