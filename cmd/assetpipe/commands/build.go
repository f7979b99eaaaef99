package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Flags BuildFlags `embed:""`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig(b.Flags.override())
	if err != nil {
		return err
	}
	plan, err := pipeline.NewBuildPlanBuilder(cfg).WithOnly(b.Flags.Only).Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := newRunner(ctx, cfg, plan, os.Stdout, metrics.NoopRecorder{})
	defer r.close()

	report, err := r.fullBuild(ctx, true)
	if err != nil {
		return err
	}
	return report.Err()
}
