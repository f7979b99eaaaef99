package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/assetpipe/internal/cleanup"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Only []string `help:"Clean only these stages (css, js, html)" sep:","`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	plan, err := pipeline.NewBuildPlanBuilder(cfg).WithOnly(c.Only).Build()
	if err != nil {
		return err
	}
	runClean(os.Stdout, cleanup.NewCoordinator().WithLogger(g.Logger), plan.Roots)
	return nil
}

// runClean removes generated files; removal failures are reported, never fatal.
func runClean(w io.Writer, coord *cleanup.Coordinator, roots []pipeline.Root) cleanup.Result {
	dirs := make([]string, len(roots))
	for i, r := range roots {
		dirs[i] = r.Dir
	}
	res := coord.Clean(dirs)
	_, _ = fmt.Fprintln(w, styleOK.Render(iconDone)+fmt.Sprintf(" removed %d %s", res.Removed, plural(res.Removed, "file", "files")))
	for _, warn := range res.Warnings {
		_, _ = fmt.Fprintln(w, styleWarning.Render(fmt.Sprintf("! %s: %v", warn.Path, warn.Err)))
	}
	return res
}
