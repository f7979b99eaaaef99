package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/pipeline"
)

// StatsCmd implements the 'stats' command.
type StatsCmd struct {
	Only []string `help:"Report only these stages (css, js, html)" sep:","`
}

// rootStats summarizes the regular files directly inside one output root.
type rootStats struct {
	StageID string
	Dir     string
	Files   int
	Bytes   int64
}

func (s *StatsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	plan, err := pipeline.NewBuildPlanBuilder(cfg).WithOnly(s.Only).Build()
	if err != nil {
		return err
	}
	stats, err := collectStats(plan.Roots)
	if err != nil {
		return err
	}
	renderStats(os.Stdout, stats)
	return nil
}

// collectStats counts regular files directly in each root. Missing roots count as empty.
func collectStats(roots []pipeline.Root) ([]rootStats, error) {
	out := make([]rootStats, 0, len(roots))
	for _, r := range roots {
		st := rootStats{StageID: r.StageID, Dir: r.Dir}
		entries, err := os.ReadDir(r.Dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, foundationerrors.FileSystemError("cannot list output directory").
				WithCause(err).
				WithContext("path", r.Dir).
				Build()
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			st.Files++
			st.Bytes += info.Size()
		}
		out = append(out, st)
	}
	return out, nil
}

func renderStats(w io.Writer, stats []rootStats) {
	var sb strings.Builder
	sb.WriteString(styleTitle.Render("Output"))
	sb.WriteString("\n")

	dirWidth := 0
	for _, s := range stats {
		dirWidth = max(dirWidth, len(s.Dir))
	}
	dirStyle := lipgloss.NewStyle().Width(dirWidth + 2)

	var files int
	var bytes int64
	for _, s := range stats {
		files += s.Files
		bytes += s.Bytes
		sb.WriteString(styleStageID.Render(s.StageID))
		sb.WriteString(styleMuted.Render(dirStyle.Render(s.Dir)))
		sb.WriteString(fmt.Sprintf("%d %s, %s\n", s.Files, plural(s.Files, "file", "files"), humanize.Bytes(uint64(s.Bytes))))
	}
	sb.WriteString(styleTitle.Render(fmt.Sprintf("Total: %d %s, %s", files, plural(files, "file", "files"), humanize.Bytes(uint64(bytes)))))
	sb.WriteString("\n")
	_, _ = io.WriteString(w, sb.String())
}
