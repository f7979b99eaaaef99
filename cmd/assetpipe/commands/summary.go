package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/assetpipe/internal/build"
)

var (
	colorSuccess = lipgloss.Color("#00E676")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#8C8C8C")
	colorAccent  = lipgloss.Color("#FFD700")

	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleOK      = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleFailed  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleWarning = lipgloss.NewStyle().Foreground(colorAccent)
	styleStageID = lipgloss.NewStyle().Width(8)
)

const (
	iconDone   = "✓"
	iconFailed = "✗"
)

// renderReport writes a human summary of one report, stages in report order.
func renderReport(w io.Writer, r *build.BuildReport) {
	var sb strings.Builder
	title := "Build"
	if r.Trigger != "" {
		title = "Rebuild " + r.Trigger
	}
	sb.WriteString(styleTitle.Render(title))
	sb.WriteString(styleMuted.Render(fmt.Sprintf(" (%s, %d ms", r.Mode, r.TotalDurationMS())))
	if r.Revision != "" {
		sb.WriteString(styleMuted.Render(", rev " + r.Revision))
	}
	sb.WriteString(styleMuted.Render(")"))
	sb.WriteString("\n")

	for _, res := range r.Stages {
		if res.Succeeded() {
			sb.WriteString(styleOK.Render(iconDone))
			sb.WriteString(" ")
			sb.WriteString(styleStageID.Render(res.StageID))
			sb.WriteString(fmt.Sprintf("%d %s, %s", len(res.Artifacts), plural(len(res.Artifacts), "file", "files"),
				humanize.Bytes(uint64(max(res.TotalBytes(), 0)))))
		} else {
			sb.WriteString(styleFailed.Render(iconFailed))
			sb.WriteString(" ")
			sb.WriteString(styleStageID.Render(res.StageID))
			sb.WriteString(styleFailed.Render(res.Outcome.Reason))
		}
		sb.WriteString(styleMuted.Render(fmt.Sprintf("  %d ms", res.DurationMS())))
		sb.WriteString("\n")
	}
	for _, warn := range r.Warnings {
		sb.WriteString(styleWarning.Render(fmt.Sprintf("! %s %s: %s", warn.Kind, warn.Path, warn.Message)))
		sb.WriteString("\n")
	}
	_, _ = io.WriteString(w, sb.String())
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
