// Package report renders progress, outcomes and version changes for the CLI.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/pkg/logger"
)

const barWidth = 40

var (
	sideStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	declineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
)

// Terminal writes human readable lines. Percent events are drawn as a bar.
type Terminal struct {
	mu    sync.Mutex
	out    io.Writer
	bar    progress.Model
	color  bool
	broken bool
}

func NewTerminal(out io.Writer, color bool) *Terminal {
	opts := []progress.Option{progress.WithWidth(barWidth)}
	if color {
		opts = append(opts, progress.WithDefaultGradient())
	} else {
		opts = append(opts, progress.WithFillCharacters('#', '-'), progress.WithoutPercentage())
	}
	return &Terminal{out: out, bar: progress.New(opts...), color: color}
}

func (t *Terminal) render(style lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return style.Render(s)
}

func (t *Terminal) println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintln(t.out, line); err != nil && !t.broken {
		t.broken = true
		logger.Warn("Failed to write progress", "error", err)
	}
}

func (t *Terminal) ReportProgress(p executor.Progress) {
	prefix := t.render(sideStyle, fmt.Sprintf("[%s]", p.Side))
	switch p.Kind {
	case executor.ProgressPercent:
		bar := t.bar.ViewAs(float64(p.Percent) / 100)
		if !t.color {
			bar = fmt.Sprintf("%s %3d%%", bar, p.Percent)
		}
		t.println(fmt.Sprintf("%s %s", prefix, bar))
	default:
		t.println(fmt.Sprintf("%s %s", prefix, p.Message))
	}
}

func (t *Terminal) ReportOutcome(mode task.Mode, side task.Side, o executor.Outcome) {
	label := fmt.Sprintf("%s (%s)", mode.CommandName(), side)
	switch o.Status {
	case executor.StatusSuccess:
		t.println(t.render(successStyle, "✓ "+label+" finished"))
	case executor.StatusDeclined:
		t.println(t.render(declineStyle, "- "+label+" declined"))
	default:
		t.println(t.render(failureStyle, "✗ "+label+" failed: "+o.Diagnostic()))
	}
}

func (t *Terminal) NotifyLog(msg string) {
	t.println(t.render(noticeStyle, msg))
}

func (t *Terminal) ReportVersion(v *project.Version) {
	t.println("Installed version: " + t.render(versionStyle, v.String()))
}
