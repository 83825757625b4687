package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
)

// Status is the machine readable form of the status table.
type Status struct {
	Version      *project.Version           `json:"version,omitempty"`
	Active       bool                       `json:"active"`
	Flags        map[string]task.Flags      `json:"flags"`
	Availability map[string]map[string]bool `json:"availability"`
}

// Availability reports the enabled modes of one side.
type Availability func(side task.Side) map[task.Mode]bool

// BuildStatus collects the status of both sides.
func BuildStatus(snap project.Snapshot, avail Availability) Status {
	st := Status{
		Version:      snap.Version,
		Active:       snap.Active(),
		Flags:        make(map[string]task.Flags, len(task.ConcreteSides)),
		Availability: make(map[string]map[string]bool, len(task.ConcreteSides)+1),
	}
	for _, side := range []task.Side{task.SideClient, task.SideServer, task.SideAny} {
		modes := avail(side)
		row := make(map[string]bool, len(modes))
		for mode, on := range modes {
			row[mode.CommandName()] = on
		}
		st.Availability[side.String()] = row
		if side.IsConcrete() {
			st.Flags[side.String()] = snap.Flags(side)
		}
	}
	return st
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	onStyle     = cellStyle.Foreground(lipgloss.Color("86"))
	offStyle    = cellStyle.Foreground(lipgloss.Color("240"))
)

func mark(on bool) string {
	if on {
		return "yes"
	}
	return "-"
}

// RenderStatus draws the availability of every side scoped mode as a table.
func RenderStatus(st Status, color bool) string {
	sides := []string{task.SideClient.String(), task.SideServer.String()}
	var rows [][]string
	for _, mode := range task.Modes {
		if mode == task.ModeSetup {
			continue
		}
		row := []string{mode.CommandName()}
		for _, side := range sides {
			row = append(row, mark(st.Availability[side][mode.CommandName()]))
		}
		rows = append(rows, row)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{"mode"}, sides...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case !color || col == 0:
				return cellStyle
			case row == table.HeaderRow:
				return headerStyle
			case rows[row][col] == mark(true):
				return onStyle
			default:
				return offStyle
			}
		})

	var b strings.Builder
	b.WriteString("Version: " + st.Version.String() + "\n")
	b.WriteString("Setup available: " + mark(st.Availability[task.SideAny.String()][task.ModeSetup.CommandName()]) + "\n")
	if st.Active {
		b.WriteString("A task is running\n")
	}
	b.WriteString(t.Render())
	return b.String()
}
