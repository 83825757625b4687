package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mcphackers/mcpctl/cli/helpers"
	"github.com/mcphackers/mcpctl/cli/report"
	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/pkg/config"
	"github.com/mcphackers/mcpctl/pkg/version"
	"github.com/spf13/cobra"
)

var modeDescriptions = map[task.Mode]string{
	task.ModeDecompile:       "Decompile the game into editable sources",
	task.ModeRecompile:       "Compile the edited sources",
	task.ModeReobfuscate:     "Map compiled classes back to obfuscated names",
	task.ModeBuild:           "Package reobfuscated classes",
	task.ModeUpdateChecksums: "Record checksums of the compiled classes",
	task.ModeCreatePatch:     "Create a patch from the edited sources",
	task.ModeBackupSource:    "Copy the current sources into the backup directory",
}

// modeCommands returns one command per side scoped mode.
func modeCommands() []*cobra.Command {
	var cmds []*cobra.Command
	for _, mode := range task.Modes {
		if mode == task.ModeSetup {
			continue
		}
		cmds = append(cmds, modeCmd(mode))
	}
	return cmds
}

func modeCmd(mode task.Mode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   mode.CommandName(),
		Short: modeDescriptions[mode],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handleMode(cmd, mode)
		},
	}
	addSideFlag(cmd)
	return cmd
}

func addSideFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("side", "s", "", "Side to act on: client, server or any (defaults to project.side)")
}

// RunCmd runs a mode given by name.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <mode>",
		Short: "Run a task by mode name",
		Long:  "Run a task by mode name. Modes: " + usageModes() + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := task.ParseMode(args[0])
			if err != nil {
				return helpers.NewCliError(helpers.CodeInvalidArg, err.Error())
			}
			if mode == task.ModeSetup {
				side, err := setupSide(cmd)
				if err != nil {
					return fail(cmd, nil, err)
				}
				return handleSetup(cmd, "", side)
			}
			return handleMode(cmd, mode)
		},
	}
	addSideFlag(cmd)
	return cmd
}

// SetupCmd installs a version.
func SetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup [version]",
		Short: "Set up or switch the target version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return handleSetup(cmd, id, task.SideAny)
		},
	}
}

// StatusCmd shows which tasks are available.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the installed version and the available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handleStatus(cmd)
		},
	}
}

// VersionsCmd lists the catalog.
func VersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the versions that can be set up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handleVersions(cmd)
		},
	}
}

// VersionCmd prints build information.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mcpctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if helpers.DetectMode(config.FromContext(cmd.Context()), helpers.ProcessEnvironment()) == helpers.ModeJSON {
				return writeJSON(cmd, info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mcpctl %s (commit %s, built %s)\n", info.Version, info.CommitHash, info.BuildDate)
			return nil
		},
	}
}

// printedError marks an error that was already shown to the user.
type printedError struct {
	err error
}

func (e printedError) Error() string { return e.err.Error() }

func (e printedError) Unwrap() error { return e.err }

// fail prints err in the session's format and returns it for the exit code.
func fail(cmd *cobra.Command, s *session, err error) error {
	if err == nil {
		return nil
	}
	mode, color := helpers.ModeTUI, false
	if s != nil {
		mode, color = s.mode, s.color
	}
	helpers.OutputError(cmd.ErrOrStderr(), err, mode, color)
	return printedError{err: err}
}

func sideFor(cmd *cobra.Command, cfg *config.Config) (task.Side, error) {
	value := cfg.Project.Side
	if f := cmd.Flags().Lookup("side"); f != nil && f.Changed {
		value = f.Value.String()
	}
	side, err := task.ParseSide(value)
	if err != nil {
		return task.SideAny, helpers.NewCliError(helpers.CodeInvalidArg, err.Error())
	}
	return side, nil
}

// setupSide honors an explicit --side only; project.side does not apply to
// SETUP.
func setupSide(cmd *cobra.Command) (task.Side, error) {
	f := cmd.Flags().Lookup("side")
	if f == nil || !f.Changed {
		return task.SideAny, nil
	}
	side, err := task.ParseSide(f.Value.String())
	if err != nil {
		return task.SideAny, helpers.NewCliError(helpers.CodeInvalidArg, err.Error())
	}
	return side, nil
}

func handleMode(cmd *cobra.Command, mode task.Mode) error {
	s, err := openSession(cmd, true)
	if err != nil {
		return fail(cmd, nil, err)
	}
	defer s.Close()
	side, err := sideFor(cmd, s.cfg)
	if err != nil {
		return fail(cmd, s, err)
	}
	ctx := cmd.Context()
	run, err := s.orch.Invoke(ctx, mode, side)
	if err != nil {
		return fail(cmd, s, helpers.WrapError(err))
	}
	return fail(cmd, s, s.finish(ctx, run))
}

func handleSetup(cmd *cobra.Command, id string, side task.Side) error {
	s, err := openSession(cmd, true)
	if err != nil {
		return fail(cmd, nil, err)
	}
	defer s.Close()
	ctx := cmd.Context()
	var run *executor.Run
	if id == "" {
		run, err = s.orch.Invoke(ctx, task.ModeSetup, side)
	} else {
		run, err = s.orch.SetupInteractive(ctx, id)
	}
	if err != nil {
		return fail(cmd, s, helpers.WrapError(err))
	}
	if run == nil {
		s.ui.ReportVersion(s.orch.QueryState().Version)
		return nil
	}
	if err := s.finish(ctx, run); err != nil {
		return fail(cmd, s, err)
	}
	s.ui.ReportVersion(s.orch.QueryState().Version)
	return nil
}

func handleStatus(cmd *cobra.Command) error {
	s, err := openSession(cmd, false)
	if err != nil {
		return fail(cmd, nil, err)
	}
	defer s.Close()
	st := report.BuildStatus(s.orch.QueryState(), s.orch.Availability)
	if s.mode == helpers.ModeJSON {
		return fail(cmd, s, writeJSON(cmd, st))
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.RenderStatus(st, s.color))
	return nil
}

func handleVersions(cmd *cobra.Command) error {
	s, err := openSession(cmd, false)
	if err != nil {
		return fail(cmd, nil, err)
	}
	defer s.Close()
	versions, err := s.orch.Versions(cmd.Context())
	if err != nil {
		return fail(cmd, s, helpers.NewCliError(helpers.CodeConfig, "failed to list versions", err.Error()))
	}
	if s.mode == helpers.ModeJSON {
		return fail(cmd, s, writeJSON(cmd, versions))
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderVersions(versions, s.orch.QueryState().Version))
	return nil
}

func renderVersions(versions []*project.Version, installed *project.Version) string {
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		released := ""
		if v.ReleaseTime != nil {
			released = v.ReleaseTime.Format("2006-01-02")
		}
		current := ""
		if project.SameVersion(v, installed) {
			current = "*"
		}
		rows = append(rows, []string{current, v.ID, v.Name(), v.ReleaseType, released})
	}
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "id", "name", "type", "released").
		Rows(rows...).
		StyleFunc(func(_, _ int) lipgloss.Style { return cell }).
		Render()
}

func writeJSON(cmd *cobra.Command, data any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// usageModes lists the mode names accepted by run.
func usageModes() string {
	names := make([]string, 0, len(task.Modes))
	for _, m := range task.Modes {
		names = append(names, m.CommandName())
	}
	return strings.Join(names, ", ")
}
