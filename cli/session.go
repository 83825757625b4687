package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/mcphackers/mcpctl/cli/helpers"
	"github.com/mcphackers/mcpctl/cli/prompt"
	"github.com/mcphackers/mcpctl/cli/report"
	"github.com/mcphackers/mcpctl/engine/catalog"
	"github.com/mcphackers/mcpctl/engine/confirm"
	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/orchestrator"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/engine/toolchain"
	"github.com/mcphackers/mcpctl/engine/versiongate"
	"github.com/mcphackers/mcpctl/pkg/config"
	"github.com/mcphackers/mcpctl/pkg/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// LockFile guards a working directory against concurrent mcpctl processes.
const LockFile = ".mcpctl.lock"

type reporter interface {
	executor.Reporter
	versiongate.VersionReporter
}

type presentation struct {
	reporter
	confirm.Prompter
}

// session is everything one command invocation works with.
type session struct {
	cfg     *config.Config
	mode    helpers.Mode
	color   bool
	out     io.Writer
	workDir string
	ui      presentation
	orch    *orchestrator.Orchestrator
	lock    *flock.Flock
}

type sessionOptions struct {
	// mutating commands take the project lock.
	mutating bool
	env      helpers.Environment
	out      io.Writer
	op       executor.Operation
	prompter confirm.Prompter
}

func openSession(cmd *cobra.Command, mutating bool) (*session, error) {
	return newSession(cmd.Context(), sessionOptions{
		mutating: mutating,
		env:      helpers.ProcessEnvironment(),
		out:      cmd.OutOrStdout(),
	})
}

func newSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)
	pwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}
	s := &session{
		cfg:     cfg,
		mode:    helpers.DetectMode(cfg, opts.env),
		color:   helpers.ShouldUseColor(cfg, opts.env),
		out:     opts.out,
		workDir: resolvePath(pwd, cfg.Project.WorkingDir),
	}
	if opts.mutating {
		if err := s.acquire(); err != nil {
			return nil, err
		}
	}
	s.ui = presentation{reporter: s.newReporter(), Prompter: opts.prompter}
	if s.ui.Prompter == nil {
		s.ui.Prompter = s.newPrompter(opts.env)
	}
	op := opts.op
	if op == nil {
		op = toolchain.New(toolchain.Config{
			WorkDir:   s.workDir,
			Commands:  cfg.Toolchain.ModeCommands(),
			Env:       cfg.Toolchain.Env,
			BackupDir: cfg.Toolchain.BackupDir,
			Layout:    cfg.Project.Layout,
		})
	}
	flags, err := project.Probe(afero.NewBasePathFs(afero.NewOsFs(), s.workDir), cfg.Project.Layout)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to inspect %s: %w", s.workDir, err)
	}
	osFs := afero.NewOsFs()
	catalogFile := ""
	if cfg.Catalog.File != "" {
		catalogFile = resolvePath(s.workDir, cfg.Catalog.File)
	}
	orch, err := orchestrator.New(ctx, op, s.ui, orchestrator.Options{
		Registry: task.NewRegistry(task.RegistryOptions{AllowRedecompile: cfg.Project.AllowRedecompile}),
		Store:    project.NewFileVersionStore(osFs, resolvePath(s.workDir, cfg.Project.VersionFile)),
		Catalog:  catalog.New(catalog.NewSource(osFs, cfg.Catalog.URL, catalogFile, cfg.Catalog.Timeout)),
		Flags:    flags,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.orch = orch
	log.Debug("Session opened", "work_dir", s.workDir, "mode", s.mode, "locked", s.lock != nil)
	return s, nil
}

func (s *session) acquire() error {
	lock := flock.New(filepath.Join(s.workDir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.workDir, err)
	}
	if !ok {
		return helpers.NewCliError(
			helpers.CodeLocked,
			"another mcpctl process is working on this project",
			lock.Path(),
		)
	}
	s.lock = lock
	return nil
}

func (s *session) newReporter() reporter {
	if s.mode == helpers.ModeJSON {
		return report.NewJSON(s.out)
	}
	return report.NewTerminal(s.out, s.color)
}

func (s *session) newPrompter(env helpers.Environment) confirm.Prompter {
	if s.cfg.CLI.AssumeYes || s.mode != helpers.ModeTUI || !env.Interactive() {
		return prompt.Unattended{AssumeYes: s.cfg.CLI.AssumeYes}
	}
	return prompt.NewInteractive(prompt.WithAccessible(env.Getenv("ACCESSIBLE") != ""))
}

// Close waits for in-flight runs and releases the project lock.
func (s *session) Close() {
	if s.orch != nil {
		s.orch.Wait()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			logger.Warn("Failed to release project lock", "path", s.lock.Path(), "error", err)
		}
		s.lock = nil
	}
}

// finish waits for run and turns its outcome into the command result.
// Declined flows never reach the executor, so they are reported here.
func (s *session) finish(ctx context.Context, run *executor.Run) error {
	outcome, err := run.Wait(ctx)
	if err != nil {
		return fmt.Errorf("stopped waiting for %s: %w", run.Mode.CommandName(), err)
	}
	switch {
	case outcome.Succeeded():
		return nil
	case outcome.WasDeclined():
		s.ui.ReportOutcome(run.Mode, run.Side, outcome)
		return helpers.NewCliError(
			helpers.CodeDeclined,
			fmt.Sprintf("%s was declined", run.Mode.CommandName()),
		)
	default:
		return helpers.WrapError(outcome.Err)
	}
}
