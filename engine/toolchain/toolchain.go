// Package toolchain runs the external programs behind each mode.
//
// Every mode maps to a command template. The template is rendered with the
// run's data, split into arguments and executed in the working directory,
// once per target side. Output lines become progress events.
package toolchain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/pkg/logger"
	"github.com/mcphackers/mcpctl/pkg/tplengine"
	"github.com/spf13/afero"
)

const DefaultBackupDir = "backups"

type Config struct {
	WorkDir string
	// Commands maps a mode to its command template.
	Commands  map[task.Mode]string
	Env       map[string]string
	BackupDir string
	Layout    project.Layout
}

// Step is one side of a job. Started is shared by every side of the job.
type Step struct {
	Job     executor.Job
	Side    task.Side
	Started time.Time
}

// Builtin is an in-process implementation of a mode for one side.
type Builtin func(ctx context.Context, tc *Toolchain, step Step, progress executor.ProgressFunc) error

// Toolchain implements executor.Operation.
type Toolchain struct {
	cfg      Config
	fs       afero.Fs
	tpl      *tplengine.TemplateEngine
	builtins map[task.Mode]Builtin
	now      func() time.Time
}

type Option func(*Toolchain)

// WithClock replaces the clock used for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(tc *Toolchain) {
		tc.now = now
	}
}

func New(cfg Config, opts ...Option) *Toolchain {
	if cfg.BackupDir == "" {
		cfg.BackupDir = DefaultBackupDir
	}
	tc := &Toolchain{
		cfg: cfg,
		fs:  afero.NewOsFs(),
		tpl: tplengine.NewEngine(),
		builtins: map[task.Mode]Builtin{
			task.ModeBackupSource: backupSources,
			task.ModeSetup:        recordVersion,
		},
		now: time.Now,
	}
	tc.tpl.AddGlobalValue("WorkDir", cfg.WorkDir)
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// Execute runs job once per target side. A configured command takes
// precedence over a builtin.
func (tc *Toolchain) Execute(ctx context.Context, job executor.Job, progress executor.ProgressFunc) error {
	command := strings.TrimSpace(tc.cfg.Commands[job.Mode])
	builtin := tc.builtins[job.Mode]
	if command == "" && builtin == nil {
		return fmt.Errorf("no command configured for %s", job.Mode)
	}
	log := logger.FromContext(ctx).With("run_id", job.RunID, "mode", job.Mode)
	started := tc.now()
	for _, side := range sidesOf(job) {
		var err error
		if command != "" {
			log.Debug("Running command", "side", side)
			err = tc.runCommand(ctx, command, job, side, progress)
		} else {
			log.Debug("Running builtin", "side", side)
			err = builtin(ctx, tc, Step{Job: job, Side: side, Started: started}, progress)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sidesOf(job executor.Job) []task.Side {
	if len(job.Targets) == 0 {
		return []task.Side{job.Side}
	}
	return job.Targets
}

// templateData is what command and env templates see.
func (tc *Toolchain) templateData(job executor.Job, side task.Side) map[string]any {
	version := ""
	if job.Version != nil {
		version = job.Version.ID
	}
	return map[string]any{
		"RunID":   job.RunID,
		"Mode":    string(job.Mode),
		"Command": job.Mode.CommandName(),
		"Side":    side.String(),
		"Version": version,
		"Params":  job.Params.AsMap(),
	}
}
