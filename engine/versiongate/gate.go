// Package versiongate switches the installed target version of a project
// after asking the user.
package versiongate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcphackers/mcpctl/engine/confirm"
	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/pkg/logger"
)

// VersionReporter is told which version is in effect when a switch does not
// happen, so a speculative selection can be reverted.
type VersionReporter interface {
	ReportVersion(v *project.Version)
}

// Gate turns version requests into SETUP runs.
type Gate struct {
	state    *project.State
	runner   confirm.Runner
	prompter confirm.Prompter
	reporter VersionReporter
}

func New(state *project.State, runner confirm.Runner, prompter confirm.Prompter, reporter VersionReporter) *Gate {
	return &Gate{
		state:    state,
		runner:   runner,
		prompter: prompter,
		reporter: reporter,
	}
}

// RequestVersion asks to install v. It returns a nil run when v is nil or
// already installed. A declined switch returns a completed Declined run and
// reports the previous version back. While another run is active the request
// is refused before any prompt.
func (g *Gate) RequestVersion(ctx context.Context, v *project.Version) (*executor.Run, error) {
	if v == nil {
		return nil, nil
	}
	log := logger.FromContext(ctx)
	previous := g.state.Installed()
	if g.state.Snapshot().Active() {
		log.Info("Version switch refused", "requested", v.ID, "reason", "another task is running")
		g.reporter.ReportVersion(previous)
		return nil, &executor.IneligibleError{
			Mode:   task.ModeSetup,
			Side:   task.SideAny,
			Reason: "another task is running",
		}
	}
	if project.SameVersion(previous, v) {
		return nil, nil
	}
	ok, err := g.prompter.Confirm(ctx, setupPrompt(previous, v))
	if err != nil {
		log.Warn("Confirmation prompt failed", "prompt", "confirm_setup", "error", err)
	}
	if err != nil || !ok {
		log.Info("Version switch declined", "requested", v.ID, "installed", project.ID(previous))
		g.reporter.ReportVersion(previous)
		return executor.DeclinedRun(task.ModeSetup, task.SideAny), nil
	}
	run, err := g.runner.Run(ctx, executor.Request{
		Mode:    task.ModeSetup,
		Side:    task.SideAny,
		Version: v,
		Params:  task.Params{task.ParamSetupVersion: v.ID},
		OnDone: func(o executor.Outcome) {
			if !o.Succeeded() {
				g.reporter.ReportVersion(previous)
			}
		},
	})
	if err != nil {
		g.reporter.ReportVersion(previous)
		return nil, err
	}
	return run, nil
}

func setupPrompt(previous, next *project.Version) confirm.Prompt {
	var msg strings.Builder
	if previous == nil {
		fmt.Fprintf(&msg, "Set up %s?", next.Name())
	} else {
		fmt.Fprintf(&msg, "Switch from %s to %s?", previous.Name(), next.Name())
	}
	if next.Changelog != "" {
		fmt.Fprintf(&msg, "\n\n%s", next.Changelog)
	}
	return confirm.Prompt{
		Key:     "confirm_setup",
		Title:   "Set up version " + next.ID,
		Message: msg.String(),
	}
}
