// Package orchestrator is the entry point a presentation layer drives. It owns
// one project state and wires the confirmation flow, the version gate and the
// executor around it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mcphackers/mcpctl/engine/catalog"
	"github.com/mcphackers/mcpctl/engine/confirm"
	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/engine/versiongate"
	"github.com/mcphackers/mcpctl/pkg/logger"
)

// Presentation is everything the core calls outward.
type Presentation interface {
	executor.Reporter
	confirm.Prompter
	versiongate.VersionReporter
}

// Catalog resolves version ids.
type Catalog interface {
	List(ctx context.Context) ([]*project.Version, error)
	Lookup(ctx context.Context, id string) (*project.Version, error)
}

type Options struct {
	// Registry defaults to task.DefaultRegistry.
	Registry *task.Registry
	// Store persists the installed version. Nil keeps it in memory only.
	Store project.VersionStore
	// Catalog resolves ids for SetupInteractive. Nil accepts any id as is.
	Catalog Catalog
	// Flags seeds the per-side flags, typically from project.Probe.
	Flags map[task.Side]task.Flags
}

type Orchestrator struct {
	state    *project.State
	registry *task.Registry
	exec     *executor.Executor
	flow     *confirm.Flow
	gate     *versiongate.Gate
	catalog  Catalog
	ui       Presentation
}

// New loads the installed version from the store and assembles the core.
func New(ctx context.Context, op executor.Operation, ui Presentation, opts Options) (*Orchestrator, error) {
	registry := opts.Registry
	if registry == nil {
		registry = task.DefaultRegistry()
	}
	var installed *project.Version
	var execOpts []executor.Option
	if opts.Store != nil {
		v, err := opts.Store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load installed version: %w", err)
		}
		installed = v
		execOpts = append(execOpts, executor.WithVersionStore(opts.Store))
	}
	state := project.NewState(installed, opts.Flags)
	exec := executor.New(state, registry, op, ui, execOpts...)
	o := &Orchestrator{
		state:    state,
		registry: registry,
		exec:     exec,
		flow:     confirm.NewFlow(registry, state, exec, ui, ui),
		gate:     versiongate.New(state, exec, ui, ui),
		catalog:  opts.Catalog,
		ui:       ui,
	}
	logger.FromContext(ctx).Debug("Orchestrator ready", "version", project.ID(installed))
	return o, nil
}

// Invoke runs mode for side after its confirmations. SETUP asks for the
// version id first and is only accepted for task.SideAny.
func (o *Orchestrator) Invoke(ctx context.Context, mode task.Mode, side task.Side) (*executor.Run, error) {
	if mode == task.ModeSetup {
		if err := o.checkSetup(side); err != nil {
			return nil, err
		}
		return o.SetupInteractive(ctx, "")
	}
	return o.flow.Invoke(ctx, mode, side, nil)
}

// checkSetup refuses SETUP for side before anything is asked.
func (o *Orchestrator) checkSetup(side task.Side) error {
	snap := o.state.Snapshot()
	if o.registry.IsAvailable(snap, task.ModeSetup, side) {
		return nil
	}
	return &executor.IneligibleError{
		Mode:   task.ModeSetup,
		Side:   side,
		Reason: o.registry.Explain(snap, task.ModeSetup, side),
	}
}

// RequestVersion switches to v after confirmation.
func (o *Orchestrator) RequestVersion(ctx context.Context, v *project.Version) (*executor.Run, error) {
	return o.gate.RequestVersion(ctx, v)
}

// SetupInteractive resolves id through the catalog and requests it. An empty
// id is asked for; a dismissed or empty answer declines. It fails with
// executor.ErrIneligibleOperation while another run is active.
func (o *Orchestrator) SetupInteractive(ctx context.Context, id string) (*executor.Run, error) {
	if err := o.checkSetup(task.SideAny); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		answer, ok, err := o.ui.PromptText(ctx, confirm.Prompt{
			Key:     "setup_version",
			Title:   "Set up version",
			Message: "Enter the id of the version to set up",
		})
		if err != nil {
			o.ui.NotifyLog(fmt.Sprintf("Set up version: %v", err))
			return executor.DeclinedRun(task.ModeSetup, task.SideAny), nil
		}
		id = strings.TrimSpace(answer)
		if !ok || id == "" {
			return executor.DeclinedRun(task.ModeSetup, task.SideAny), nil
		}
	}
	v, err := o.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.RequestVersion(ctx, v)
}

func (o *Orchestrator) resolve(ctx context.Context, id string) (*project.Version, error) {
	if o.catalog == nil {
		return &project.Version{ID: id}, nil
	}
	v, err := o.catalog.Lookup(ctx, id)
	if errors.Is(err, catalog.ErrNoSource) {
		return &project.Version{ID: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Versions lists the catalog.
func (o *Orchestrator) Versions(ctx context.Context) ([]*project.Version, error) {
	if o.catalog == nil {
		return nil, catalog.ErrNoSource
	}
	return o.catalog.List(ctx)
}

// QueryState returns a snapshot for rendering.
func (o *Orchestrator) QueryState() project.Snapshot {
	return o.state.Snapshot()
}

// Availability returns the enable state of every mode for side.
func (o *Orchestrator) Availability(side task.Side) map[task.Mode]bool {
	return o.registry.Availability(o.state.Snapshot(), side)
}

// Explain returns why mode is unavailable for side, or "".
func (o *Orchestrator) Explain(mode task.Mode, side task.Side) string {
	return o.registry.Explain(o.state.Snapshot(), mode, side)
}

// Wait blocks until no run is in flight.
func (o *Orchestrator) Wait() {
	o.exec.Wait()
}
