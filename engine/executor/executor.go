package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/pkg/logger"
)

// Operation performs the actual work of a mode. Implementations emit progress
// through the supplied function and return nil on success.
type Operation interface {
	Execute(ctx context.Context, job Job, progress ProgressFunc) error
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(ctx context.Context, job Job, progress ProgressFunc) error

func (f OperationFunc) Execute(ctx context.Context, job Job, progress ProgressFunc) error {
	return f(ctx, job, progress)
}

// Reporter receives progress and outcomes. It is called from the run goroutine.
type Reporter interface {
	ReportProgress(p Progress)
	ReportOutcome(mode task.Mode, side task.Side, outcome Outcome)
	NotifyLog(msg string)
}

// Executor runs at most one operation at a time against a project state.
type Executor struct {
	state    *project.State
	registry *task.Registry
	op       Operation
	reporter Reporter
	store    project.VersionStore
	inflight sync.WaitGroup
}

// Option configures an Executor.
type Option func(*Executor)

// WithVersionStore persists the installed version after a successful SETUP.
func WithVersionStore(store project.VersionStore) Option {
	return func(e *Executor) {
		e.store = store
	}
}

// New creates an executor.
func New(
	state *project.State,
	registry *task.Registry,
	op Operation,
	reporter Reporter,
	opts ...Option,
) *Executor {
	e := &Executor{
		state:    state,
		registry: registry,
		op:       op,
		reporter: reporter,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts req in the background. It fails synchronously with an
// *IneligibleError when another run is active or the mode is not available;
// in that case nothing is started and the state is untouched.
func (e *Executor) Run(ctx context.Context, req Request) (*Run, error) {
	if req.Mode == task.ModeSetup && req.Version == nil {
		return nil, &IneligibleError{Mode: req.Mode, Side: req.Side, Reason: "no target version given"}
	}
	if !e.state.TryActivate() {
		return nil, &IneligibleError{Mode: req.Mode, Side: req.Side, Reason: "another task is running"}
	}
	snap := e.state.Snapshot()
	targets, ok := e.registry.Targets(snap, req.Mode, req.Side)
	if !ok {
		idle := snap
		idle.IsActive = false
		reason := e.registry.Explain(idle, req.Mode, req.Side)
		e.state.Deactivate()
		return nil, &IneligibleError{Mode: req.Mode, Side: req.Side, Reason: reason}
	}
	run := newRun(req.Mode, req.Side, targets)
	log := logger.FromContext(ctx)
	log.Info("Task started", "run_id", run.ID, "mode", run.Mode, "side", run.Side)
	e.inflight.Add(1)
	go e.execute(context.WithoutCancel(ctx), run, req)
	return run, nil
}

// Wait blocks until no run is in flight.
func (e *Executor) Wait() {
	e.inflight.Wait()
}

func (e *Executor) execute(ctx context.Context, run *Run, req Request) {
	defer e.inflight.Done()
	log := logger.FromContext(ctx)
	outcome := e.perform(ctx, run, req)
	e.state.Deactivate()
	if outcome.Failed() {
		log.Error("Task failed", "run_id", run.ID, "mode", run.Mode, "error", outcome.Err)
	} else {
		log.Info("Task finished", "run_id", run.ID, "mode", run.Mode, "duration", run.Duration())
	}
	e.guard(ctx, "report outcome", func() {
		e.reporter.ReportOutcome(run.Mode, run.Side, outcome)
	})
	if req.OnDone != nil {
		e.guard(ctx, "completion hook", func() {
			req.OnDone(outcome)
		})
	}
	run.finish(outcome)
}

// perform runs the operation and applies its result to the state. The state
// is only advanced when everything succeeded.
func (e *Executor) perform(ctx context.Context, run *Run, req Request) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Failure(&FailureError{Mode: run.Mode, Side: run.Side, Cause: fmt.Errorf("panic: %v", r)})
		}
	}()
	job := Job{
		RunID:   run.ID,
		Mode:    run.Mode,
		Side:    run.Side,
		Targets: run.Targets,
		Params:  req.Params.Clone(),
		Version: req.Version,
	}
	if err := e.op.Execute(ctx, job, e.reporter.ReportProgress); err != nil {
		return Failure(&FailureError{Mode: run.Mode, Side: run.Side, Cause: err})
	}
	if run.Mode == task.ModeSetup {
		if err := e.install(req.Version); err != nil {
			return Failure(&FailureError{Mode: run.Mode, Side: run.Side, Cause: err})
		}
	}
	e.state.Advance(run.Mode, run.Targets)
	return Success()
}

func (e *Executor) install(v *project.Version) error {
	if e.store != nil {
		if err := e.store.Save(v); err != nil {
			return fmt.Errorf("failed to record installed version: %w", err)
		}
	}
	e.state.Install(v)
	return nil
}

func (e *Executor) guard(ctx context.Context, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Recovered from panic", "during", what, "panic", r)
		}
	}()
	fn()
}
