package executor

import (
	"context"
	"time"

	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/segmentio/ksuid"
)

// Request asks the executor to run one mode.
type Request struct {
	Mode   task.Mode
	Side   task.Side
	Params task.Params
	// Version is the pending target of a SETUP run.
	Version *project.Version
	// OnDone runs on the run goroutine after the outcome has been reported and
	// before Done is closed.
	OnDone func(Outcome)
}

// Job is what an operation receives for one run.
type Job struct {
	RunID   string
	Mode    task.Mode
	Side    task.Side
	Targets []task.Side
	Params  task.Params
	Version *project.Version
}

// Run is the handle of one execution.
type Run struct {
	ID        string
	Mode      task.Mode
	Side      task.Side
	Targets   []task.Side
	StartedAt time.Time

	done       chan struct{}
	outcome    Outcome
	finishedAt time.Time
}

func newRun(mode task.Mode, side task.Side, targets []task.Side) *Run {
	return &Run{
		ID:        ksuid.New().String(),
		Mode:      mode,
		Side:      side,
		Targets:   targets,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// DeclinedRun returns an already completed run for a flow the user aborted.
// No execution took place.
func DeclinedRun(mode task.Mode, side task.Side) *Run {
	return FinishedRun(mode, side, Declined())
}

// FinishedRun returns a run that is already in its terminal state.
func FinishedRun(mode task.Mode, side task.Side, outcome Outcome) *Run {
	r := newRun(mode, side, nil)
	r.finish(outcome)
	return r
}

func (r *Run) finish(o Outcome) {
	r.outcome = o
	r.finishedAt = time.Now()
	close(r.done)
}

// Done is closed once the run has reached its terminal outcome.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Outcome returns the terminal outcome and true once the run is done.
func (r *Run) Outcome() (Outcome, bool) {
	select {
	case <-r.done:
		return r.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the run is done or ctx ends.
func (r *Run) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Duration returns how long the run took, or the time elapsed so far.
func (r *Run) Duration() time.Duration {
	if _, ok := r.Outcome(); ok {
		return r.finishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
