package confirm

import (
	"context"
	"fmt"

	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/pkg/logger"
)

// Flow runs the confirmation sequence of a mode and then hands the request to
// the runner. All prompts complete before the first runner call.
type Flow struct {
	registry *task.Registry
	state    StateReader
	runner   Runner
	prompter Prompter
	notifier Notifier
	policies func(task.Mode) Policy
}

type FlowOption func(*Flow)

// WithPolicies replaces the policy lookup.
func WithPolicies(lookup func(task.Mode) Policy) FlowOption {
	return func(f *Flow) {
		f.policies = lookup
	}
}

func NewFlow(
	registry *task.Registry,
	state StateReader,
	runner Runner,
	prompter Prompter,
	notifier Notifier,
	opts ...FlowOption,
) *Flow {
	f := &Flow{
		registry: registry,
		state:    state,
		runner:   runner,
		prompter: prompter,
		notifier: notifier,
		policies: PolicyFor,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Invoke confirms and starts mode for side. A declined flow returns a
// completed Declined run and starts nothing. Ineligible requests fail with an
// *executor.IneligibleError before any prompt is shown.
func (f *Flow) Invoke(ctx context.Context, mode task.Mode, side task.Side, params task.Params) (*executor.Run, error) {
	snap := f.state.Snapshot()
	if !f.registry.IsAvailable(snap, mode, side) {
		return nil, &executor.IneligibleError{
			Mode:   mode,
			Side:   side,
			Reason: f.registry.Explain(snap, mode, side),
		}
	}
	policy := f.policies(mode)
	if policy.Applies(f.registry, snap, side) {
		proceed, err := f.confirm(ctx, mode, side, policy)
		if err != nil {
			return nil, err
		}
		if !proceed {
			logger.FromContext(ctx).Info("Task declined", "mode", mode, "side", side)
			return executor.DeclinedRun(mode, side), nil
		}
	}
	return f.runner.Run(ctx, executor.Request{Mode: mode, Side: side, Params: params})
}

func (f *Flow) confirm(ctx context.Context, mode task.Mode, side task.Side, policy Policy) (bool, error) {
	for _, step := range policy.Steps {
		prompt := step.Prompt(side)
		switch step.Kind {
		case StepConfirm:
			ok, err := f.prompter.Confirm(ctx, prompt)
			if err != nil {
				f.promptFailed(ctx, prompt, err)
				return false, nil
			}
			if !ok {
				return false, nil
			}
		case StepThreeWay:
			answer, err := f.prompter.ConfirmThreeWay(ctx, prompt)
			if err != nil {
				f.promptFailed(ctx, prompt, err)
				return false, nil
			}
			switch answer {
			case AnswerCancel:
				return false, nil
			case AnswerYes:
				if step.Aux == "" {
					continue
				}
				ok, err := f.runAux(ctx, step.Aux, mode, side)
				if err != nil || !ok {
					return false, err
				}
			}
		default:
			return false, fmt.Errorf("unknown confirmation step %q", step.Kind)
		}
	}
	return true, nil
}

// runAux runs an auxiliary mode through the runner and waits for it. The
// primary mode only proceeds after a successful auxiliary run: a failed
// backup leaves the existing sources in place instead of decompiling over
// them.
func (f *Flow) runAux(ctx context.Context, aux, primary task.Mode, side task.Side) (bool, error) {
	run, err := f.runner.Run(ctx, executor.Request{Mode: aux, Side: side})
	if err != nil {
		return false, err
	}
	outcome, err := run.Wait(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to wait for %s: %w", aux, err)
	}
	if !outcome.Succeeded() {
		f.notifier.NotifyLog(fmt.Sprintf("%s did not succeed, %s was not started: %s", aux, primary, outcome))
		return false, nil
	}
	return true, nil
}

func (f *Flow) promptFailed(ctx context.Context, p Prompt, err error) {
	logger.FromContext(ctx).Warn("Confirmation prompt failed", "prompt", p.Key, "error", err)
	f.notifier.NotifyLog(fmt.Sprintf("%s: %v", p.Title, err))
}
