package confirm

import (
	"fmt"

	"github.com/mcphackers/mcpctl/engine/task"
)

type StepKind string

const (
	// StepConfirm asks yes/no; no declines the flow.
	StepConfirm StepKind = "confirm"
	// StepThreeWay asks yes/no/cancel; yes runs the auxiliary mode first, no
	// continues and cancel declines.
	StepThreeWay StepKind = "three_way"
)

// Step is one question of a confirmation sequence.
type Step struct {
	Kind   StepKind
	Prompt func(side task.Side) Prompt
	// Aux is the mode run before the primary one when a three-way step is
	// answered yes.
	Aux task.Mode
}

// Guard decides whether the steps of a policy apply at all.
type Guard func(registry *task.Registry, view task.View, side task.Side) bool

// Policy is the confirmation sequence declared for one mode. A nil guard
// always applies the steps.
type Policy struct {
	Guard Guard
	Steps []Step
}

// Applies reports whether the policy prompts for the given state.
func (p Policy) Applies(registry *task.Registry, view task.View, side task.Side) bool {
	if len(p.Steps) == 0 {
		return false
	}
	if p.Guard == nil {
		return true
	}
	return p.Guard(registry, view, side)
}

func recompileAvailable(registry *task.Registry, view task.View, side task.Side) bool {
	return registry.IsAvailable(view, task.ModeRecompile, side)
}

var policies = map[task.Mode]Policy{
	task.ModeDecompile: {
		Guard: recompileAvailable,
		Steps: []Step{
			{
				Kind: StepConfirm,
				Prompt: func(side task.Side) Prompt {
					return Prompt{
						Key:     "confirm_redecompile",
						Title:   "Decompile again?",
						Message: fmt.Sprintf("Sources for %s already exist and will be replaced.", side),
					}
				},
			},
			{
				Kind: StepThreeWay,
				Aux:  task.ModeBackupSource,
				Prompt: func(side task.Side) Prompt {
					return Prompt{
						Key:     "backup_sources",
						Title:   "Back up existing sources first?",
						Message: fmt.Sprintf("Copies the current %s sources before decompiling.", side),
					}
				},
			},
		},
	},
	task.ModeUpdateChecksums: {
		Steps: []Step{
			{
				Kind: StepConfirm,
				Prompt: func(side task.Side) Prompt {
					return Prompt{
						Key:     "confirm_update_checksums",
						Title:   "Update checksums?",
						Message: fmt.Sprintf("Modified %s classes will no longer be detected as changed.", side),
					}
				},
			},
		},
	},
}

// PolicyFor returns the policy declared for mode. Modes without a
// declaration get an empty policy.
func PolicyFor(mode task.Mode) Policy {
	return policies[mode]
}
