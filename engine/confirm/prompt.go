package confirm

import (
	"context"
	"errors"

	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
)

// Answer is the reply to a three-way question.
type Answer int

const (
	AnswerYes Answer = iota
	AnswerNo
	AnswerCancel
)

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "cancel"
	}
}

// ErrNoInput is returned by prompters that cannot ask the user anything.
var ErrNoInput = errors.New("no interactive input available")

// Prompt is one question put to the user.
type Prompt struct {
	// Key identifies the question independently of its wording.
	Key     string
	Title   string
	Message string
}

// Prompter asks the user blocking questions on the caller's goroutine.
type Prompter interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
	ConfirmThreeWay(ctx context.Context, p Prompt) (Answer, error)
	// PromptText returns false when the user dismissed the question.
	PromptText(ctx context.Context, p Prompt) (string, bool, error)
}

// Runner starts executor runs.
type Runner interface {
	Run(ctx context.Context, req executor.Request) (*executor.Run, error)
}

// StateReader yields fresh project snapshots.
type StateReader interface {
	Snapshot() project.Snapshot
}

// Notifier receives informational log lines for the user.
type Notifier interface {
	NotifyLog(msg string)
}
