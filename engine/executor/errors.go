package executor

import (
	"errors"
	"fmt"

	"github.com/mcphackers/mcpctl/engine/task"
)

var (
	// ErrIneligibleOperation is returned synchronously when a mode cannot run.
	ErrIneligibleOperation = errors.New("operation not eligible")
	// ErrOperationFailed marks a run that reached a failed terminal outcome.
	ErrOperationFailed = errors.New("operation failed")
)

// IneligibleError describes why a run was refused.
type IneligibleError struct {
	Mode   task.Mode
	Side   task.Side
	Reason string
}

func (e *IneligibleError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s (%s) is not available", e.Mode, e.Side)
	}
	return fmt.Sprintf("%s (%s) is not available: %s", e.Mode, e.Side, e.Reason)
}

func (e *IneligibleError) Is(target error) bool {
	return target == ErrIneligibleOperation
}

// FailureError wraps the diagnostic of a failed run.
type FailureError struct {
	Mode  task.Mode
	Side  task.Side
	Cause error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%s (%s) failed: %v", e.Mode, e.Side, e.Cause)
}

func (e *FailureError) Is(target error) bool {
	return target == ErrOperationFailed
}

func (e *FailureError) Unwrap() error {
	return e.Cause
}
