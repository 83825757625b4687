package executor

import (
	"fmt"

	"github.com/mcphackers/mcpctl/engine/task"
)

// -----------------------------------------------------------------------------
// Outcome
// -----------------------------------------------------------------------------

type OutcomeStatus string

const (
	StatusSuccess  OutcomeStatus = "SUCCESS"
	StatusFailed   OutcomeStatus = "FAILED"
	StatusDeclined OutcomeStatus = "DECLINED"
)

// Outcome is the terminal result of a run.
type Outcome struct {
	Status OutcomeStatus
	// Err carries the diagnostic of a failed run.
	Err error
}

func Success() Outcome { return Outcome{Status: StatusSuccess} }

func Declined() Outcome { return Outcome{Status: StatusDeclined} }

func Failure(err error) Outcome {
	if err == nil {
		err = fmt.Errorf("unknown failure")
	}
	return Outcome{Status: StatusFailed, Err: err}
}

func (o Outcome) Succeeded() bool { return o.Status == StatusSuccess }

func (o Outcome) Failed() bool { return o.Status == StatusFailed }

func (o Outcome) WasDeclined() bool { return o.Status == StatusDeclined }

// Diagnostic returns the failure message, or "" for other outcomes.
func (o Outcome) Diagnostic() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

func (o Outcome) String() string {
	if o.Failed() {
		return fmt.Sprintf("%s: %s", o.Status, o.Diagnostic())
	}
	return string(o.Status)
}

// -----------------------------------------------------------------------------
// Progress
// -----------------------------------------------------------------------------

type ProgressKind string

const (
	ProgressMessage ProgressKind = "message"
	ProgressPercent ProgressKind = "percent"
)

// Progress is one event emitted by a running operation.
type Progress struct {
	Side    task.Side
	Kind    ProgressKind
	Message string
	Percent int
}

// Message builds a text progress event.
func Message(side task.Side, msg string) Progress {
	return Progress{Side: side, Kind: ProgressMessage, Message: msg}
}

// Percent builds a completion progress event. Values are clamped to 0..100.
func Percent(side task.Side, pct int) Progress {
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	return Progress{Side: side, Kind: ProgressPercent, Percent: pct}
}

// ProgressFunc receives progress events in emission order.
type ProgressFunc func(p Progress)
