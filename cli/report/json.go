package report

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/mcphackers/mcpctl/pkg/logger"
)

// Event is one line of JSON output.
type Event struct {
	Type    string           `json:"type"`
	Time    time.Time        `json:"time"`
	Mode    string           `json:"mode,omitempty"`
	Side    string           `json:"side,omitempty"`
	Message string           `json:"message,omitempty"`
	Percent *int             `json:"percent,omitempty"`
	Status  string           `json:"status,omitempty"`
	Error   string           `json:"error,omitempty"`
	Version *project.Version `json:"version,omitempty"`
}

const (
	EventProgress = "progress"
	EventOutcome  = "outcome"
	EventLog      = "log"
	EventVersion  = "version"
)

// JSON writes one event per line. The first write failure is logged, later
// ones are dropped silently.
type JSON struct {
	mu     sync.Mutex
	enc    *json.Encoder
	now    func() time.Time
	log    logger.Logger
	broken bool
}

func NewJSON(out io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(out), now: time.Now, log: logger.GetDefault()}
}

func (j *JSON) emit(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e.Time = j.now().UTC()
	if err := j.enc.Encode(e); err != nil && !j.broken {
		j.broken = true
		j.log.Warn("Failed to write event", "type", e.Type, "error", err)
	}
}

func (j *JSON) ReportProgress(p executor.Progress) {
	e := Event{Type: EventProgress, Side: p.Side.String()}
	if p.Kind == executor.ProgressPercent {
		pct := p.Percent
		e.Percent = &pct
	} else {
		e.Message = p.Message
	}
	j.emit(e)
}

func (j *JSON) ReportOutcome(mode task.Mode, side task.Side, o executor.Outcome) {
	j.emit(Event{
		Type:   EventOutcome,
		Mode:   mode.CommandName(),
		Side:   side.String(),
		Status: string(o.Status),
		Error:  o.Diagnostic(),
	})
}

func (j *JSON) NotifyLog(msg string) {
	j.emit(Event{Type: EventLog, Message: msg})
}

func (j *JSON) ReportVersion(v *project.Version) {
	j.emit(Event{Type: EventVersion, Version: v})
}
