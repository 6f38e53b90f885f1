// Package logs writes machine-readable run transcripts and builds the
// application logger.
package logs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taskpilot-dev/taskpilot/internal/executor"
	"github.com/taskpilot-dev/taskpilot/internal/plan"
)

// Event is one JSONL transcript record. One run emits a run_start event,
// one plan event per executed plan, a recovery event per handled failure,
// and a closing run_end event.
type Event struct {
	Time       time.Time               `json:"time"`
	Type       string                  `json:"type"` // run_start, plan, recovery, run_end
	RunID      string                  `json:"run_id,omitempty"`
	Task       string                  `json:"task,omitempty"`
	PlanNumber int                     `json:"plan_number,omitempty"`
	PlanStatus string                  `json:"plan_status,omitempty"`
	Strategy   string                  `json:"strategy,omitempty"`
	Results    []executor.ActionResult `json:"results,omitempty"`
	Decision   string                  `json:"decision,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Success    bool                    `json:"success,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
	Steps      int                     `json:"steps,omitempty"`
	Plans      int                     `json:"plans,omitempty"`
	Elapsed    string                  `json:"elapsed,omitempty"`
}

// Transcript appends run events to a rotated JSONL file. All methods are
// nil-receiver safe so callers can run without a transcript configured.
type Transcript struct {
	mu    sync.Mutex
	w     io.WriteCloser
	enc   *json.Encoder
	runID string
}

// NewTranscript opens (or creates) the transcript file at path with rotation
func NewTranscript(path string) *Transcript {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return &Transcript{w: lj, enc: json.NewEncoder(lj)}
}

func (t *Transcript) write(ev Event) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ev.Time = time.Now()
	if ev.RunID == "" {
		ev.RunID = t.runID
	}
	_ = t.enc.Encode(ev)
}

// RunStart opens a run in the transcript
func (t *Transcript) RunStart(runID, task string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.runID = runID
	t.mu.Unlock()
	t.write(Event{Type: "run_start", RunID: runID, Task: task})
}

// PlanExecuted records one executed plan with its per-action results
func (t *Transcript) PlanExecuted(planNumber int, p *plan.Plan, pr *executor.PlanResult) {
	if t == nil {
		return
	}
	ev := Event{
		Type:       "plan",
		PlanNumber: planNumber,
	}
	if p != nil {
		ev.PlanStatus = p.Status.String()
		ev.Strategy = p.Strategy
	}
	if pr != nil {
		ev.Results = pr.Results
		ev.Elapsed = pr.ExecutionTime.Round(time.Millisecond).String()
	}
	t.write(ev)
}

// Recovery records one handled execution failure and the decision taken
func (t *Transcript) Recovery(decision, errMsg string) {
	t.write(Event{Type: "recovery", Decision: decision, Error: errMsg})
}

// RunEnd closes the run in the transcript
func (t *Transcript) RunEnd(success bool, reason string, steps, plans int, elapsed time.Duration) {
	t.write(Event{
		Type:    "run_end",
		Success: success,
		Reason:  reason,
		Steps:   steps,
		Plans:   plans,
		Elapsed: elapsed.Round(time.Millisecond).String(),
	})
}

// Close flushes and closes the underlying file
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Close()
}

// maxEventLine bounds a single transcript line; plan events embed full
// action results and can get large.
const maxEventLine = 1024 * 1024

// ReadEvents returns the last limit events from a transcript file, oldest
// first. A limit of zero or less returns everything.
func ReadEvents(path string, limit int) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open transcript: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxEventLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue // tolerate partial or corrupt lines
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read transcript: %w", err)
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}
