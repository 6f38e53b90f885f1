// Package plan defines the plan model produced by the model and the tolerant
// parser that extracts it from semi-structured response text.
package plan

import (
	"fmt"

	"github.com/taskpilot-dev/taskpilot/internal/action"
)

// Status represents the model's verdict on whether more work remains
type Status string

const (
	// StatusContinue means the model expects further plans after this one
	StatusContinue Status = "continue"
	// StatusComplete means the task is done once this plan's actions finish
	StatusComplete Status = "complete"
)

// IsValid checks if a plan status is valid
func (s Status) IsValid() bool {
	return s == StatusContinue || s == StatusComplete
}

// AllStatuses returns all valid plan status values
func AllStatuses() []Status {
	return []Status{StatusContinue, StatusComplete}
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Plan is an ordered list of actions plus the model's narrative fields.
// A complete plan with zero actions is a terminal state; a complete plan
// with actions still executes them before the run terminates.
type Plan struct {
	Status    Status          `json:"status"`
	Analysis  string          `json:"analysis,omitempty"`
	Strategy  string          `json:"strategy,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
	Actions   []action.Action `json:"actions"`
}

// Validate ensures the plan is structurally sound
func (p *Plan) Validate() error {
	if p.Status == "" {
		p.Status = StatusContinue
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("plan.status: invalid value %q, must be one of: %v",
			p.Status, AllStatuses())
	}
	return nil
}

// IsTerminal reports whether the plan ends the run once executed
func (p *Plan) IsTerminal() bool {
	return p.Status == StatusComplete
}

// ActionResponse is the parsed form of a single-action model reply, used by
// flows that ask for one next step instead of a full plan.
type ActionResponse struct {
	Status     Status         `json:"status"`
	NextAction *action.Action `json:"next_action,omitempty"`
	Summary    string         `json:"summary,omitempty"`
}

// ParseError reports model output with no recognizable plan structure. It
// carries a truncated snippet of the original text for diagnostics.
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse plan: %s (response: %q)", e.Reason, e.Snippet)
}

// snippetLimit bounds how much of the raw response a ParseError retains
const snippetLimit = 400

func newParseError(reason, raw string) *ParseError {
	snippet := raw
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit] + "..."
	}
	return &ParseError{Reason: reason, Snippet: snippet}
}
