// Package recovery decides what happens after an action fails: retry with a
// corrected plan, skip the action, or abort the run.
package recovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskpilot-dev/taskpilot/internal/executor"
	"github.com/taskpilot-dev/taskpilot/internal/llm"
	"github.com/taskpilot-dev/taskpilot/internal/plan"
)

// DecisionKind is the recovery action chosen after a failure
type DecisionKind string

const (
	DecisionRetry DecisionKind = "retry"
	DecisionSkip  DecisionKind = "skip"
	DecisionAbort DecisionKind = "abort"
)

// Decision is the outcome of handling one failure. It is created fresh per
// failure and discarded once applied. A retry decision carries the corrected
// plan that replaces the remainder of the current plan.
type Decision struct {
	Kind          DecisionKind
	CorrectedPlan *plan.Plan
}

// Chooser asks the user how to recover. Instructions, when non-empty, are
// extra guidance passed into the corrected-plan request. In unattended mode
// no Chooser is set and the manager defaults to retry.
type Chooser func(errMsg string) (kind DecisionKind, instructions string, err error)

// DefaultMaxAttempts is the recovery attempt ceiling
const DefaultMaxAttempts = 3

// ExhaustedError reports that the attempt ceiling was reached. It is fatal
// to the run regardless of the recovery action requested.
type ExhaustedError struct {
	Attempts  int
	LastError string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("recovery exhausted after %d attempts (last error: %s)",
		e.Attempts, e.LastError)
}

// Manager owns the bounded attempt counter and the retry/skip/abort decision
type Manager struct {
	backend     llm.Backend
	chooser     Chooser
	logger      *slog.Logger
	attempts    int
	maxAttempts int
}

// NewManager creates a recovery manager. A nil chooser means unattended
// mode: every failure defaults to retry-with-corrected-plan.
func NewManager(backend llm.Backend, chooser Chooser, logger *slog.Logger, maxAttempts int) *Manager {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:     backend,
		chooser:     chooser,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Attempts returns the number of failures handled since the last reset
func (m *Manager) Attempts() int {
	return m.attempts
}

// Reset clears the attempt counter. The loop calls this once an adopted
// corrected plan executes cleanly: a successful recovery forgives prior
// attempts.
func (m *Manager) Reset() {
	m.attempts = 0
}

// Handle processes one execution failure. The attempt counter increments
// once per call; reaching the ceiling returns *ExhaustedError no matter
// which recovery action would otherwise have been chosen.
func (m *Manager) Handle(ctx context.Context, task string, current *plan.Plan, completed []executor.ActionResult, execErr error) (*Decision, error) {
	m.attempts++

	errMsg := execErr.Error()
	class := Classify(errMsg)
	m.logger.Info("handling execution failure",
		"attempt", m.attempts, "max", m.maxAttempts, "class", class)

	if m.attempts >= m.maxAttempts {
		return nil, &ExhaustedError{Attempts: m.attempts, LastError: errMsg}
	}

	kind := DecisionRetry
	instructions := ""
	if m.chooser != nil {
		var err error
		kind, instructions, err = m.chooser(errMsg)
		if err != nil {
			return nil, err
		}
	}

	switch kind {
	case DecisionSkip, DecisionAbort:
		return &Decision{Kind: kind}, nil
	case DecisionRetry:
		corrected, err := m.requestCorrectedPlan(ctx, task, current, completed, errMsg, class, instructions)
		if err != nil {
			return nil, fmt.Errorf("cannot generate corrected plan: %w", err)
		}
		return &Decision{Kind: DecisionRetry, CorrectedPlan: corrected}, nil
	default:
		return nil, fmt.Errorf("recovery: unknown decision %q", kind)
	}
}

func (m *Manager) requestCorrectedPlan(ctx context.Context, task string, current *plan.Plan, completed []executor.ActionResult, errMsg string, class Classification, instructions string) (*plan.Plan, error) {
	if instructions != "" {
		errMsg += "\nUser guidance: " + instructions
	}
	return llm.GenerateCorrectedPlan(ctx, m.backend, m.logger,
		task, current, completed, errMsg, class.String())
}
