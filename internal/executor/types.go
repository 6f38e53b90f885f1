package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskpilot-dev/taskpilot/internal/action"
)

// ActionResult records the outcome of one executed action
type ActionResult struct {
	Action  action.Action `json:"action"`
	Success bool          `json:"success"`
	Result  string        `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// PlanResult aggregates the results of one plan's execution
type PlanResult struct {
	PlanNumber    int            `json:"plan_number"`
	ExecutionTime time.Duration  `json:"execution_time"`
	Results       []ActionResult `json:"results"`
}

// Errors returns the error strings recorded in the plan's results
func (r *PlanResult) Errors() []string {
	var errs []string
	for _, res := range r.Results {
		if !res.Success && res.Error != "" {
			errs = append(errs, res.Error)
		}
	}
	return errs
}

// UnsupportedError reports an action kind the executor has no operation for.
// Unknown kinds survive parsing so they can be rejected here explicitly.
type UnsupportedError struct {
	Kind action.Kind
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported action kind %q", e.Kind)
}

// diagnosticLimit bounds how much captured output an ExecError embeds
const diagnosticLimit = 2000

// ExecError is a failed filesystem or shell operation. Its message embeds the
// captured diagnostics so the recovery manager, and ultimately the model, have
// enough context to self-correct.
type ExecError struct {
	Op       string // operation that failed, e.g. "create_file", "run_command"
	Path     string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *ExecError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Path != "" {
		sb.WriteString(" " + e.Path)
	}
	sb.WriteString(" failed")
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&sb, " (exit code %d)", e.ExitCode)
	}
	if out := strings.TrimSpace(e.Stdout); out != "" {
		sb.WriteString("\nstdout: " + truncateDiagnostic(out))
	}
	if errOut := strings.TrimSpace(e.Stderr); errOut != "" {
		sb.WriteString("\nstderr: " + truncateDiagnostic(errOut))
	}
	return sb.String()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

func truncateDiagnostic(s string) string {
	if len(s) > diagnosticLimit {
		return s[:diagnosticLimit] + "... (truncated)"
	}
	return s
}

// ErrDeclined is returned when the user answers "no" to a run confirmation.
// The loop treats it as a user-driven cancellation of the run.
var ErrDeclined = fmt.Errorf("action declined by user")
