// Package agent runs the plan/execute/evaluate loop that drives a task to
// completion: request a plan, execute it action by action, recover from
// failures, then ask the model whether more work remains.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot-dev/taskpilot/internal/action"
	"github.com/taskpilot-dev/taskpilot/internal/display"
	"github.com/taskpilot-dev/taskpilot/internal/executor"
	"github.com/taskpilot-dev/taskpilot/internal/llm"
	"github.com/taskpilot-dev/taskpilot/internal/logs"
	"github.com/taskpilot-dev/taskpilot/internal/plan"
	"github.com/taskpilot-dev/taskpilot/internal/recovery"
)

// DefaultMaxPlans is the plan-counter ceiling
const DefaultMaxPlans = 10

// actionPacing is the delay between consecutive mutating actions so a human
// watching the run can follow along. Discovery actions and --fast skip it.
const actionPacing = 350 * time.Millisecond

// Options tunes one run of the loop
type Options struct {
	MaxPlans int  // plan ceiling, DefaultMaxPlans when zero
	Fast     bool // skip pacing delays between actions
}

// Deps are the collaborators the agent orchestrates. Display and Transcript
// may be nil.
type Deps struct {
	Backend    llm.Backend
	Executor   *executor.Executor
	Recovery   *recovery.Manager
	Display    *display.Display
	Logger     *slog.Logger
	Transcript *logs.Transcript
}

// Result is the structured outcome of a run. Guard trips and exhausted
// recovery produce a failed Result, not an error: only infrastructure
// problems (backend unreachable, context cancelled) surface as errors.
type Result struct {
	RunID          string        `json:"run_id"`
	Success        bool          `json:"success"`
	Reason         string        `json:"reason"`
	CompletedSteps int           `json:"completed_steps"`
	TotalPlans     int           `json:"total_plans"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Agent owns one task run
type Agent struct {
	backend    llm.Backend
	exec       *executor.Executor
	rec        *recovery.Manager
	disp       *display.Display
	logger     *slog.Logger
	transcript *logs.Transcript
	opts       Options
}

// New wires an agent from its collaborators
func New(opts Options, deps Deps) *Agent {
	if opts.MaxPlans <= 0 {
		opts.MaxPlans = DefaultMaxPlans
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		backend:    deps.Backend,
		exec:       deps.Executor,
		rec:        deps.Recovery,
		disp:       deps.Display,
		logger:     logger,
		transcript: deps.Transcript,
		opts:       opts,
	}
}

// stopSignal carries a terminal condition out of plan execution
type stopSignal struct {
	success bool
	reason  string
	err     error
}

// Run executes the loop until the model declares the task complete, a guard
// trips, recovery exhausts, the user cancels, or the backend fails.
func (a *Agent) Run(ctx context.Context, task string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	a.logger.Info("run starting", "run_id", runID, "task", task)
	a.transcript.RunStart(runID, task)
	if a.disp != nil {
		a.disp.Box("TASKPILOT", "Task: "+display.Truncate(task, 200))
		a.disp.Thinking("planning")
	}

	current, err := llm.GeneratePlan(ctx, a.backend, a.logger, task, "")
	if err != nil {
		res := a.finish(start, runID, false, "cannot generate initial plan: "+err.Error(), 0)
		return res, err
	}

	var (
		executionResults []executor.PlanResult
		previousPlans    []*plan.Plan
	)

	planNumber := 1
	for {
		pr, stop := a.executePlan(ctx, task, current, planNumber)
		executionResults = append(executionResults, *pr)
		previousPlans = append(previousPlans, current)
		a.transcript.PlanExecuted(planNumber, current, pr)

		if stop != nil {
			return a.finish(start, runID, stop.success, stop.reason, len(executionResults)), stop.err
		}

		if current.IsTerminal() {
			return a.finish(start, runID, true, "task complete", len(executionResults)), nil
		}

		if ge := checkRepetition(executionResults); ge != nil {
			return a.finish(start, runID, false, ge.Error(), len(executionResults)), nil
		}

		planNumber++
		if ge := checkPlanCeiling(planNumber, a.opts.MaxPlans); ge != nil {
			return a.finish(start, runID, false, ge.Error(), len(executionResults)), nil
		}

		if a.disp != nil {
			a.disp.Thinking("evaluating progress")
		}
		next, err := llm.Evaluate(ctx, a.backend, a.logger, task, executionResults, previousPlans)
		if err != nil {
			res := a.finish(start, runID, false, "evaluation failed: "+err.Error(), len(executionResults))
			return res, err
		}
		current = next
	}
}

// executePlan walks the plan's actions by index. A corrected plan from
// recovery replaces the whole plan and resets the index to its start, so the
// index must not be a range variable.
func (a *Agent) executePlan(ctx context.Context, task string, p *plan.Plan, planNumber int) (*executor.PlanResult, *stopSignal) {
	if a.disp != nil {
		a.disp.PlanHeader(planNumber, len(p.Actions), p.Strategy)
	}

	pr := &executor.PlanResult{PlanNumber: planNumber}
	started := time.Now()
	defer func() { pr.ExecutionTime = time.Since(started) }()

	adopted := false
	i := 0
	for i < len(p.Actions) {
		act := &p.Actions[i]
		action.Repair(act, task)

		result, err := a.exec.Execute(ctx, act)
		if err == nil {
			act.Status = action.StatusCompleted
			act.Result = result
			pr.Results = append(pr.Results, executor.ActionResult{
				Action: *act, Success: true, Result: result,
			})
			a.pace(ctx, act)
			i++
			continue
		}

		if errors.Is(err, executor.ErrDeclined) {
			act.Status = action.StatusSkipped
			return pr, &stopSignal{reason: "run cancelled: action declined by user"}
		}
		if ctx.Err() != nil {
			return pr, &stopSignal{reason: "run cancelled", err: ctx.Err()}
		}

		act.Status = action.StatusFailed
		act.Error = err.Error()
		pr.Results = append(pr.Results, executor.ActionResult{
			Action: *act, Success: false, Error: err.Error(),
		})
		if a.disp != nil {
			a.disp.Error(display.Truncate(err.Error(), 200))
		}

		decision, recErr := a.rec.Handle(ctx, task, p, pr.Results, err)
		if recErr != nil {
			var exhausted *recovery.ExhaustedError
			if errors.As(recErr, &exhausted) {
				return pr, &stopSignal{reason: exhausted.Error()}
			}
			return pr, &stopSignal{reason: "recovery failed: " + recErr.Error(), err: recErr}
		}
		a.transcript.Recovery(string(decision.Kind), err.Error())

		switch decision.Kind {
		case recovery.DecisionAbort:
			return pr, &stopSignal{reason: "aborted by user after action failure"}
		case recovery.DecisionSkip:
			act.Status = action.StatusSkipped
			if a.disp != nil {
				a.disp.Skipped("skipped: " + display.Truncate(act.Description, 120))
			}
			i++
		case recovery.DecisionRetry:
			if a.disp != nil {
				a.disp.Warning(fmt.Sprintf("adopting corrected plan (%d action(s))",
					len(decision.CorrectedPlan.Actions)))
			}
			*p = *decision.CorrectedPlan
			i = 0
			adopted = true
		}
	}

	// A corrected plan that ran to the end without further failures is a
	// successful recovery; forgive the attempt counter.
	if adopted {
		a.rec.Reset()
	}
	return pr, nil
}

// pace inserts the inter-action delay for mutating actions
func (a *Agent) pace(ctx context.Context, act *action.Action) {
	if a.opts.Fast || act.Kind.IsDiscovery() || act.Kind.IsCommunication() {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(actionPacing):
	}
}

func (a *Agent) finish(start time.Time, runID string, success bool, reason string, plans int) *Result {
	res := &Result{
		RunID:          runID,
		Success:        success,
		Reason:         reason,
		CompletedSteps: a.exec.StepsCompleted(),
		TotalPlans:     plans,
		Elapsed:        time.Since(start),
	}
	a.logger.Info("run finished",
		"run_id", runID, "success", success, "reason", reason,
		"steps", res.CompletedSteps, "plans", plans)
	a.transcript.RunEnd(success, reason, res.CompletedSteps, plans, res.Elapsed)
	if a.disp != nil {
		a.disp.Outcome(success, reason, res.CompletedSteps, plans, res.Elapsed)
	}
	return res
}
