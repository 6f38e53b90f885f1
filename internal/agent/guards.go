package agent

import (
	"fmt"

	"github.com/taskpilot-dev/taskpilot/internal/executor"
)

// guardWindow is how many recent plans the repetition guards inspect
const guardWindow = 3

// actionRepeatLimit aborts the run when the same action key occurs this many
// times within the window. A model stuck re-attempting the same fix is the
// dominant real-world halting case.
const actionRepeatLimit = 3

// GuardError reports a tripped loop guard. It is fatal to the run but not to
// the process: the loop converts it into a structured failure result.
type GuardError struct {
	Guard  string // "plan-ceiling", "error-repetition" or "action-repetition"
	Detail string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("loop guard %s tripped: %s", e.Guard, e.Detail)
}

// checkPlanCeiling fires when the plan counter exceeds the configured
// ceiling. The ceiling is the primary safety bound; the repetition guards
// below are an independent second layer.
func checkPlanCeiling(planNumber, maxPlans int) *GuardError {
	if planNumber > maxPlans {
		return &GuardError{
			Guard:  "plan-ceiling",
			Detail: fmt.Sprintf("plan %d exceeds the ceiling of %d, likely infinite loop", planNumber, maxPlans),
		}
	}
	return nil
}

// checkRepetition inspects the last guardWindow plans' results for a
// recurring error string or an action key executed actionRepeatLimit times.
func checkRepetition(results []executor.PlanResult) *GuardError {
	window := results
	if len(window) > guardWindow {
		window = window[len(window)-guardWindow:]
	}

	errorCounts := make(map[string]int)
	actionCounts := make(map[string]int)
	for _, pr := range window {
		for _, res := range pr.Results {
			if !res.Success && res.Error != "" {
				errorCounts[res.Error]++
			}
			actionCounts[res.Action.Key()]++
		}
	}

	for msg, count := range errorCounts {
		if count >= 2 {
			return &GuardError{
				Guard:  "error-repetition",
				Detail: fmt.Sprintf("error recurred %d times in the last %d plans: %s", count, len(window), msg),
			}
		}
	}
	for key, count := range actionCounts {
		if count >= actionRepeatLimit {
			return &GuardError{
				Guard:  "action-repetition",
				Detail: fmt.Sprintf("action %s executed %d times in the last %d plans", key, count, len(window)),
			}
		}
	}
	return nil
}
