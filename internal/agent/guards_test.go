package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot-dev/taskpilot/internal/action"
	"github.com/taskpilot-dev/taskpilot/internal/executor"
)

func okResult(kind action.Kind, path string) executor.ActionResult {
	return executor.ActionResult{
		Action:  action.Action{Kind: kind, Params: action.Params{Path: path}},
		Success: true,
		Result:  "ok",
	}
}

func failResult(kind action.Kind, path, errMsg string) executor.ActionResult {
	return executor.ActionResult{
		Action:  action.Action{Kind: kind, Params: action.Params{Path: path}},
		Success: false,
		Error:   errMsg,
	}
}

func planOf(number int, results ...executor.ActionResult) executor.PlanResult {
	return executor.PlanResult{PlanNumber: number, Results: results}
}

func TestCheckPlanCeiling(t *testing.T) {
	assert.Nil(t, checkPlanCeiling(1, 10))
	assert.Nil(t, checkPlanCeiling(10, 10), "the ceiling itself is still allowed")

	ge := checkPlanCeiling(11, 10)
	require.NotNil(t, ge)
	assert.Equal(t, "plan-ceiling", ge.Guard)
	assert.Contains(t, ge.Error(), "plan 11 exceeds the ceiling of 10")
}

func TestCheckRepetitionErrors(t *testing.T) {
	t.Run("recurring error string trips", func(t *testing.T) {
		results := []executor.PlanResult{
			planOf(1, failResult(action.KindRunCommand, "", "exit status 7")),
			planOf(2, failResult(action.KindRunCommand, "", "exit status 7")),
		}
		ge := checkRepetition(results)
		require.NotNil(t, ge)
		assert.Equal(t, "error-repetition", ge.Guard)
		assert.Contains(t, ge.Detail, "exit status 7")
	})

	t.Run("distinct errors do not trip", func(t *testing.T) {
		results := []executor.PlanResult{
			planOf(1, failResult(action.KindRunCommand, "", "exit status 7")),
			planOf(2, failResult(action.KindRunCommand, "", "exit status 8")),
		}
		assert.Nil(t, checkRepetition(results))
	})

	t.Run("recurrence outside the window is forgotten", func(t *testing.T) {
		results := []executor.PlanResult{
			planOf(1, failResult(action.KindRunCommand, "", "boom")),
			planOf(2, okResult(action.KindCreateFile, "a.txt")),
			planOf(3, okResult(action.KindCreateFile, "b.txt")),
			planOf(4, okResult(action.KindCreateFile, "c.txt")),
			planOf(5, failResult(action.KindRunCommand, "", "boom")),
		}
		assert.Nil(t, checkRepetition(results))
	})
}

func TestCheckRepetitionActions(t *testing.T) {
	read := okResult(action.KindReadFileLines, "data.txt")

	t.Run("three occurrences trip", func(t *testing.T) {
		results := []executor.PlanResult{
			planOf(1, read), planOf(2, read), planOf(3, read),
		}
		ge := checkRepetition(results)
		require.NotNil(t, ge)
		assert.Equal(t, "action-repetition", ge.Guard)
		assert.Contains(t, ge.Detail, read.Action.Key())
	})

	t.Run("two occurrences do not trip", func(t *testing.T) {
		results := []executor.PlanResult{
			planOf(1, read),
			planOf(2, okResult(action.KindCreateFile, "x.txt")),
			planOf(3, read),
		}
		assert.Nil(t, checkRepetition(results))
	})

	t.Run("successful actions count toward repetition too", func(t *testing.T) {
		// The guard exists for livelock, and a stuck model usually repeats
		// an action that succeeds every time.
		results := []executor.PlanResult{
			planOf(1, read, read, read),
		}
		require.NotNil(t, checkRepetition(results))
	})
}
