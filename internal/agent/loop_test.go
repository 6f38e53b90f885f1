package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot-dev/taskpilot/internal/action"
	"github.com/taskpilot-dev/taskpilot/internal/executor"
	"github.com/taskpilot-dev/taskpilot/internal/logs"
	"github.com/taskpilot-dev/taskpilot/internal/recovery"
)

// scriptedBackend returns canned responses in order
type scriptedBackend struct {
	responses []string
	calls     int
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if b.calls >= len(b.responses) {
		return "", fmt.Errorf("scripted backend out of responses (call %d)", b.calls+1)
	}
	resp := b.responses[b.calls]
	b.calls++
	return resp, nil
}

// generatorBackend produces a response per call, for unbounded-loop tests
type generatorBackend struct {
	fn    func(call int) string
	calls int
}

func (b *generatorBackend) Name() string { return "generator" }

func (b *generatorBackend) Complete(ctx context.Context, prompt string) (string, error) {
	b.calls++
	return b.fn(b.calls), nil
}

type backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

func newTestAgent(t *testing.T, b backend, chooser recovery.Chooser, opts Options) (*Agent, string, *recovery.Manager) {
	t.Helper()
	dir := t.TempDir()
	logger := logs.Discard()
	exec := executor.New(executor.Config{WorkDir: dir, Logger: logger})
	rec := recovery.NewManager(b, chooser, logger, 3)
	opts.Fast = true
	a := New(opts, Deps{
		Backend:  b,
		Executor: exec,
		Recovery: rec,
		Logger:   logger,
	})
	return a, dir, rec
}

func TestRunCompletesSimpleTask(t *testing.T) {
	createPlan := `<status>continue</status>
<analysis>The file does not exist yet.</analysis>
<strategy>Create the file, then verify the directory contents.</strategy>
<actions>
<action>
<type>create_file</type>
<description>Create an empty file notes.txt</description>
<path>notes.txt</path>
</action>
</actions>`

	verifyPlan := `<status>complete</status>
<actions>
<action>
<type>list_directory</type>
<description>Verify notes.txt is present</description>
<path>.</path>
</action>
</actions>`

	b := &scriptedBackend{responses: []string{createPlan, verifyPlan}}
	a, dir, _ := newTestAgent(t, b, nil, Options{})

	res, err := a.Run(context.Background(), "create an empty file called notes.txt")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "task complete", res.Reason)
	assert.Equal(t, 2, res.TotalPlans)
	assert.Equal(t, 1, res.CompletedSteps, "listing the directory is discovery, not a step")
	assert.NotEmpty(t, res.RunID)

	info, statErr := os.Stat(filepath.Join(dir, "notes.txt"))
	require.NoError(t, statErr)
	assert.Zero(t, info.Size())
}

func TestRunTerminatesAtPlanCeiling(t *testing.T) {
	// Every plan does fresh work, so only the ceiling can stop the run.
	b := &generatorBackend{fn: func(call int) string {
		return fmt.Sprintf(`<status>continue</status>
<actions>
<action>
<type>create_file</type>
<description>Write marker file %d</description>
<path>step_%d.txt</path>
<content>x</content>
</action>
</actions>`, call, call)
	}}
	a, _, _ := newTestAgent(t, b, nil, Options{})

	res, err := a.Run(context.Background(), "keep making files")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "plan 11 exceeds the ceiling of 10")
	assert.Equal(t, 10, res.TotalPlans, "plan 11 must never execute")
	assert.Equal(t, 10, b.calls, "no plan may be requested past the ceiling")
}

func TestRunAbortsOnActionRepetition(t *testing.T) {
	samePlan := `<status>continue</status>
<actions>
<action>
<type>read_file_lines</type>
<description>Check the first line of data.txt</description>
<path>data.txt</path>
<start_line>1</start_line>
<end_line>1</end_line>
</action>
</actions>`

	b := &generatorBackend{fn: func(int) string { return samePlan }}
	a, dir, _ := newTestAgent(t, b, nil, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte("alpha\n"), 0644))

	res, err := a.Run(context.Background(), "inspect data.txt")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "action-repetition")
	assert.Equal(t, 3, res.TotalPlans, "the third identical plan must be the last")
	assert.Equal(t, 3, b.calls)
}

func TestRunAbortsOnErrorRepetition(t *testing.T) {
	failPlan := `<status>continue</status>
<actions>
<action>
<type>run_command</type>
<description>Run the flaky step</description>
<command>exit 7</command>
</action>
</actions>`

	// Skipping keeps the plan going so the recurring error lands in the
	// history where the guard can see it.
	skip := func(string) (recovery.DecisionKind, string, error) {
		return recovery.DecisionSkip, "", nil
	}
	b := &generatorBackend{fn: func(int) string { return failPlan }}
	a, _, rec := newTestAgent(t, b, skip, Options{})

	res, err := a.Run(context.Background(), "run the step")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "error-repetition")
	assert.Equal(t, 2, res.TotalPlans, "two identical failures are enough")
	assert.Less(t, rec.Attempts(), 3, "the guard must fire before recovery exhausts")
}

func TestRunAdoptsCorrectedPlan(t *testing.T) {
	badPlan := `<status>continue</status>
<actions>
<action>
<type>modify_file</type>
<description>Update missing.txt</description>
<path>missing.txt</path>
<content>new</content>
</action>
</actions>`

	correctedPlan := `<status>complete</status>
<actions>
<action>
<type>create_file</type>
<description>Create missing.txt with the expected content</description>
<path>missing.txt</path>
<content>new</content>
</action>
</actions>`

	b := &scriptedBackend{responses: []string{badPlan, correctedPlan}}
	a, dir, rec := newTestAgent(t, b, nil, Options{})

	res, err := a.Run(context.Background(), "put 'new' into missing.txt")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.TotalPlans, "the corrected plan replaces the original, it is not a new plan")
	assert.Equal(t, 1, res.CompletedSteps)
	assert.Zero(t, rec.Attempts(), "a clean corrected run forgives prior attempts")

	data, readErr := os.ReadFile(filepath.Join(dir, "missing.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "new", string(data))
}

func TestRunStopsWhenRecoveryExhausts(t *testing.T) {
	failing := `<status>continue</status>
<actions>
<action>
<type>modify_file</type>
<description>Update missing.txt</description>
<path>missing.txt</path>
<content>new</content>
</action>
</actions>`

	// The initial plan and both corrections fail the same way; the third
	// failure hits the attempt ceiling.
	b := &scriptedBackend{responses: []string{failing, failing, failing}}
	a, _, _ := newTestAgent(t, b, nil, Options{})

	res, err := a.Run(context.Background(), "update missing.txt")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "recovery exhausted after 3 attempts")
	assert.Equal(t, 1, res.TotalPlans)
	assert.Equal(t, 3, b.calls, "two corrections were requested, a third was not")
}

func TestRunStopsWhenActionDeclined(t *testing.T) {
	createPlan := `<status>continue</status>
<actions>
<action>
<type>create_file</type>
<description>Create notes.txt</description>
<path>notes.txt</path>
<content>hello</content>
</action>
</actions>`

	dir := t.TempDir()
	logger := logs.Discard()
	b := &scriptedBackend{responses: []string{createPlan}}
	exec := executor.New(executor.Config{
		WorkDir: dir,
		Logger:  logger,
		Approve: func(a *action.Action) (bool, error) { return false, nil },
	})
	a := New(Options{Fast: true}, Deps{
		Backend:  b,
		Executor: exec,
		Recovery: recovery.NewManager(b, nil, logger, 3),
		Logger:   logger,
	})

	res, err := a.Run(context.Background(), "create notes.txt")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "declined by user")
	assert.Zero(t, res.CompletedSteps)
	assert.NoFileExists(t, filepath.Join(dir, "notes.txt"))
}
