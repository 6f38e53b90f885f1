// Package executor dispatches agent actions to real filesystem and shell
// operations, with structured diagnostics on failure.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/taskpilot-dev/taskpilot/internal/action"
	"github.com/taskpilot-dev/taskpilot/internal/display"
)

// ApproveFunc decides whether a mutating action may execute. A nil func
// approves everything (auto mode).
type ApproveFunc func(a *action.Action) (bool, error)

// Config holds executor configuration
type Config struct {
	WorkDir        string
	CommandTimeout time.Duration
	Approve        ApproveFunc
	Display        *display.Display
	Logger         *slog.Logger
}

// DefaultCommandTimeout bounds shell commands that carry no explicit timeout
const DefaultCommandTimeout = 2 * time.Minute

// Executor maps each action kind to one primitive operation. Side effects
// are real and immediate; there is no dry-run.
type Executor struct {
	workDir        string
	commandTimeout time.Duration
	approve        ApproveFunc
	display        *display.Display
	logger         *slog.Logger
	stepCount      int
}

// New creates an executor rooted at the config's working directory
func New(cfg Config) *Executor {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}
	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		workDir:        workDir,
		commandTimeout: timeout,
		approve:        cfg.Approve,
		display:        cfg.Display,
		logger:         logger,
	}
}

// StepsCompleted returns how many non-discovery actions have executed
// successfully. The counter is 1-based in progress display.
func (e *Executor) StepsCompleted() int {
	return e.stepCount
}

// Execute runs one action and returns its result text. The action is
// expected to have been repaired already; actions still missing required
// fields fail with *action.ValidationError, unknown kinds with
// *UnsupportedError, and operation failures with *ExecError.
//
// Discovery actions run without step-counter increments or progress display.
func (e *Executor) Execute(ctx context.Context, a *action.Action) (string, error) {
	if !a.Kind.IsValid() {
		return "", &UnsupportedError{Kind: a.Kind}
	}
	if err := a.Validate(); err != nil {
		return "", err
	}

	if e.needsApproval(a) {
		ok, err := e.approve(a)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrDeclined
		}
	}

	if !a.Kind.IsDiscovery() && e.display != nil {
		e.display.Step(e.stepCount+1, a.Description)
	}

	e.logger.Debug("executing action",
		"kind", a.Kind, "path", a.Params.Path, "step", e.stepCount+1)

	result, err := e.dispatch(ctx, a)
	if err != nil {
		e.logger.Debug("action failed", "kind", a.Kind, "error", err)
		return "", err
	}
	if !a.Kind.IsDiscovery() {
		e.stepCount++
	}
	return result, nil
}

// needsApproval gates mutating actions behind the confirmation callback.
// Discovery and user-communication actions never prompt.
func (e *Executor) needsApproval(a *action.Action) bool {
	if e.approve == nil {
		return false
	}
	return !a.Kind.IsDiscovery() && !a.Kind.IsCommunication()
}

func (e *Executor) dispatch(ctx context.Context, a *action.Action) (string, error) {
	p := a.Params
	switch a.Kind {
	case action.KindCreateFile:
		return e.createFile(p.Path, p.Content)
	case action.KindModifyFile:
		return e.modifyFile(p.Path, p.Content)
	case action.KindPatchFile:
		return e.patchFile(p.Path, p.Changes)
	case action.KindRunCommand:
		return e.runCommand(ctx, p.Command, p.Cwd, p.TimeoutSecs)
	case action.KindCreateDirectory:
		return e.createDirectory(p.Path)
	case action.KindListDirectory:
		return e.listDirectory(p.Path)
	case action.KindReadFileLines, action.KindAnalyze:
		return e.readFileLines(p.Path, p.StartLine, p.EndLine)
	case action.KindInformUser, action.KindChat:
		if e.display != nil {
			e.display.Message(p.Message)
		}
		return "message delivered to user", nil
	default:
		return "", &UnsupportedError{Kind: a.Kind}
	}
}

// patchFile applies line-indexed changes to an existing file. The pre-patch
// content is backed up first. The batch succeeds if at least one change
// applied; zero applied changes is a failure of the whole action.
func (e *Executor) patchFile(path string, changes []action.Change) (string, error) {
	full := e.resolvePath(path)
	data, err := os.ReadFile(full)
	if err != nil {
		return "", &ExecError{Op: "patch_file", Path: path, Err: err}
	}
	before := string(data)

	backup, err := e.backupFile(path)
	if err != nil {
		return "", &ExecError{Op: "patch_file", Path: path,
			Err: fmt.Errorf("cannot create backup: %w", err)}
	}

	lines, outcome := applyChanges(strings.Split(before, "\n"), changes)

	if outcome.ChangesApplied == 0 {
		return "", &ExecError{Op: "patch_file", Path: path,
			Err: fmt.Errorf("no changes could be applied: %s", skipReasons(outcome.Skipped))}
	}

	after := strings.Join(lines, "\n")
	if err := os.WriteFile(full, []byte(after), 0644); err != nil {
		return "", &ExecError{Op: "patch_file", Path: path, Err: err}
	}

	result := fmt.Sprintf("patched %s: %d/%d changes applied, %d lines, %s (backup: %s)",
		path, outcome.ChangesApplied, outcome.TotalChanges,
		outcome.FinalLineCount, diffSummary(before, after), backup)
	if len(outcome.Skipped) > 0 {
		result += "\nskipped: " + skipReasons(outcome.Skipped)
	}
	return result, nil
}

func skipReasons(skipped []SkippedChange) string {
	reasons := make([]string, len(skipped))
	for i, s := range skipped {
		reasons[i] = fmt.Sprintf("change %d: %s", s.Index, s.Reason)
	}
	return strings.Join(reasons, "; ")
}

// diffSummary condenses a before/after edit into "+N/-N chars"
func diffSummary(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)

	var added, removed int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += len(d.Text)
		}
	}
	return fmt.Sprintf("+%d/-%d chars", added, removed)
}
