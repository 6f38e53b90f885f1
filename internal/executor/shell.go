package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// backgroundGrace is how long a background command is watched for an
// immediate startup failure before the executor lets go of it.
const backgroundGrace = 500 * time.Millisecond

// runCommand executes a shell command with captured stdout/stderr.
//
// A command ending in "&" is spawned detached: after a short grace period
// used only to catch immediate startup failures, the executor returns and the
// process's lifetime becomes independent of the agent loop.
//
// A timeout expiry is not an error: the child gets SIGTERM and the output
// captured so far is returned as the result, so the evaluation step can
// reason about the partial output.
func (e *Executor) runCommand(ctx context.Context, command, cwd string, timeoutSecs int) (string, error) {
	trimmed := strings.TrimSpace(command)
	if strings.HasSuffix(trimmed, "&") {
		return e.runBackground(strings.TrimSuffix(trimmed, "&"), cwd)
	}

	timeout := e.commandTimeout
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", trimmed)
	cmd.Dir = e.resolvePath(cwd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("%s\n(command timed out after %s; partial output above)",
			combinedOutput(&stdout, &stderr), timeout), nil
	}

	if err != nil {
		execErr := &ExecError{
			Op:     "run_command",
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    fmt.Errorf("%s: %w", trimmed, err),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		return "", execErr
	}

	out := combinedOutput(&stdout, &stderr)
	if out == "" {
		out = "(no output)"
	}
	return out, nil
}

func (e *Executor) runBackground(command, cwd string) (string, error) {
	cmd := exec.Command("bash", "-c", strings.TrimSpace(command))
	cmd.Dir = e.resolvePath(cwd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", &ExecError{Op: "run_command", Err: fmt.Errorf("%s: %w", command, err)}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			execErr := &ExecError{
				Op:     "run_command",
				Stdout: stdout.String(),
				Stderr: stderr.String(),
				Err:    fmt.Errorf("background command failed at startup: %s: %w", command, err),
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				execErr.ExitCode = exitErr.ExitCode()
			}
			return "", execErr
		}
		// Finished within the grace period; nothing left to track.
		return combinedOutput(&stdout, &stderr), nil
	case <-time.After(backgroundGrace):
		// Process lives on untracked. Its Wait goroutine drains on exit.
		return fmt.Sprintf("started in background (pid %d)", cmd.Process.Pid), nil
	}
}

func combinedOutput(stdout, stderr *bytes.Buffer) string {
	out := strings.TrimRight(stdout.String(), "\n")
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		if out != "" {
			out += "\n"
		}
		out += "stderr: " + errOut
	}
	return out
}
