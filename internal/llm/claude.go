package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"os/exec"

	"github.com/taskpilot-dev/taskpilot/internal/utils"
)

// ClaudeCLI implements Backend by shelling out to the Claude Code CLI in
// non-interactive print mode.
type ClaudeCLI struct {
	BinaryPath string
	Model      string
	WorkDir    string
}

// NewClaudeCLI creates a Claude CLI backend
func NewClaudeCLI(binaryPath, model, workDir string) *ClaudeCLI {
	if binaryPath == "" {
		binaryPath = "claude"
	}
	return &ClaudeCLI{
		BinaryPath: utils.ResolveBinaryPath(binaryPath),
		Model:      model,
		WorkDir:    workDir,
	}
}

func (c *ClaudeCLI) Name() string {
	return "claude"
}

// Complete runs the claude binary with -p and returns its stdout
func (c *ClaudeCLI) Complete(ctx context.Context, prompt string) (string, error) {
	args := []string{"-p", prompt, "--output-format", "text"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}

	cmd := exec.CommandContext(ctx, c.BinaryPath, args...)
	cmd.Dir = c.WorkDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return "", utils.ClaudeNotFoundError()
		}
		return "", fmt.Errorf("claude call failed: %w (stderr: %s)",
			err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// CheckInstalled verifies the Claude Code CLI is reachable
func CheckInstalled(binaryPath string) error {
	if binaryPath == "" {
		binaryPath = "claude"
	}
	resolved := utils.ResolveBinaryPath(binaryPath)
	if _, err := exec.LookPath(resolved); err != nil {
		return utils.ClaudeNotFoundError()
	}
	return nil
}
