package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Init creates a new taskpilot workspace in the current directory
func Init(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	taskpilotPath := filepath.Join(cwd, TaskpilotDir)

	// Check if workspace already exists
	if _, err := os.Stat(taskpilotPath); err == nil {
		if !force {
			return ErrWorkspaceExists
		}
		if err := os.RemoveAll(taskpilotPath); err != nil {
			return fmt.Errorf("failed to remove existing workspace: %w", err)
		}
	}

	dirs := []string{
		taskpilotPath,
		filepath.Join(taskpilotPath, "logs"),
		filepath.Join(taskpilotPath, "history"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := writeFile(filepath.Join(taskpilotPath, "config.yaml"), defaultConfig); err != nil {
		return err
	}

	fmt.Println("Initialized taskpilot workspace in", taskpilotPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review .taskpilot/config.yaml")
	fmt.Println("  2. Run 'taskpilot run \"your task\"' to execute a task")

	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

const defaultConfig = `# taskpilot configuration
llm:
  backend: claude          # model backend
  binary: claude           # path to the backend CLI
  model: sonnet

agent:
  max_plans: 10            # plan ceiling per run
  max_recovery_attempts: 3 # failures tolerated before aborting
  auto_approve: false      # skip the per-action confirmation prompt
  allowed_actions: []      # action kinds that never prompt, e.g. [create_file, run_command]
  fast: false              # skip pacing delays between actions

exec:
  command_timeout_secs: 120
`
