package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Autonomous task execution loop driven by an LLM",
	Long: `Taskpilot asks a model to plan a task as concrete file and shell
actions, executes them, recovers from failures, and keeps iterating
until the model declares the task complete or a safety guard stops it.

Get started:
  taskpilot init                 Initialize a workspace
  taskpilot run "your task"      Execute a task
  taskpilot history              List past runs
  taskpilot logs                 Show recent run transcript events`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("taskpilot version %s\n", version))
}
