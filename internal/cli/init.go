package cli

import (
	"github.com/spf13/cobra"

	"github.com/taskpilot-dev/taskpilot/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new taskpilot workspace",
	Long: `Initialize a new taskpilot workspace in the current directory.

Creates .taskpilot/ with:
  - config.yaml   Configuration settings
  - logs/         Application log and run transcripts
  - history/      One JSON record per completed run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return workspace.Init(initForce)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing workspace")
	rootCmd.AddCommand(initCmd)
}
