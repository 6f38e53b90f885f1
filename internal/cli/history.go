package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskpilot-dev/taskpilot/internal/history"
	"github.com/taskpilot-dev/taskpilot/internal/utils"
	"github.com/taskpilot-dev/taskpilot/internal/workspace"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs",
	Long:  `List past runs recorded in .taskpilot/history/, most recent first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wsDir, err := workspace.Find()
		if err != nil {
			return err
		}

		store, err := history.NewStore(workspace.HistoryDir(wsDir))
		if err != nil {
			return err
		}
		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		dim := color.New(color.FgHiBlack).SprintFunc()

		for _, r := range records {
			mark := green("✓")
			if !r.Success {
				mark = red("✗")
			}
			fmt.Printf("%s %s  %-50s  %d plan(s), %d step(s)  %s\n",
				mark,
				r.StartedAt.Format("2006-01-02 15:04"),
				utils.ShortName(r.Task),
				r.TotalPlans, r.CompletedSteps,
				dim(r.Reason))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to show")
	rootCmd.AddCommand(historyCmd)
}
