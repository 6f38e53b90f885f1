package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskpilot-dev/taskpilot/internal/logs"
	"github.com/taskpilot-dev/taskpilot/internal/utils"
	"github.com/taskpilot-dev/taskpilot/internal/workspace"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent run transcript events",
	Long: `Show the tail of the run transcript in .taskpilot/logs/.

The transcript records every plan, per-action results, recovery
decisions and run outcomes as JSONL events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wsDir, err := workspace.Find()
		if err != nil {
			return err
		}

		path := workspace.TranscriptPath(wsDir)
		if !utils.FileExists(path) {
			fmt.Println("No transcript yet. Run a task first.")
			return nil
		}

		events, err := logs.ReadEvents(path, logsLimit)
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		dim := color.New(color.FgHiBlack).SprintFunc()

		for _, ev := range events {
			ts := dim(ev.Time.Format("2006-01-02 15:04:05"))
			switch ev.Type {
			case "run_start":
				fmt.Printf("%s %s %s\n", ts, cyan("RUN"), utils.ShortName(ev.Task))
			case "plan":
				ok, failed := 0, 0
				for _, res := range ev.Results {
					if res.Success {
						ok++
					} else {
						failed++
					}
				}
				line := fmt.Sprintf("plan %d (%s): %d ok", ev.PlanNumber, ev.PlanStatus, ok)
				if failed > 0 {
					line += fmt.Sprintf(", %s", red(fmt.Sprintf("%d failed", failed)))
				}
				fmt.Printf("%s %s %s\n", ts, cyan("PLAN"), line)
			case "recovery":
				fmt.Printf("%s %s %s: %s\n", ts, yellow("RECOVER"), ev.Decision,
					utils.ShortName(ev.Error))
			case "run_end":
				mark := green("done")
				if !ev.Success {
					mark = red("failed")
				}
				fmt.Printf("%s %s %s: %s (%d step(s), %d plan(s), %s)\n",
					ts, cyan("END"), mark, ev.Reason, ev.Steps, ev.Plans, ev.Elapsed)
			}
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 50, "maximum events to show")
	rootCmd.AddCommand(logsCmd)
}
