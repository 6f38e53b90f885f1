package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskpilot-dev/taskpilot/internal/action"
	"github.com/taskpilot-dev/taskpilot/internal/agent"
	"github.com/taskpilot-dev/taskpilot/internal/config"
	"github.com/taskpilot-dev/taskpilot/internal/display"
	"github.com/taskpilot-dev/taskpilot/internal/executor"
	"github.com/taskpilot-dev/taskpilot/internal/history"
	"github.com/taskpilot-dev/taskpilot/internal/llm"
	"github.com/taskpilot-dev/taskpilot/internal/logs"
	"github.com/taskpilot-dev/taskpilot/internal/recovery"
	"github.com/taskpilot-dev/taskpilot/internal/workspace"
)

var (
	runAuto     bool
	runFast     bool
	runNoColor  bool
	runVerbose  bool
	runModel    string
	runMaxPlans int
	runAllow    []string
)

var runCmd = &cobra.Command{
	Use:   "run \"task description\"",
	Short: "Execute a task autonomously",
	Long: `Execute a task: the model proposes a plan of concrete actions,
taskpilot executes them, recovers from failures, and keeps
iterating until the model declares the task complete.

By default every mutating action asks for confirmation.

Examples:
  taskpilot run "create a README for this project"
  taskpilot run --auto "run the test suite and fix failures"
  taskpilot run --allow create_file,run_command "scaffold a python project"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(args[0])
	},
}

func init() {
	runCmd.Flags().BoolVar(&runAuto, "auto", false, "execute without per-action confirmation")
	runCmd.Flags().BoolVar(&runFast, "fast", false, "skip pacing delays between actions")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false, "disable colored output")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "log debug detail to stderr")
	runCmd.Flags().StringVar(&runModel, "model", "", "model override, e.g. sonnet or opus")
	runCmd.Flags().IntVar(&runMaxPlans, "max-plans", 0, "plan ceiling override")
	runCmd.Flags().StringSliceVar(&runAllow, "allow", nil, "action kinds that never prompt")
	rootCmd.AddCommand(runCmd)
}

func runTask(task string) error {
	// Running outside a workspace is allowed; it just loses the persistent
	// log, transcript and history.
	wsDir, err := workspace.Find()
	inWorkspace := err == nil
	if !inWorkspace {
		if !errors.Is(err, workspace.ErrNoWorkspace) {
			return err
		}
		if wsDir, err = os.Getwd(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(wsDir)
	if err != nil {
		return err
	}

	model := cfg.LLM.Model
	if runModel != "" {
		model = runModel
	}
	maxPlans := cfg.Agent.MaxPlans
	if runMaxPlans > 0 {
		maxPlans = runMaxPlans
	}
	auto := runAuto || cfg.Agent.AutoApprove
	fast := runFast || cfg.Agent.Fast
	allowed := append([]string{}, cfg.Agent.AllowedActions...)
	allowed = append(allowed, runAllow...)

	if err := llm.CheckInstalled(cfg.LLM.Binary); err != nil {
		return err
	}
	backend := llm.NewClaudeCLI(cfg.LLM.Binary, model, wsDir)

	disp := display.NewWithOptions(runNoColor)

	logger := logs.Discard()
	var transcript *logs.Transcript
	var store *history.Store
	if inWorkspace {
		fileLogger, closer := logs.NewLogger(workspace.LogPath(wsDir), runVerbose)
		defer closer.Close()
		logger = fileLogger

		transcript = logs.NewTranscript(workspace.TranscriptPath(wsDir))
		defer transcript.Close()

		if store, err = history.NewStore(workspace.HistoryDir(wsDir)); err != nil {
			return err
		}
	} else if runVerbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	exec := executor.New(executor.Config{
		WorkDir:        wsDir,
		CommandTimeout: time.Duration(cfg.Exec.CommandTimeoutSecs) * time.Second,
		Approve:        buildApprover(disp, auto, allowed),
		Display:        disp,
		Logger:         logger,
	})

	var chooser recovery.Chooser
	if !auto {
		chooser = func(errMsg string) (recovery.DecisionKind, string, error) {
			choice, instructions, err := disp.ChooseRecovery(errMsg)
			if err != nil {
				return "", "", err
			}
			return recovery.DecisionKind(choice), instructions, nil
		}
	}
	rec := recovery.NewManager(backend, chooser, logger, cfg.Agent.MaxRecoveryAttempts)

	a := agent.New(agent.Options{MaxPlans: maxPlans, Fast: fast}, agent.Deps{
		Backend:    backend,
		Executor:   exec,
		Recovery:   rec,
		Display:    disp,
		Logger:     logger,
		Transcript: transcript,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	res, runErr := a.Run(ctx, task)

	if store != nil && res != nil {
		record := &history.Record{
			RunID:          res.RunID,
			Task:           task,
			StartedAt:      started,
			Duration:       res.Elapsed,
			Success:        res.Success,
			Reason:         res.Reason,
			CompletedSteps: res.CompletedSteps,
			TotalPlans:     res.TotalPlans,
		}
		if saveErr := store.Save(record); saveErr != nil {
			disp.Warning("could not save run history: " + saveErr.Error())
		}
	}

	if runErr != nil {
		return runErr
	}
	if !res.Success {
		return fmt.Errorf("run failed: %s", res.Reason)
	}
	return nil
}

// buildApprover turns the auto flag and kind allow-list into the executor's
// confirmation callback. Nil means approve everything.
func buildApprover(disp *display.Display, auto bool, allowed []string) executor.ApproveFunc {
	if auto {
		return nil
	}
	allowSet := make(map[action.Kind]bool, len(allowed))
	for _, k := range allowed {
		allowSet[action.Kind(strings.TrimSpace(k))] = true
	}
	return func(a *action.Action) (bool, error) {
		if allowSet[a.Kind] {
			return true, nil
		}
		prompt := fmt.Sprintf("%s: %s", a.Kind, display.Truncate(a.Description, 120))
		return disp.Confirm(prompt), nil
	}
}
