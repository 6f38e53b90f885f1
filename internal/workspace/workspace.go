package workspace

import (
	"errors"
	"os"
	"path/filepath"
)

const TaskpilotDir = ".taskpilot"

var ErrNoWorkspace = errors.New("no taskpilot workspace found (run 'taskpilot init' first)")
var ErrWorkspaceExists = errors.New("taskpilot workspace already exists (use --force to overwrite)")

// Find walks up from cwd looking for .taskpilot/ directory
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		taskpilotPath := filepath.Join(dir, TaskpilotDir)
		if info, err := os.Stat(taskpilotPath); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoWorkspace
		}
		dir = parent
	}
}

// Path returns the .taskpilot directory path for a workspace
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, TaskpilotDir)
}

// ConfigPath returns the config.yaml path
func ConfigPath(workspaceDir string) string {
	return filepath.Join(workspaceDir, TaskpilotDir, "config.yaml")
}

// LogsDir returns the directory holding the application log and transcripts
func LogsDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, TaskpilotDir, "logs")
}

// LogPath returns the application log file path
func LogPath(workspaceDir string) string {
	return filepath.Join(LogsDir(workspaceDir), "taskpilot.log")
}

// TranscriptPath returns the run transcript file path
func TranscriptPath(workspaceDir string) string {
	return filepath.Join(LogsDir(workspaceDir), "transcript.jsonl")
}

// HistoryDir returns the directory holding per-run history records
func HistoryDir(workspaceDir string) string {
	return filepath.Join(workspaceDir, TaskpilotDir, "history")
}
