package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"
)

// maxReadLines caps a read_file_lines range so a single discovery action
// cannot flood the evaluation context.
const maxReadLines = 400

// resolvePath anchors a relative path at the executor's working directory
func (e *Executor) resolvePath(path string) string {
	if path == "" || path == "." {
		return e.workDir
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.workDir, path)
}

func (e *Executor) createFile(path, content string) (string, error) {
	full := e.resolvePath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", &ExecError{Op: "create_file", Path: path, Err: err}
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return "", &ExecError{Op: "create_file", Path: path, Err: err}
	}
	return fmt.Sprintf("created %s (%d bytes)", path, len(content)), nil
}

func (e *Executor) modifyFile(path, content string) (string, error) {
	full := e.resolvePath(path)
	before, err := os.ReadFile(full)
	if err != nil {
		return "", &ExecError{Op: "modify_file", Path: path, Err: err}
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return "", &ExecError{Op: "modify_file", Path: path, Err: err}
	}
	return fmt.Sprintf("modified %s (%s)", path, diffSummary(string(before), content)), nil
}

func (e *Executor) createDirectory(path string) (string, error) {
	full := e.resolvePath(path)
	if err := os.MkdirAll(full, 0755); err != nil {
		return "", &ExecError{Op: "create_directory", Path: path, Err: err}
	}
	return fmt.Sprintf("created directory %s", path), nil
}

// listDirectory lists entries, honoring the workspace .gitignore when one
// exists. Directories get a trailing slash.
func (e *Executor) listDirectory(path string) (string, error) {
	full := e.resolvePath(path)
	entries, err := os.ReadDir(full)
	if err != nil {
		return "", &ExecError{Op: "list_directory", Path: path, Err: err}
	}

	var ignorer *gitignore.GitIgnore
	if ig, err := gitignore.CompileIgnoreFile(filepath.Join(e.workDir, ".gitignore")); err == nil {
		ignorer = ig
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" {
			continue
		}
		rel := name
		if path != "" && path != "." {
			rel = filepath.Join(path, name)
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			continue
		}
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return fmt.Sprintf("%s is empty", displayPath(path)), nil
	}
	return strings.Join(names, "\n"), nil
}

// readFileLines returns a bounded, line-numbered slice of the file
func (e *Executor) readFileLines(path string, start, end int) (string, error) {
	full := e.resolvePath(path)
	data, err := os.ReadFile(full)
	if err != nil {
		return "", &ExecError{Op: "read_file_lines", Path: path, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	if start < 1 {
		start = 1
	}
	if start > len(lines) {
		return "", &ExecError{Op: "read_file_lines", Path: path,
			Err: fmt.Errorf("start line %d beyond end of file (%d lines)", start, len(lines))}
	}
	if end < start {
		end = start
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end-start+1 > maxReadLines {
		end = start + maxReadLines - 1
	}

	var sb strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&sb, "%4d | %s\n", i, lines[i-1])
	}
	return sb.String(), nil
}

// backupFile writes a timestamped copy next to the original before a
// destructive patch write. Returns the backup path.
func (e *Executor) backupFile(path string) (string, error) {
	full := e.resolvePath(path)
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.bak.%s", full, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", err
	}
	return backup, nil
}

func displayPath(path string) string {
	if path == "" || path == "." {
		return "the working directory"
	}
	return path
}
