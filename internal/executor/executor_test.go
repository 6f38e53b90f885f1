package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot-dev/taskpilot/internal/action"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return New(Config{WorkDir: t.TempDir()})
}

func writeTestFile(t *testing.T, e *Executor, rel, content string) string {
	t.Helper()
	full := filepath.Join(e.workDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	return full
}

func readTestFile(t *testing.T, full string) string {
	t.Helper()
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	return string(data)
}

func TestExecuteCreateFile(t *testing.T) {
	e := newTestExecutor(t)

	result, err := e.Execute(context.Background(), &action.Action{
		Kind:        action.KindCreateFile,
		Description: "Create a nested file",
		Params:      action.Params{Path: "sub/dir/hello.txt", Content: "hi\n"},
	})
	require.NoError(t, err)
	assert.Contains(t, result, "created sub/dir/hello.txt")
	assert.Equal(t, "hi\n", readTestFile(t, filepath.Join(e.workDir, "sub/dir/hello.txt")))
}

func TestExecuteCreateEmptyFile(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.Execute(context.Background(), &action.Action{
		Kind:   action.KindCreateFile,
		Params: action.Params{Path: "notes.txt"},
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(e.workDir, "notes.txt"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestExecuteModifyFileRequiresExisting(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.Execute(context.Background(), &action.Action{
		Kind:   action.KindModifyFile,
		Params: action.Params{Path: "ghost.txt", Content: "x"},
	})
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "modify_file", execErr.Op)
}

func TestExecuteListDirectory(t *testing.T) {
	e := newTestExecutor(t)
	writeTestFile(t, e, "notes.txt", "")
	writeTestFile(t, e, "build.log", "")
	writeTestFile(t, e, ".gitignore", "*.log\n")
	require.NoError(t, os.MkdirAll(filepath.Join(e.workDir, "src"), 0755))

	result, err := e.Execute(context.Background(), &action.Action{
		Kind:   action.KindListDirectory,
		Params: action.Params{Path: "."},
	})
	require.NoError(t, err)
	assert.Contains(t, result, "notes.txt")
	assert.Contains(t, result, "src/")
	assert.NotContains(t, result, "build.log", "gitignored entries are hidden")
}

func TestExecuteReadFileLines(t *testing.T) {
	e := newTestExecutor(t)
	writeTestFile(t, e, "main.go", "package main\n\nfunc main() {}\n")

	result, err := e.Execute(context.Background(), &action.Action{
		Kind:   action.KindReadFileLines,
		Params: action.Params{Path: "main.go", StartLine: 1, EndLine: 2},
	})
	require.NoError(t, err)
	assert.Contains(t, result, "1 | package main")
	assert.NotContains(t, result, "func main")
}

func TestExecuteReadPastEOF(t *testing.T) {
	e := newTestExecutor(t)
	writeTestFile(t, e, "short.txt", "only line")

	_, err := e.Execute(context.Background(), &action.Action{
		Kind:   action.KindReadFileLines,
		Params: action.Params{Path: "short.txt", StartLine: 50, EndLine: 60},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beyond end of file")
}

func TestExecuteUnsupportedKind(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.Execute(context.Background(), &action.Action{
		Kind:        action.Kind("teleport_file"),
		Description: "Unknown kind from the model",
	})
	require.Error(t, err)

	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, action.Kind("teleport_file"), unsupported.Kind)
}

func TestExecuteValidationFailure(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.Execute(context.Background(), &action.Action{
		Kind: action.KindRunCommand,
	})
	var verr *action.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestStepCounterSkipsDiscovery(t *testing.T) {
	e := newTestExecutor(t)
	writeTestFile(t, e, "a.txt", "content")

	ctx := context.Background()

	_, err := e.Execute(ctx, &action.Action{
		Kind:   action.KindListDirectory,
		Params: action.Params{Path: "."},
	})
	require.NoError(t, err)
	assert.Zero(t, e.StepsCompleted(), "discovery must not count as a step")

	_, err = e.Execute(ctx, &action.Action{
		Kind:   action.KindReadFileLines,
		Params: action.Params{Path: "a.txt", StartLine: 1, EndLine: 1},
	})
	require.NoError(t, err)
	assert.Zero(t, e.StepsCompleted())

	_, err = e.Execute(ctx, &action.Action{
		Kind:   action.KindCreateFile,
		Params: action.Params{Path: "b.txt", Content: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, e.StepsCompleted())
}

func TestApprovalGate(t *testing.T) {
	t.Run("declined mutating action returns ErrDeclined", func(t *testing.T) {
		e := New(Config{
			WorkDir: t.TempDir(),
			Approve: func(a *action.Action) (bool, error) { return false, nil },
		})

		_, err := e.Execute(context.Background(), &action.Action{
			Kind:   action.KindCreateFile,
			Params: action.Params{Path: "x.txt"},
		})
		require.ErrorIs(t, err, ErrDeclined)
	})

	t.Run("discovery bypasses approval", func(t *testing.T) {
		called := false
		e := New(Config{
			WorkDir: t.TempDir(),
			Approve: func(a *action.Action) (bool, error) { called = true; return false, nil },
		})

		_, err := e.Execute(context.Background(), &action.Action{
			Kind:   action.KindListDirectory,
			Params: action.Params{Path: "."},
		})
		require.NoError(t, err)
		assert.False(t, called)
	})
}
