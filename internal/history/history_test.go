package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	return s
}

func TestSaveAndList(t *testing.T) {
	s := newTestStore(t)

	first := &Record{
		RunID:          "run-1",
		Task:           "Create the notes file",
		StartedAt:      time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
		Duration:       3 * time.Second,
		Success:        true,
		Reason:         "task complete",
		CompletedSteps: 2,
		TotalPlans:     1,
	}
	second := &Record{
		RunID:     "run-2",
		Task:      "Fix the build",
		StartedAt: time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC),
		Success:   false,
		Reason:    "recovery exhausted after 3 attempts",
	}
	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "run-2", records[0].RunID, "most recent first")
	assert.Equal(t, "run-1", records[1].RunID)
	assert.True(t, records[1].Success)
	assert.Equal(t, 3*time.Second, records[1].Duration)
}

func TestSaveRejectsIncompleteRecord(t *testing.T) {
	s := newTestStore(t)

	err := s.Save(&Record{Task: "no run id", StartedAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_id")

	err = s.Save(&Record{RunID: "x", StartedAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task")
}

func TestListSkipsCorruptFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(&Record{
		RunID: "run-1", Task: "good record", StartedAt: time.Now(),
	}))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "junk.json"), []byte("{not json"), 0644))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run-1", records[0].RunID)
}
