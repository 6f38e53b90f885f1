// Package history persists one JSON record per completed run so past runs
// can be listed and inspected.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/taskpilot-dev/taskpilot/internal/utils"
)

// Record summarizes one finished run
type Record struct {
	RunID          string        `json:"run_id"`
	Task           string        `json:"task"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Success        bool          `json:"success"`
	Reason         string        `json:"reason"`
	CompletedSteps int           `json:"completed_steps"`
	TotalPlans     int           `json:"total_plans"`
}

// Validate checks the record carries enough to be worth persisting
func (r *Record) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("history record missing run_id")
	}
	if r.Task == "" {
		return fmt.Errorf("history record missing task")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("history record missing started_at")
	}
	return nil
}

// Store reads and writes run records under a directory
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create history directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes one record. The filename embeds the start time and a slug of
// the task so a directory listing reads like a log.
func (s *Store) Save(r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	slug := utils.Slugify(utils.ShortName(r.Task))
	if len(slug) > 40 {
		slug = slug[:40]
	}
	name := fmt.Sprintf("%s-%s.json", r.StartedAt.Format("20060102-150405"), slug)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode history record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return fmt.Errorf("cannot write history record: %w", err)
	}
	return nil
}

// List returns all records, most recent first. Unreadable files are skipped.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read history directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}
