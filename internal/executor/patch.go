package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taskpilot-dev/taskpilot/internal/action"
)

// PatchOutcome summarizes a patch application
type PatchOutcome struct {
	ChangesApplied int             `json:"changes_applied"`
	TotalChanges   int             `json:"total_changes"`
	FinalLineCount int             `json:"final_line_count"`
	Skipped        []SkippedChange `json:"skipped,omitempty"`
}

// SkippedChange records a change that could not be located, with the reason.
// A skipped change does not abort the batch.
type SkippedChange struct {
	Index  int    `json:"index"` // position in the original changes slice
	Reason string `json:"reason"`
}

// applyChanges applies line-indexed changes to the file's lines and returns
// the new lines plus the outcome bookkeeping.
//
// Line-addressed changes are applied in descending line-number order. This
// ordering is load-bearing: an insertion or deletion at a low line number
// would otherwise shift the indices of not-yet-applied changes that reference
// higher, unprocessed lines. Changes without a line number locate their
// target by content and are applied after the addressed ones.
func applyChanges(lines []string, changes []action.Change) ([]string, PatchOutcome) {
	outcome := PatchOutcome{TotalChanges: len(changes)}

	type indexed struct {
		idx int
		c   action.Change
	}
	var addressed, global []indexed
	for i, c := range changes {
		if c.Line > 0 {
			addressed = append(addressed, indexed{i, c})
		} else {
			global = append(global, indexed{i, c})
		}
	}
	sort.SliceStable(addressed, func(i, j int) bool {
		return addressed[i].c.Line > addressed[j].c.Line
	})

	apply := func(ic indexed) {
		var reason string
		lines, reason = applyOne(lines, ic.c)
		if reason == "" {
			outcome.ChangesApplied++
		} else {
			outcome.Skipped = append(outcome.Skipped, SkippedChange{Index: ic.idx, Reason: reason})
		}
	}
	for _, ic := range addressed {
		apply(ic)
	}
	for _, ic := range global {
		apply(ic)
	}

	outcome.FinalLineCount = len(lines)
	return lines, outcome
}

// applyOne applies a single change. An empty reason means it was applied.
func applyOne(lines []string, c action.Change) ([]string, string) {
	n := c.Line
	switch c.Op {
	case action.OpAdd:
		content := splitContent(c)
		if n < 1 || n > len(lines) {
			// Out-of-range adds append rather than fail.
			return append(lines, content...), ""
		}
		return insertAt(lines, n-1, content), ""

	case action.OpReplace:
		return applyReplace(lines, c)

	case action.OpDelete:
		if n < 1 || n > len(lines) {
			return lines, fmt.Sprintf("delete: line %d out of range (file has %d lines)", n, len(lines))
		}
		return append(lines[:n-1], lines[n:]...), ""

	case action.OpInsertAfter:
		if n < 1 || n > len(lines) {
			return lines, fmt.Sprintf("insert_after: line %d out of range (file has %d lines)", n, len(lines))
		}
		return insertAt(lines, n, splitContent(c)), ""

	case action.OpInsertBefore:
		if n < 1 || n > len(lines) {
			return lines, fmt.Sprintf("insert_before: line %d out of range (file has %d lines)", n, len(lines))
		}
		return insertAt(lines, n-1, splitContent(c)), ""

	default:
		return lines, fmt.Sprintf("unsupported change op %q", c.Op)
	}
}

func applyReplace(lines []string, c action.Change) ([]string, string) {
	replacement := c.New
	if replacement == "" && c.Content != "" {
		replacement = c.Content
	}

	if c.Line > 0 {
		if c.Line > len(lines) {
			return lines, fmt.Sprintf("replace: line %d out of range (file has %d lines)", c.Line, len(lines))
		}
		if c.Old == "" {
			// Whole-line replacement.
			lines[c.Line-1] = replacement
			return lines, ""
		}
		if !strings.Contains(lines[c.Line-1], c.Old) {
			return lines, fmt.Sprintf("replace: %q not found in line %d", c.Old, c.Line)
		}
		lines[c.Line-1] = strings.Replace(lines[c.Line-1], c.Old, replacement, 1)
		return lines, ""
	}

	// No line given: global first-match replacement.
	if c.Old == "" {
		return lines, "replace: no line number and no target text"
	}
	for i, line := range lines {
		if strings.Contains(line, c.Old) {
			lines[i] = strings.Replace(line, c.Old, replacement, 1)
			return lines, ""
		}
	}
	return lines, fmt.Sprintf("replace: %q not found in file", c.Old)
}

func splitContent(c action.Change) []string {
	content := c.Content
	if content == "" {
		content = c.New
	}
	return strings.Split(content, "\n")
}

func insertAt(lines []string, pos int, content []string) []string {
	out := make([]string, 0, len(lines)+len(content))
	out = append(out, lines[:pos]...)
	out = append(out, content...)
	out = append(out, lines[pos:]...)
	return out
}
