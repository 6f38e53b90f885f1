// Package action defines the typed action model the agent executes:
// a kind tag, a description, and a kind-specific parameter payload.
package action

import (
	"fmt"
	"strings"
)

// Kind identifies the operation an action performs
type Kind string

const (
	// KindCreateFile writes a new file (parent directories created as needed)
	KindCreateFile Kind = "create_file"
	// KindModifyFile overwrites an existing file with new content
	KindModifyFile Kind = "modify_file"
	// KindPatchFile applies line-indexed changes to an existing file
	KindPatchFile Kind = "patch_file"
	// KindRunCommand executes a shell command
	KindRunCommand Kind = "run_command"
	// KindCreateDirectory creates a directory tree
	KindCreateDirectory Kind = "create_directory"
	// KindListDirectory lists a directory (discovery, not counted as a step)
	KindListDirectory Kind = "list_directory"
	// KindReadFileLines reads a bounded line range (discovery, not counted as a step)
	KindReadFileLines Kind = "read_file_lines"
	// KindAnalyze reads a file for inspection (discovery); no-op patches are
	// converted to this kind during repair
	KindAnalyze Kind = "analyze"
	// KindInformUser relays a message to the user
	KindInformUser Kind = "inform_user"
	// KindChat is a conversational message to the user
	KindChat Kind = "chat"
)

// IsValid checks if a kind is one the executor supports
func (k Kind) IsValid() bool {
	for _, valid := range AllKinds() {
		if k == valid {
			return true
		}
	}
	return false
}

// AllKinds returns all supported action kinds
func AllKinds() []Kind {
	return []Kind{
		KindCreateFile, KindModifyFile, KindPatchFile, KindRunCommand,
		KindCreateDirectory, KindListDirectory, KindReadFileLines,
		KindAnalyze, KindInformUser, KindChat,
	}
}

// IsDiscovery reports whether the kind is read-only discovery work.
// Discovery actions do not increment the step counter.
func (k Kind) IsDiscovery() bool {
	return k == KindListDirectory || k == KindReadFileLines || k == KindAnalyze
}

// IsCommunication reports whether the kind only talks to the user
func (k Kind) IsCommunication() bool {
	return k == KindInformUser || k == KindChat
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Status represents the lifecycle state of an action within a plan
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// IsValid checks if a status value is valid
func (s Status) IsValid() bool {
	for _, valid := range AllStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// AllStatuses returns all valid status values
func AllStatuses() []Status {
	return []Status{StatusPending, StatusCompleted, StatusSkipped, StatusFailed}
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ChangeOp identifies the edit operation of a single patch change
type ChangeOp string

const (
	OpAdd          ChangeOp = "add"
	OpReplace      ChangeOp = "replace"
	OpDelete       ChangeOp = "delete"
	OpInsertAfter  ChangeOp = "insert_after"
	OpInsertBefore ChangeOp = "insert_before"
)

// IsValid checks if a change op is valid
func (o ChangeOp) IsValid() bool {
	for _, valid := range AllChangeOps() {
		if o == valid {
			return true
		}
	}
	return false
}

// AllChangeOps returns all valid change operations
func AllChangeOps() []ChangeOp {
	return []ChangeOp{OpAdd, OpReplace, OpDelete, OpInsertAfter, OpInsertBefore}
}

// Change is one edit within a patch_file action
type Change struct {
	Op      ChangeOp `json:"op"`
	Line    int      `json:"line,omitempty"` // 1-based; 0 means no line given
	Old     string   `json:"old,omitempty"`  // substring to replace (replace op)
	New     string   `json:"new,omitempty"`  // replacement text (replace op)
	Content string   `json:"content,omitempty"`
}

// IsNoOp reports whether applying the change could never alter the file
func (c Change) IsNoOp() bool {
	switch c.Op {
	case OpReplace:
		return c.Old == c.New
	case OpAdd, OpInsertAfter, OpInsertBefore:
		return false
	case OpDelete:
		return false
	default:
		return true
	}
}

// Params holds the kind-specific payload of an action. Which fields are
// required is determined by the action's kind; see RequiredFields.
type Params struct {
	Path        string   `json:"path,omitempty"`
	Content     string   `json:"content,omitempty"`
	Command     string   `json:"command,omitempty"`
	Cwd         string   `json:"cwd,omitempty"`
	TimeoutSecs int      `json:"timeout_secs,omitempty"`
	StartLine   int      `json:"start_line,omitempty"`
	EndLine     int      `json:"end_line,omitempty"`
	Message     string   `json:"message,omitempty"`
	Changes     []Change `json:"changes,omitempty"`
}

// Action is one discrete operation proposed by the model
type Action struct {
	Kind        Kind   `json:"action"`
	Description string `json:"description"`
	Params      Params `json:"params"`

	// Runtime fields, populated during execution
	Status Status `json:"status,omitempty"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RequiredFields returns the parameter field names an action kind cannot
// execute without. Unknown kinds have no requirements; the executor rejects
// them explicitly instead.
func RequiredFields(k Kind) []string {
	switch k {
	case KindCreateFile, KindModifyFile:
		return []string{"path"}
	case KindPatchFile:
		return []string{"path", "changes"}
	case KindRunCommand:
		return []string{"command"}
	case KindCreateDirectory:
		return []string{"path"}
	case KindListDirectory:
		return nil // path defaults to "."
	case KindReadFileLines, KindAnalyze:
		return []string{"path"}
	case KindInformUser, KindChat:
		return []string{"message"}
	default:
		return nil
	}
}

// ValidationError reports an action whose required fields are still missing
// after repair. It is terminal for that action.
type ValidationError struct {
	Kind    Kind
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("action %q missing required fields: %s",
		e.Kind, strings.Join(e.Missing, ", "))
}

// Validate checks that every required field for the action's kind is present.
// Returns a *ValidationError listing the missing fields.
func (a *Action) Validate() error {
	var missing []string
	for _, field := range RequiredFields(a.Kind) {
		switch field {
		case "path":
			if a.Params.Path == "" {
				missing = append(missing, "path")
			}
		case "command":
			if strings.TrimSpace(a.Params.Command) == "" {
				missing = append(missing, "command")
			}
		case "changes":
			if len(a.Params.Changes) == 0 {
				missing = append(missing, "changes")
			}
		case "message":
			if a.Params.Message == "" {
				missing = append(missing, "message")
			}
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Kind: a.Kind, Missing: missing}
	}
	return nil
}

// Key builds the repetition-detection key for an executed action. Two actions
// with the same key are considered the same attempt.
func (a *Action) Key() string {
	return fmt.Sprintf("%s:%s:%d:%d",
		a.Kind, a.Params.Path, a.Params.StartLine, a.Params.EndLine)
}
