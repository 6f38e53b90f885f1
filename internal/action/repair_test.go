package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairExtractsPathFromDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantPath    string
	}{
		{
			name:        "backtick path",
			description: "Create the file `src/main.py` with the entry point",
			wantPath:    "src/main.py",
		},
		{
			name:        "file named",
			description: "Create a file named config.yaml for settings",
			wantPath:    "config.yaml",
		},
		{
			name:        "quoted path",
			description: `Write the helper to "utils/strings.go"`,
			wantPath:    "utils/strings.go",
		},
		{
			name:        "bare mention",
			description: "Add notes.txt in the project root",
			wantPath:    "notes.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Action{Kind: KindCreateFile, Description: tt.description}
			Repair(a, "")
			assert.Equal(t, tt.wantPath, a.Params.Path)
		})
	}
}

func TestRepairWellKnownContent(t *testing.T) {
	a := &Action{
		Kind:        KindCreateFile,
		Description: "Create a .gitignore for the repo",
		Params:      Params{Path: ".gitignore"},
	}
	Repair(a, "")
	assert.Contains(t, a.Params.Content, "*.log")

	readme := &Action{
		Kind:        KindCreateFile,
		Description: "Add a README.md",
		Params:      Params{Path: "docs/README.md"},
	}
	Repair(readme, "")
	assert.Contains(t, readme.Params.Content, "# Project")
}

func TestRepairPlaceholderContent(t *testing.T) {
	a := &Action{
		Kind:        KindCreateFile,
		Description: "Create helper module for parsing dates",
		Params:      Params{Path: "dates.py"},
	}
	Repair(a, "")
	assert.Equal(t, "# Create helper module for parsing dates\n", a.Params.Content)
}

func TestRepairEmptyFileStaysEmpty(t *testing.T) {
	a := &Action{
		Kind:        KindCreateFile,
		Description: "Create empty file notes.txt",
	}
	Repair(a, "")
	assert.Equal(t, "notes.txt", a.Params.Path)
	assert.Empty(t, a.Params.Content)
}

func TestRepairNoOpPatchBecomesAnalyze(t *testing.T) {
	a := &Action{
		Kind:        KindPatchFile,
		Description: "Fix the import in app.go",
		Params: Params{
			Path: "app.go",
			Changes: []Change{
				{Op: OpReplace, Line: 3, Old: "same", New: "same"},
			},
		},
	}
	Repair(a, "")
	assert.Equal(t, KindAnalyze, a.Kind)
	assert.Equal(t, "app.go", a.Params.Path)
	assert.Empty(t, a.Params.Changes)
	assert.Greater(t, a.Params.EndLine, 0)
}

func TestRepairPatchKeepsRealChanges(t *testing.T) {
	a := &Action{
		Kind: KindPatchFile,
		Params: Params{
			Path: "app.go",
			Changes: []Change{
				{Op: OpReplace, Line: 3, Old: "same", New: "same"},
				{Op: OpDelete, Line: 7},
			},
		},
	}
	Repair(a, "")
	require.Equal(t, KindPatchFile, a.Kind)
	require.Len(t, a.Params.Changes, 1)
	assert.Equal(t, OpDelete, a.Params.Changes[0].Op)
}

func TestRepairCommandDefaults(t *testing.T) {
	a := &Action{
		Kind:        KindRunCommand,
		Description: "Run `go vet ./...` to check the code",
	}
	Repair(a, "")
	assert.Equal(t, "go vet ./...", a.Params.Command)
	assert.Equal(t, ".", a.Params.Cwd)
}

func TestRepairNeverFabricatesCommand(t *testing.T) {
	a := &Action{
		Kind:        KindRunCommand,
		Description: "Do the needful",
	}
	Repair(a, "")
	assert.Empty(t, a.Params.Command)

	err := a.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "command")
}

func TestRepairIdempotent(t *testing.T) {
	fixtures := []*Action{
		{Kind: KindCreateFile, Description: "Create the file `a.py` for parsing"},
		{Kind: KindCreateFile, Description: "Add a README.md", Params: Params{Path: "README.md"}},
		{Kind: KindRunCommand, Description: "Run `ls -la`"},
		{Kind: KindPatchFile, Description: "Patch x", Params: Params{
			Path:    "x.go",
			Changes: []Change{{Op: OpReplace, Line: 1, Old: "a", New: "a"}},
		}},
		{Kind: KindReadFileLines, Description: "Read main.go"},
		{Kind: KindInformUser, Description: "Explain the result"},
		{Kind: KindListDirectory},
	}

	for _, a := range fixtures {
		once := *Repair(a, "task")
		twice := *Repair(a, "task")
		assert.Equal(t, once, twice, "repair not idempotent for %s", a.Kind)
	}
}

func TestValidateMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		a       Action
		missing []string
	}{
		{
			name:    "create_file without path",
			a:       Action{Kind: KindCreateFile},
			missing: []string{"path"},
		},
		{
			name:    "patch_file without path or changes",
			a:       Action{Kind: KindPatchFile},
			missing: []string{"path", "changes"},
		},
		{
			name:    "run_command with whitespace command",
			a:       Action{Kind: KindRunCommand, Params: Params{Command: "   "}},
			missing: []string{"command"},
		},
		{
			name:    "inform_user without message",
			a:       Action{Kind: KindInformUser},
			missing: []string{"message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.missing, verr.Missing)
		})
	}
}

func TestValidateUnknownKindHasNoRequirements(t *testing.T) {
	a := Action{Kind: Kind("teleport_file")}
	assert.NoError(t, a.Validate())
	assert.False(t, a.Kind.IsValid())
}

func TestActionKey(t *testing.T) {
	a := Action{
		Kind:   KindReadFileLines,
		Params: Params{Path: "main.go", StartLine: 1, EndLine: 50},
	}
	assert.Equal(t, "read_file_lines:main.go:1:50", a.Key())
}
