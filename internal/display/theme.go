package display

import "github.com/fatih/color"

// Box drawing characters
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
)

// Status symbols
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolStep    = "▸"
	SymbolSkipped = "○"
)

// Theme holds all color functions for consistent styling
type Theme struct {
	// Agent orchestration (prominent)
	AgentBorder func(a ...interface{}) string
	AgentLabel  func(a ...interface{}) string
	AgentText   func(a ...interface{}) string

	// Model-relayed output (subdued)
	ModelText func(a ...interface{}) string

	// Status indicators
	Success func(a ...interface{}) string
	Error   func(a ...interface{}) string
	Warning func(a ...interface{}) string
	Info    func(a ...interface{}) string

	// Structural elements
	Bold func(a ...interface{}) string
	Dim  func(a ...interface{}) string
}

// DefaultTheme creates the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		AgentBorder: color.New(color.FgCyan).SprintFunc(),
		AgentLabel:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		AgentText:   color.New(color.FgWhite).SprintFunc(),

		ModelText: color.New(color.FgHiBlack).SprintFunc(),

		Success: color.New(color.FgGreen).SprintFunc(),
		Error:   color.New(color.FgRed).SprintFunc(),
		Warning: color.New(color.FgYellow).SprintFunc(),
		Info:    color.New(color.FgCyan).SprintFunc(),

		Bold: color.New(color.Bold).SprintFunc(),
		Dim:  color.New(color.FgHiBlack).SprintFunc(),
	}
}

// NoColorTheme creates a theme without colors (for --no-color or non-TTY)
func NoColorTheme() *Theme {
	identity := func(a ...interface{}) string {
		if len(a) == 0 {
			return ""
		}
		return a[0].(string)
	}
	return &Theme{
		AgentBorder: identity,
		AgentLabel:  identity,
		AgentText:   identity,
		ModelText:   identity,
		Success:     identity,
		Error:       identity,
		Warning:     identity,
		Info:        identity,
		Bold:        identity,
		Dim:         identity,
	}
}
