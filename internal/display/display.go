// Package display provides unified output formatting for the taskpilot CLI.
// It visually separates agent orchestration messages from model-relayed text.
package display

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Display handles all CLI output with visual hierarchy
type Display struct {
	theme     *Theme
	termWidth int
	in        *bufio.Reader
	out       io.Writer
}

// New creates a new Display instance
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display with configuration
func NewWithOptions(noColor bool) *Display {
	d := &Display{
		termWidth: getTerminalWidth(),
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

// getTerminalWidth returns the terminal width, defaulting to 80
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120 // Cap at 120 for readability
	}
	return width
}

// Box prints a boxed message with a title, used for run headers and
// terminal outcomes
func (d *Display) Box(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4 // "─ TITLE "
	remainingWidth := width - titleLen
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Fprintln(d.out, d.theme.AgentBorder(topLine))

	for _, line := range lines {
		padded := d.padRight(line, width-2)
		fmt.Fprintln(d.out, d.theme.AgentBorder(BoxVertical)+" "+d.theme.AgentText(padded)+" "+d.theme.AgentBorder(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Fprintln(d.out, d.theme.AgentBorder(bottomLine))
}

// Status prints a single-line timestamped status message
func (d *Display) Status(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Fprintf(d.out, "%s %s %s\n",
		d.theme.Dim(timestamp), symbol, d.theme.AgentText(message))
}

// Success prints a success message with green checkmark
func (d *Display) Success(message string) {
	d.Status(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with red X
func (d *Display) Error(message string) {
	d.Status(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with yellow triangle
func (d *Display) Warning(message string) {
	d.Status(d.theme.Warning(SymbolWarning), message)
}

// Info prints an info message with a cyan label
func (d *Display) Info(label, message string) {
	d.Status(d.theme.Info(label+":"), message)
}

// Skipped prints a skipped-action message
func (d *Display) Skipped(message string) {
	d.Status(d.theme.Dim(SymbolSkipped), message)
}

// Step prints 1-based progress for a non-discovery action
func (d *Display) Step(number int, description string) {
	d.Status(d.theme.Info(SymbolStep),
		fmt.Sprintf("[%d] %s", number, Truncate(description, d.termWidth-20)))
}

// PlanHeader announces the plan about to execute
func (d *Display) PlanHeader(planNumber, actionCount int, strategy string) {
	lines := []string{fmt.Sprintf("Plan %d: %d action(s)", planNumber, actionCount)}
	if strategy != "" {
		lines = append(lines, d.wrapText(Truncate(strategy, 300), d.termWidth-6)...)
	}
	d.Box("PLAN", lines...)
}

// Message relays an inform_user/chat message from the model
func (d *Display) Message(text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fmt.Fprintf(d.out, "  %s\n", d.theme.ModelText(line))
	}
}

// Thinking announces an in-flight model call
func (d *Display) Thinking(what string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Fprintf(d.out, "%s %s %s\n",
		d.theme.Dim(timestamp), d.theme.Dim("…"), d.theme.Dim(what))
}

// Outcome prints the terminal result box for a run
func (d *Display) Outcome(success bool, reason string, steps, plans int, elapsed time.Duration) {
	title := "COMPLETED"
	if !success {
		title = "ABORTED"
	}
	lines := []string{
		fmt.Sprintf("Steps completed: %d", steps),
		fmt.Sprintf("Plans executed:  %d", plans),
		fmt.Sprintf("Elapsed:         %s", elapsed.Round(time.Second)),
	}
	if reason != "" {
		lines = append(lines, "Reason: "+Truncate(reason, d.termWidth-14))
	}
	d.Box(title, lines...)
}

// Confirm asks a yes/no question, defaulting to no
func (d *Display) Confirm(prompt string) bool {
	fmt.Fprintf(d.out, "%s %s [y/N]: ", d.theme.Warning("?"), prompt)
	line, err := d.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// ChooseRecovery asks how to handle a failed action. Returns one of
// "retry", "skip", "abort" plus optional free-text instructions for retry.
func (d *Display) ChooseRecovery(errMsg string) (choice, instructions string, err error) {
	d.Error("Action failed:")
	for _, line := range strings.Split(errMsg, "\n") {
		fmt.Fprintf(d.out, "    %s\n", d.theme.Dim(line))
	}

	for {
		fmt.Fprintf(d.out, "%s [r]etry with corrected plan / [s]kip / [a]bort: ", d.theme.Warning("?"))
		line, readErr := d.in.ReadString('\n')
		if readErr != nil {
			return "", "", readErr
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r", "retry", "":
			fmt.Fprintf(d.out, "  Extra guidance for the correction (enter to skip): ")
			guidance, _ := d.in.ReadString('\n')
			return "retry", strings.TrimSpace(guidance), nil
		case "s", "skip":
			return "skip", "", nil
		case "a", "abort":
			return "abort", "", nil
		}
	}
}

// Theme returns the current theme for external use
func (d *Display) Theme() *Theme {
	return d.theme
}

// wrapText wraps text to the specified width
func (d *Display) wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	text = strings.TrimSpace(text)
	if len(text) <= maxWidth {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > maxWidth {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// padRight pads a string to the specified width
func (d *Display) padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with ellipsis
func Truncate(s string, max int) string {
	s = CleanText(s)
	if max < 4 {
		max = 4
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses spaces
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
