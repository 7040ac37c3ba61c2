// Package style provides consistent terminal styling using Lipgloss.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Success style for checks that pass and completed actions
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")). // Green
		Bold(true)

	// Warning style for advisory findings
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")). // Yellow
		Bold(true)

	// Error style for blocking failures
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")). // Red
		Bold(true)

	// Info style for informational messages
	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")) // Blue

	// Dim style for secondary information
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")) // Gray

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	// Command style for copy-pasteable fixes
	Command = lipgloss.NewStyle().
		Foreground(lipgloss.Color("14")) // Cyan

	// SuccessPrefix is the checkmark prefix for passing output
	SuccessPrefix = Success.Render("✓")

	// WarningPrefix is the prefix for advisory output
	WarningPrefix = Warning.Render("⚠")

	// ErrorPrefix is the prefix for blocking output
	ErrorPrefix = Error.Render("✗")

	// ArrowPrefix for suggested next actions
	ArrowPrefix = Info.Render("→")
)
