// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#3B82F6")
	// CreditColor marks members who are owed money.
	CreditColor = lipgloss.Color("#10B981") // Green
	// DebitColor marks members who owe money.
	DebitColor = lipgloss.Color("#EF4444") // Red
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#F59E0B") // Amber
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// HeaderStyle is used for table headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true)

	CreditStyle  = lipgloss.NewStyle().Foreground(CreditColor)
	DebitStyle   = lipgloss.NewStyle().Foreground(DebitColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	SuccessStyle = lipgloss.NewStyle().Foreground(CreditColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	WarningIcon = "⚠️"
	ArrowIcon   = "→"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}
