// Package output provides styled terminal rendering helpers for insightwatch.
package output

import "github.com/charmbracelet/lipgloss"

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and info insights.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorSuccess is used for positive insights.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for critical insights.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for warning insights.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles. SetNoColor rebuilds them.
var (
	StyleHeader   lipgloss.Style
	StyleCritical lipgloss.Style
	StyleWarning  lipgloss.Style
	StylePositive lipgloss.Style
	StyleInfo     lipgloss.Style
	StyleMuted    lipgloss.Style
	StyleBold     lipgloss.Style
	StyleLabel    lipgloss.Style
)

// noColor tracks whether color output is disabled.
var noColor bool

func init() {
	applyStyles(true)
}

// SetNoColor disables or enables color output globally.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(!disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

func applyStyles(color bool) {
	if !color {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleCritical = plain
		StyleWarning = plain
		StylePositive = plain
		StyleInfo = plain
		StyleMuted = plain
		StyleBold = plain
		StyleLabel = plain.Width(14)
		return
	}
	StyleHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleCritical = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StylePositive = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleInfo = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold = lipgloss.NewStyle().Bold(true)
	StyleLabel = lipgloss.NewStyle().Width(14)
}
