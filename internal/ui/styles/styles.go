// Package styles defines the visual styling for the terminal views.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/blockrun-report/internal/services/presentation"
)

// Color definitions for the BlockRun terminal theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("#6ee7df") // Teal
	Secondary = lipgloss.Color("#d4a0c8") // Mauve
	Subtle    = lipgloss.Color("240")     // Gray

	// Status colors
	Success = lipgloss.Color("#86efac")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("#f5c97e")
	Info    = lipgloss.Color("39")

	// Background colors
	BgDark = lipgloss.Color("235")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// KPILabelStyle styles the small caption above a KPI value.
var KPILabelStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// KPIValueStyle styles a KPI value.
var KPIValueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// DimStyle styles secondary numbers such as baselines and latencies.
var DimStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// Swatch returns a foreground style in the swatch's solid color.
func Swatch(s presentation.Swatch) lipgloss.Style {
	if s.Hex == "" {
		return lipgloss.NewStyle().Foreground(TextSecondary)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Hex))
}

// GetGaugeStyle returns the style for a savings gauge level.
func GetGaugeStyle(level string) lipgloss.Style {
	switch level {
	case presentation.GaugeHigh:
		return SuccessTextStyle.Bold(true)
	case presentation.GaugeMid:
		return WarningTextStyle.Bold(true)
	default:
		return ErrorTextStyle.Bold(true)
	}
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
