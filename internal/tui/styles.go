package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Styles for command output.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Width(10)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)
)

// Symbols for visual feedback.
const (
	SymbolCheck      = "✓"
	SymbolCross      = "✗"
	SymbolWarning    = "!"
	SymbolArrowRight = "→"
	SymbolBullet     = "•"
)

// Field is one labelled line of a details panel.
type Field struct {
	Label string
	Value string
}

// Details renders a title followed by labelled fields. Fields with an
// empty value are omitted.
func Details(title string, fields ...Field) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(f.Label))
		b.WriteString(f.Value)
	}
	return b.String()
}

// Status renders a verification status with its symbol and color.
func Status(status string) string {
	switch status {
	case "passed":
		return SuccessStyle.Render(SymbolCheck + " " + status)
	case "failed":
		return ErrorStyle.Render(SymbolCross + " " + status)
	case "":
		return ""
	}
	return WarningStyle.Render(SymbolWarning + " " + status)
}
