package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6366F1"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#10B981"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 1)
)
