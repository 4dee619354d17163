package cmd

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	viableStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	declinedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Align(lipgloss.Right)
)
