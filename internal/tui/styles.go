package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("205")
	colorSecondary = lipgloss.Color("241")
	colorText      = lipgloss.Color("252")
	colorError     = lipgloss.Color("160")
	colorActive    = lipgloss.Color("42")

	styleHeader = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleColumn = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleCursor = lipgloss.NewStyle().Foreground(colorActive).Bold(true).Underline(true)
	styleCell   = lipgloss.NewStyle().Foreground(colorText)
	styleSubtle = lipgloss.NewStyle().Foreground(colorSecondary)
	styleError  = lipgloss.NewStyle().Foreground(colorError)
	styleOn     = lipgloss.NewStyle().Foreground(colorActive)

	styleInputBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorSecondary).
			Padding(0, 1)
)
