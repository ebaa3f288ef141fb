package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style
	Card     lipgloss.Style

	Passed  lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Running lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Subtitle: lipgloss.NewStyle().Faint(true),
		Help:     lipgloss.NewStyle().Faint(true),
		Card: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),
		Passed:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Skipped: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
}
