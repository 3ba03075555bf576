package chat

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	agent     lipgloss.Style
	user      lipgloss.Style
	text      lipgloss.Style
	fallback  lipgloss.Style
	status    lipgloss.Style
	ended     lipgloss.Style
	errorText lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		agent:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		text:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		fallback:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		status:    lipgloss.NewStyle().Faint(true).MarginTop(1),
		ended:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")).MarginTop(1),
		errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}
