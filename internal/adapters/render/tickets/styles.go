package tickets

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	column lipgloss.Style
	id     lipgloss.Style
	name   lipgloss.Style
	meta   lipgloss.Style
	empty  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true),
		header: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		column: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		id:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		name:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:  lipgloss.NewStyle().Faint(true),
	}
}
