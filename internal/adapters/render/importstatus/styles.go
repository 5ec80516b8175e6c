package importstatus

import "github.com/charmbracelet/lipgloss"

type styles struct {
	label  lipgloss.Style
	counts lipgloss.Style
	detail lipgloss.Style
}

func newStyles() styles {
	return styles{
		label:  lipgloss.NewStyle().Bold(true),
		counts: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		detail: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
