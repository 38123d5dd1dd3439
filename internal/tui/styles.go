package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles the model renders with.
type Styles struct {
	Title   lipgloss.Style
	Stats   lipgloss.Style
	Label   lipgloss.Style
	Focused lipgloss.Style
	Error   lipgloss.Style
	Status  lipgloss.Style
	Prompt  lipgloss.Style
	Muted   lipgloss.Style
	Table   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Stats: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Label: lipgloss.NewStyle().Width(12),
		Focused: lipgloss.NewStyle().
			Width(12).
			Bold(true).
			Foreground(lipgloss.Color("205")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Prompt: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Table: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")),
	}
}
