package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles shared across the run view.
type Styles struct {
	Title    lipgloss.Style
	StepName lipgloss.Style
	Pending  lipgloss.Style
	Running  lipgloss.Style
	Complete lipgloss.Style
	Failed   lipgloss.Style
	Dim      lipgloss.Style
	ErrBox   lipgloss.Style
}

// DefaultStyles returns the default style set.
func DefaultStyles() *Styles {
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		StepName: lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Running:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Complete: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Failed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		ErrBox: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1),
	}
}
