package main

import (
	"github.com/charmbracelet/lipgloss"

	"relay/pkg/eventlog"
)

// Theme defines the visual styling for the relay dashboard.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

// DefaultTheme returns the default theme for relay-dash.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("12"),  // Blue
		Secondary: lipgloss.Color("14"),  // Cyan
		Success:   lipgloss.Color("10"),  // Green
		Warning:   lipgloss.Color("11"),  // Yellow
		Error:     lipgloss.Color("9"),   // Red
		Muted:     lipgloss.Color("240"), // Gray
	}
}

// TitleStyle renders the dashboard title.
func (t Theme) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1)
}

// HeaderStyle renders pane headers.
func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
}

// MutedStyle renders de-emphasized text.
func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Muted)
}

// styleEvent picks a style by event severity.
func (m Model) styleEvent(eventType string) lipgloss.Style {
	switch eventType {
	case eventlog.TypeCompleted:
		return lipgloss.NewStyle().Foreground(m.theme.Success)
	case eventlog.TypeTimedOut:
		return lipgloss.NewStyle().Foreground(m.theme.Warning)
	case eventlog.TypeLost:
		return lipgloss.NewStyle().Foreground(m.theme.Error)
	default:
		return lipgloss.NewStyle()
	}
}
