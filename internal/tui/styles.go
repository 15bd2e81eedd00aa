package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jspencer/lens/internal/domain"
)

// Styles holds the lipgloss styles used by the viewer
type Styles struct {
	StatusBar    lipgloss.Style
	StatusKey    lipgloss.Style
	FilterBar    lipgloss.Style
	LineNumber   lipgloss.Style
	Continuation lipgloss.Style
	Levels       map[domain.LogLevel]lipgloss.Style
}

// DefaultStyles returns the default color scheme
func DefaultStyles() Styles {
	return Styles{
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		StatusKey: lipgloss.NewStyle().
			Bold(true),
		FilterBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")),
		LineNumber: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Continuation: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		Levels: map[domain.LogLevel]lipgloss.Style{
			domain.LevelTrace:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			domain.LevelDebug:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			domain.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			domain.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			domain.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			domain.LevelFatal:   lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),
		},
	}
}

// levelStyle returns the style for a level, falling back to plain
func (s Styles) levelStyle(level domain.LogLevel) lipgloss.Style {
	if style, ok := s.Levels[level]; ok {
		return style
	}
	return lipgloss.NewStyle()
}
