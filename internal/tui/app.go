package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jspencer/lens/internal/pipeline"
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/source"
)

// Run starts the interactive viewer and blocks until the user quits.
func Run(raw source.LogSource, opts pipeline.ViewOptions, sched *scheduler.Scheduler, theme string) error {
	model := NewModel(raw, opts, sched, theme)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
