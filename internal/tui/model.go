// Package tui implements the interactive terminal viewer over a composed
// log pipeline.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jspencer/lens/internal/pipeline"
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/source"
)

// refreshInterval is how often the viewer re-reads the view
const refreshInterval = 250 * time.Millisecond

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeDetail
)

// tickMsg drives the periodic refresh
type tickMsg time.Time

// Model is the bubbletea model of the viewer
type Model struct {
	raw       source.LogSource
	sched     *scheduler.Scheduler
	opts      pipeline.ViewOptions
	view      *pipeline.View
	styles    Styles
	highlight *SyntaxRenderer

	viewport    viewport.Model
	filterInput textinput.Model
	mode        mode

	rows     []Row
	total    int
	progress float64
	selected int
	follow   bool
	width    int
	height   int
	ready    bool
	err      error
}

// NewModel creates the viewer model over a raw source
func NewModel(raw source.LogSource, opts pipeline.ViewOptions, sched *scheduler.Scheduler, theme string) Model {
	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "filter"
	input.CharLimit = 200

	return Model{
		raw:         raw,
		sched:       sched,
		opts:        opts,
		view:        pipeline.Build(raw, opts, sched),
		styles:      DefaultStyles(),
		highlight:   NewSyntaxRenderer(theme),
		filterInput: input,
		follow:      true,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Close disposes the composed pipeline stages
func (m *Model) Close() {
	if m.view != nil {
		m.view.Dispose()
	}
}

// applyFilter rebuilds the pipeline with the entered pattern as a
// substring line filter. An empty pattern drops the filter stage.
func (m *Model) applyFilter(pattern string) {
	opts := m.opts
	if pattern != "" {
		opts.LineFilter = pipeline.NewSubstringFilter(pattern)
	} else {
		opts.LineFilter = nil
		opts.EntryFilter = nil
	}
	old := m.view
	m.view = pipeline.Build(m.raw, opts, m.sched)
	m.opts = opts
	if old != nil {
		old.Dispose()
	}
	m.selected = 0
	m.follow = true
}
