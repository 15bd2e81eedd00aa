package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/source"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 2 // status bar + filter/help line
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = newViewport(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.refresh()
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeFilter {
		switch msg.String() {
		case "enter":
			m.applyFilter(m.filterInput.Value())
			m.mode = modeBrowse
			m.filterInput.Blur()
			return m, nil
		case "esc":
			m.mode = modeBrowse
			m.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	if m.mode == modeDetail {
		switch msg.String() {
		case "esc", "q", "d", "enter":
			m.mode = modeBrowse
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.Close()
		return m, tea.Quit
	case "/":
		m.mode = modeFilter
		m.filterInput.SetValue("")
		m.filterInput.Focus()
		return m, nil
	case "d", "enter":
		if len(m.rows) > 0 {
			m.mode = modeDetail
		}
		return m, nil
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "g", "home":
		m.selected = 0
		m.follow = false
		m.refresh()
	case "G", "end":
		m.follow = true
		m.refresh()
	case "pgdown", "ctrl+d":
		m.moveSelection(m.viewport.Height)
	case "pgup", "ctrl+u":
		m.moveSelection(-m.viewport.Height)
	}
	return m, nil
}

func (m *Model) moveSelection(by int) {
	m.follow = false
	m.selected += by
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= m.total && m.total > 0 {
		m.selected = m.total - 1
	}
	m.refresh()
}

// refresh re-reads the visible window and the view's properties
func (m *Model) refresh() {
	if m.view == nil || !m.ready {
		return
	}
	src := m.view.Source
	m.total = source.Count(src)
	m.progress = properties.GetFloat(src, properties.PercentageProcessed)

	if m.follow && m.total > 0 {
		m.selected = m.total - 1
	}
	height := m.viewport.Height
	offset := m.selected - height/2
	if offset > m.total-height {
		offset = m.total - height
	}
	if offset < 0 {
		offset = 0
	}
	m.rows = fetchWindow(src, offset, height)
	m.viewport.SetContent(m.renderRows(offset))
}
