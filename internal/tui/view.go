package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/pkg/logformat"
)

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.mode == modeDetail {
		return m.renderDetail()
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if m.mode == modeFilter {
		b.WriteString(m.styles.FilterBar.Render(m.filterInput.View()))
	} else {
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

// renderRows formats the fetched window; offset is the view row of rows[0]
func (m *Model) renderRows(offset int) string {
	var b strings.Builder
	for i, row := range rowsOrEmpty(m.rows) {
		selected := offset+i == m.selected
		b.WriteString(m.renderRow(row, selected))
		b.WriteString("\n")
	}
	return b.String()
}

func rowsOrEmpty(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}

func (m *Model) renderRow(row Row, selected bool) string {
	number := m.styles.LineNumber.Render(fmt.Sprintf("%6d ", row.LineNumber))
	ts := logformat.FormatTime(row.Timestamp)
	if ts != "" {
		ts += " "
	}
	level := ""
	if row.Level.MarksEntryStart() {
		level = m.styles.levelStyle(row.Level).Render(fmt.Sprintf("%-5s ", row.Level))
	}
	content := row.Content
	if level == "" && ts == "" {
		content = m.styles.Continuation.Render(content)
	}
	line := number + ts + level + content
	if selected {
		line = "> " + line
	} else {
		line = "  " + line
	}
	return line
}

func (m *Model) renderStatus() string {
	name := properties.GetString(m.view.Source, properties.Name)
	status := fmt.Sprintf("%s  %d lines  %3.0f%%", name, m.total, m.progress*100)
	if m.opts.LineFilter != nil {
		status += "  [filtered]"
	}
	if m.follow {
		status += "  [follow]"
	}
	return m.styles.StatusBar.Width(m.width).Render(status)
}

func (m *Model) renderHelp() string {
	return m.styles.LineNumber.Render("j/k scroll  / filter  d detail  G follow  q quit")
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	b.WriteString(m.styles.StatusBar.Width(m.width).Render("detail (esc to close)"))
	b.WriteString("\n\n")
	for _, row := range m.rows {
		if int(row.Index) == m.selected {
			b.WriteString(fmt.Sprintf("line      %d\n", row.LineNumber))
			b.WriteString(fmt.Sprintf("original  %d\n", row.Original+1))
			b.WriteString(fmt.Sprintf("entry     %d\n", row.Entry))
			b.WriteString(fmt.Sprintf("level     %s\n", row.Level))
			if !row.Timestamp.IsZero() {
				b.WriteString(fmt.Sprintf("time      %s\n", row.Timestamp.Format("2006-01-02 15:04:05.000")))
			}
			if row.HasDelta {
				b.WriteString(fmt.Sprintf("delta     %s\n", row.Delta))
			}
			b.WriteString("\n")
			b.WriteString(m.highlight.Render(row.Content))
			b.WriteString("\n")
			break
		}
	}
	return b.String()
}
