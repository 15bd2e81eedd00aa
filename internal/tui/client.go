package tui

import (
	"time"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/source"
)

// Row is one rendered line of the view
type Row struct {
	Index      domain.LogLineIndex
	Original   domain.LogLineIndex
	Entry      domain.LogEntryIndex
	Content    string
	Level      domain.LogLevel
	Timestamp  time.Time
	Delta      time.Duration
	HasDelta   bool
	LineNumber int
}

// fetchWindow reads count rows starting at offset from the view
func fetchWindow(src source.LogSource, offset, count int) []Row {
	if count <= 0 {
		return nil
	}
	rows := domain.LineIndices(domain.LogLineIndex(offset), count)
	buf := columns.NewMinimumBuffer(count)
	if err := src.GetEntries(rows, buf, 0, source.DefaultQueryOptions); err != nil {
		return nil
	}

	indexes := buf.LineIndexes(columns.Index)
	originals := buf.LineIndexes(columns.OriginalIndex)
	entries := buf.EntryIndexes(columns.LogEntryIndex)
	numbers := buf.Ints(columns.LineNumber)
	contents := buf.Strings(columns.RawContent)
	levels := buf.Levels(columns.LogLevel)
	times := buf.Times(columns.Timestamp)
	deltas := buf.Durations(columns.DeltaTime)

	out := make([]Row, 0, count)
	for i := 0; i < count; i++ {
		if !indexes[i].IsValid() {
			break
		}
		row := Row{
			Index:      indexes[i],
			Original:   originals[i],
			Entry:      entries[i],
			Content:    contents[i],
			Level:      levels[i],
			Timestamp:  times[i],
			LineNumber: numbers[i],
		}
		if deltas[i] != domain.InvalidDuration {
			row.Delta = deltas[i]
			row.HasDelta = true
		}
		out = append(out, row)
	}
	return out
}
