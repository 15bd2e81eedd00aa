package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/constants"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/source"
)

// entryInfo records which logical entry a source line belongs to and where
// that entry starts.
type entryInfo struct {
	entry     domain.LogEntryIndex
	firstLine domain.LogLineIndex
}

var invalidEntry = entryInfo{entry: domain.InvalidLogEntryIndex, firstLine: domain.InvalidLogLineIndex}

// Grouper fuses consecutive physical lines into logical entries. Its rows
// map 1:1 to input lines; the LogEntryIndex column collapses continuation
// lines (no timestamp, no recognized level) into the preceding entry, and
// Timestamp/LogLevel queries are answered from each entry's start line.
type Grouper struct {
	stageBase

	// mu guards indices, the only state shared with query goroutines.
	mu      sync.Mutex
	indices []entryInfo

	// Task-local processing state.
	currentEntry       entryInfo
	currentSourceIndex domain.LogLineIndex
	fullSection        domain.LogSourceSection
	flushed            bool
	fetch              *columns.Buffer
}

// NewGrouper creates a grouping stage over src. When sched is non-nil the
// stage processes on its own periodic task; otherwise the caller drives
// RunOnce directly.
func NewGrouper(src source.LogSource, sched *scheduler.Scheduler) *Grouper {
	g := &Grouper{
		stageBase: stageBase{
			name:     "multiline-grouper",
			src:      src,
			ownProps: properties.NewBag(properties.PercentageProcessed, properties.LogEntryCount),
			maxWait:  constants.DefaultListenerMaxWait,
		},
		currentEntry: invalidEntry,
		// The grouper only needs the entry-start signals per line, so its
		// fetch buffer is the minimum schema restricted to those columns.
		fetch: columns.NewMinimumBuffer(constants.MaxLinesPerRun).View(columns.Timestamp, columns.LogLevel),
	}
	g.fanout = source.NewFanout(g, g.rowCount)
	g.start(g, g, sched, constants.DefaultListenerBatchSize)
	return g
}

func (g *Grouper) rowCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.indices)
}

// RunOnce implements scheduler.Task: it dequeues up to one batch worth of
// modifications, applies them, republishes properties and notifies
// listeners. Returns zero while work remains.
func (g *Grouper) RunOnce(ctx context.Context) time.Duration {
	if g.disposed.Load() {
		return g.maxWait
	}

	mods := g.pending.DrainLines(constants.MaxLinesPerRun)
	if len(mods) == 0 {
		return g.maxWait
	}

	for _, mod := range mods {
		if ctx.Err() != nil {
			return g.maxWait
		}
		switch {
		case mod.IsReset():
			g.reset()
		case mod.IsRemoved():
			g.remove(mod.Section)
		case mod.IsAppended():
			g.append(ctx, mod.Section)
		}
	}

	g.publishProperties()
	g.fanout.OnRead(int(g.currentSourceIndex))
	if g.caughtUp() && !g.flushed {
		g.fanout.Flush()
		g.flushed = true
	}

	if g.pending.Len() > 0 {
		return 0
	}
	return g.maxWait
}

func (g *Grouper) reset() {
	g.mu.Lock()
	g.indices = g.indices[:0]
	g.mu.Unlock()

	g.currentEntry = invalidEntry
	g.currentSourceIndex = 0
	g.fullSection = domain.LogSourceSection{}
	g.flushed = false
	g.fanout.OnRead(-1)
}

// remove trims the grouped index back past the retracted section. The
// rewind goes to the start of the entry containing the boundary so that
// re-appending identical content reproduces identical entry assignments.
func (g *Grouper) remove(sec domain.LogSourceSection) {
	g.mu.Lock()
	if int(sec.Index) >= len(g.indices) {
		// Retracted range was never processed.
		g.mu.Unlock()
		if g.currentSourceIndex > sec.Index {
			g.currentSourceIndex = sec.Index
		}
		g.clipFullSection(sec.Index)
		g.flushed = false
		return
	}

	rewind := g.indices[sec.Index].firstLine
	if !rewind.IsValid() || rewind > sec.Index {
		log.Printf("grouper: inconsistent entry start %d at line %d, rewinding to boundary", rewind, sec.Index)
		rewind = sec.Index
	}
	removed := len(g.indices) - int(rewind)
	g.indices = g.indices[:rewind]
	last := invalidEntry
	if len(g.indices) > 0 {
		last = g.indices[len(g.indices)-1]
	}
	g.mu.Unlock()

	g.currentSourceIndex = rewind
	g.clipFullSection(sec.Index)
	// No current entry: the first reprocessed line must begin a new one,
	// numbered after the last entry still present.
	g.currentEntry = entryInfo{entry: last.entry, firstLine: domain.InvalidLogLineIndex}
	g.flushed = false
	g.fanout.OnRemove(rewind, removed)
}

func (g *Grouper) clipFullSection(end domain.LogLineIndex) {
	if g.fullSection.End() > end {
		g.fullSection = domain.NewSection(0, int(end))
	}
}

func (g *Grouper) append(ctx context.Context, sec domain.LogSourceSection) {
	g.fullSection = domain.MinimumBoundingLine(g.fullSection, sec)
	if sec.End() <= g.currentSourceIndex {
		// Already processed; an identical replay changes nothing.
		return
	}
	g.flushed = false
	// Processing always resumes at the watermark, which sits at or below
	// the appended section after a removal rewound it over an entry start.
	for batchStart := g.currentSourceIndex; batchStart < sec.End(); {
		count := int(sec.End() - batchStart)
		if count > constants.MaxLinesPerRun {
			count = constants.MaxLinesPerRun
		}
		rows := domain.LineIndices(batchStart, count)
		if err := g.src.GetEntries(rows, g.fetch, 0, source.DefaultQueryOptions); err != nil {
			log.Printf("grouper: fetching %d rows at %d: %v", count, batchStart, err)
			return
		}
		times := g.fetch.Times(columns.Timestamp)
		levels := g.fetch.Levels(columns.LogLevel)

		for i := 0; i < count; i++ {
			if ctx.Err() != nil {
				return
			}
			line := batchStart + domain.LogLineIndex(i)
			isStart := !times[i].IsZero() || levels[i].MarksEntryStart()
			if isStart || !g.currentEntry.firstLine.IsValid() {
				g.currentEntry = entryInfo{entry: g.currentEntry.entry + 1, firstLine: line}
			}
			g.mu.Lock()
			g.indices = append(g.indices, g.currentEntry)
			g.mu.Unlock()
			g.currentSourceIndex = line + 1
		}
		batchStart += domain.LogLineIndex(count)
	}
}

func (g *Grouper) caughtUp() bool {
	return g.pending.Len() == 0 && g.currentSourceIndex >= g.fullSection.End()
}

func (g *Grouper) publishProperties() {
	staged := properties.NewBag()
	staged.SetProperty(properties.LogEntryCount, g.rowCount())
	staged.SetProperty(properties.PercentageProcessed, g.progress(g.currentSourceIndex, g.fullSection))
	g.ownProps.CopyFrom(staged)
}

// Dispose deregisters from the source, stops the task and releases the
// grouped index. The input source is not disposed.
func (g *Grouper) Dispose() {
	if !g.dispose() {
		return
	}
	g.mu.Lock()
	g.indices = nil
	g.mu.Unlock()
}

// Columns implements source.LogSource; the grouper preserves its input's
// column set.
func (g *Grouper) Columns() []columns.Column {
	return g.src.Columns()
}

// GetColumn implements source.LogSource. Timestamp and LogLevel queries
// are redirected to each row's entry start line; LogEntryIndex is served
// from the grouped index; everything else passes through unchanged.
func (g *Grouper) GetColumn(rows []domain.LogLineIndex, col columns.Column, dst *columns.Buffer, dstOffset int, opts source.QueryOptions) error {
	if err := columns.ValidateDestination(rows, dst, dstOffset); err != nil {
		return err
	}
	if g.disposed.Load() {
		dst.FillColumnDefault(col.ID, dstOffset, len(rows))
		return nil
	}

	switch col.ID {
	case columns.Timestamp, columns.LogLevel:
		translated := make([]domain.LogLineIndex, len(rows))
		g.mu.Lock()
		for i, r := range rows {
			if r >= 0 && int(r) < len(g.indices) {
				translated[i] = g.indices[r].firstLine
			} else {
				translated[i] = domain.InvalidLogLineIndex
			}
		}
		g.mu.Unlock()
		return g.src.GetColumn(translated, col, dst, dstOffset, opts)

	case columns.LogEntryIndex:
		cells := dst.EntryIndexes(col.ID)
		g.mu.Lock()
		for i, r := range rows {
			if r >= 0 && int(r) < len(g.indices) && cells != nil {
				cells[dstOffset+i] = g.indices[r].entry
			} else {
				dst.FillColumnDefault(col.ID, dstOffset+i, 1)
			}
		}
		g.mu.Unlock()
		return nil

	default:
		return g.src.GetColumn(rows, col, dst, dstOffset, opts)
	}
}

// GetEntries implements source.LogSource.
func (g *Grouper) GetEntries(rows []domain.LogLineIndex, dst *columns.Buffer, dstOffset int, opts source.QueryOptions) error {
	if err := columns.ValidateDestination(rows, dst, dstOffset); err != nil {
		return err
	}
	for _, col := range dst.Columns() {
		if err := g.GetColumn(rows, col, dst, dstOffset, opts); err != nil {
			return err
		}
	}
	return nil
}

// AddListener implements source.LogSource.
func (g *Grouper) AddListener(l source.Listener, maxWait time.Duration, maxBatch int) source.ListenerID {
	return g.fanout.Add(l, maxWait, maxBatch)
}

// RemoveListener implements source.LogSource.
func (g *Grouper) RemoveListener(id source.ListenerID) {
	g.fanout.Remove(id)
}
