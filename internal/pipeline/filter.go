package pipeline

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/constants"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/source"
)

// FilterStage exposes the monotone subsequence of its source's rows that
// survives a per-line predicate and a per-entry predicate. Lines of one
// logical entry are staged until the entry boundary, then admitted or
// discarded as a whole.
type FilterStage struct {
	stageBase

	lineFilter  LineFilter
	entryFilter EntryFilter

	// mu guards indices and logEntryIndices, the state read by query
	// goroutines while the processing task writes it.
	mu              sync.Mutex
	indices         []domain.LogLineIndex
	logEntryIndices map[domain.LogLineIndex]domain.LogEntryIndex

	// Task-local processing state (maxCharactersPerLine is also read by
	// MaxCharactersPerLine and is accessed under mu).
	staged               []Line
	currentSourceIndex   domain.LogLineIndex
	currentLogEntry      domain.LogEntryIndex
	fullSection          domain.LogSourceSection
	maxCharactersPerLine int
	flushed              bool
	fetch                *columns.Buffer
}

// fetchColumns is what the filter pulls from its source per batch.
var fetchColumns = []columns.ID{
	columns.LogEntryIndex, columns.RawContent, columns.LogLevel, columns.Timestamp,
}

// NewFilterStage creates a filtering stage over src. Nil filters default
// to accept-all. When sched is non-nil the stage processes on its own
// periodic task; otherwise the caller drives RunOnce directly.
func NewFilterStage(src source.LogSource, lineFilter LineFilter, entryFilter EntryFilter, sched *scheduler.Scheduler) *FilterStage {
	if lineFilter == nil {
		lineFilter = AcceptAllLines()
	}
	if entryFilter == nil {
		entryFilter = AcceptAllEntries()
	}
	f := &FilterStage{
		stageBase: stageBase{
			name:     "filter",
			src:      src,
			ownProps: properties.NewBag(properties.PercentageProcessed, properties.LogEntryCount),
			maxWait:  constants.DefaultListenerMaxWait,
		},
		lineFilter:      lineFilter,
		entryFilter:     entryFilter,
		logEntryIndices: make(map[domain.LogLineIndex]domain.LogEntryIndex),
		fetch:           columns.NewMinimumBuffer(constants.MaxLinesPerRun).View(fetchColumns...),
	}
	f.fanout = source.NewFanout(f, f.rowCount)
	f.start(f, f, sched, constants.DefaultListenerBatchSize)
	return f
}

func (f *FilterStage) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.indices)
}

// MaxCharactersPerLine returns the length of the longest admitted line.
func (f *FilterStage) MaxCharactersPerLine() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxCharactersPerLine
}

// RunOnce implements scheduler.Task: drain all pending modifications, then
// advance the watermark through the known source extent one batch at a
// time. Returns zero while work remains.
func (f *FilterStage) RunOnce(ctx context.Context) time.Duration {
	if f.disposed.Load() {
		return f.maxWait
	}

	mods := f.pending.DrainAll()
	for _, mod := range mods {
		switch {
		case mod.IsReset():
			f.reset()
		case mod.IsRemoved():
			f.remove(mod.Section)
		case mod.IsAppended():
			f.fullSection = domain.MinimumBoundingLine(f.fullSection, mod.Section)
			f.flushed = false
		}
	}

	processed := 0
	for f.currentSourceIndex < f.fullSection.End() && processed < constants.MaxLinesPerRun {
		if ctx.Err() != nil {
			return f.maxWait
		}
		count := int(f.fullSection.End() - f.currentSourceIndex)
		if count > constants.MaxLinesPerRun-processed {
			count = constants.MaxLinesPerRun - processed
		}
		if !f.processBatch(ctx, f.currentSourceIndex, count) {
			f.publishProperties()
			f.fanout.OnRead(f.rowCount())
			return f.maxWait
		}
		processed += count
	}

	if f.currentSourceIndex >= f.fullSection.End() {
		f.commitStaged(false)
		f.publishProperties()
		f.fanout.OnRead(f.rowCount())
		if !f.flushed && properties.GetFloat(f, properties.PercentageProcessed) >= 1 {
			f.fanout.Flush()
			f.flushed = true
		}
		return f.maxWait
	}

	f.publishProperties()
	f.fanout.OnRead(f.rowCount())
	return 0
}

// processBatch fetches count rows at start and runs each through the
// line filter and entry staging. Returns false on a fetch failure.
func (f *FilterStage) processBatch(ctx context.Context, start domain.LogLineIndex, count int) bool {
	rows := domain.LineIndices(start, count)
	if err := f.src.GetEntries(rows, f.fetch, 0, source.DefaultQueryOptions); err != nil {
		log.Printf("filter: fetching %d rows at %d: %v", count, start, err)
		return false
	}
	entries := f.fetch.EntryIndexes(columns.LogEntryIndex)
	contents := f.fetch.Strings(columns.RawContent)
	levels := f.fetch.Levels(columns.LogLevel)
	times := f.fetch.Times(columns.Timestamp)

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return false
		}
		line := Line{
			SourceIndex: start + domain.LogLineIndex(i),
			EntryIndex:  entries[i],
			Content:     contents[i],
			Level:       levels[i],
			Timestamp:   times[i],
		}
		f.processLine(line)
		f.currentSourceIndex = line.SourceIndex + 1
	}
	return true
}

func (f *FilterStage) processLine(line Line) {
	if len(f.staged) == 0 || line.EntryIndex == f.staged[0].EntryIndex {
		if f.lineFilter.PassesLine(line) {
			f.stageLine(line)
		}
		return
	}
	// Entry boundary: decide the staged entry's fate, then seed the next.
	f.commitStaged(true)
	if f.lineFilter.PassesLine(line) {
		f.stageLine(line)
	}
}

func (f *FilterStage) stageLine(line Line) {
	// A line can already be staged when an entry was committed by a
	// trailing flush and kept for growth; never stage it twice.
	if n := len(f.staged); n > 0 && f.staged[n-1].SourceIndex >= line.SourceIndex {
		return
	}
	f.staged = append(f.staged, line)
}

// commitStaged attempts to admit the staged entry. clear empties the
// staging buffer afterwards (entry boundary); the trailing flush keeps it
// so an entry still growing at the source end can accumulate further
// lines. Already-committed prefixes are skipped, which makes replays and
// repeated trailing commits idempotent.
func (f *FilterStage) commitStaged(clear bool) {
	if len(f.staged) == 0 {
		return
	}
	defer func() {
		if clear {
			f.staged = f.staged[:0]
		}
	}()

	if !f.entryFilter.PassesEntry(f.staged) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	last := domain.InvalidLogLineIndex
	if len(f.indices) > 0 {
		last = f.indices[len(f.indices)-1]
	}
	if f.staged[len(f.staged)-1].SourceIndex == last {
		// Everything staged is already admitted.
		return
	}

	// Join the entry this buffer already belongs to (a prefix was
	// committed by an earlier trailing flush), otherwise open a new one.
	entry := f.currentLogEntry
	if existing, ok := f.logEntryIndices[f.staged[0].SourceIndex]; ok {
		entry = existing
	} else {
		f.currentLogEntry++
	}

	for _, line := range f.staged {
		if line.SourceIndex <= last {
			continue
		}
		f.indices = append(f.indices, line.SourceIndex)
		f.logEntryIndices[line.SourceIndex] = entry
		if len(line.Content) > f.maxCharactersPerLine {
			f.maxCharactersPerLine = len(line.Content)
		}
	}
}

func (f *FilterStage) reset() {
	f.mu.Lock()
	f.indices = f.indices[:0]
	f.logEntryIndices = make(map[domain.LogLineIndex]domain.LogEntryIndex)
	f.mu.Unlock()

	f.staged = f.staged[:0]
	f.currentSourceIndex = 0
	f.currentLogEntry = 0
	f.fullSection = domain.LogSourceSection{}
	f.flushed = false
	f.fanout.OnRead(-1)
}

func (f *FilterStage) remove(sec domain.LogSourceSection) {
	changed := false
	if f.fullSection.End() > sec.Index {
		f.fullSection = domain.NewSection(0, int(sec.Index))
		changed = true
	}
	if f.currentSourceIndex > sec.Index {
		f.currentSourceIndex = sec.Index
		changed = true
	}

	f.mu.Lock()
	keep := sort.Search(len(f.indices), func(i int) bool {
		return f.indices[i] >= sec.Index
	})
	// When the boundary splits an admitted entry, drop that entry wholly
	// and rewind the watermark over its surviving lines; reprocessing them
	// keeps the entry's lines under one index and makes an identical
	// re-append restore the previous state exactly.
	if keep > 0 && keep < len(f.indices) &&
		f.logEntryIndices[f.indices[keep]] == f.logEntryIndices[f.indices[keep-1]] {
		split := f.logEntryIndices[f.indices[keep-1]]
		for keep > 0 && f.logEntryIndices[f.indices[keep-1]] == split {
			keep--
		}
	}
	removed := len(f.indices) - keep
	if keep < len(f.indices) {
		if first := f.indices[keep]; first < f.currentSourceIndex {
			f.currentSourceIndex = first
		}
	}
	for _, src := range f.indices[keep:] {
		delete(f.logEntryIndices, src)
	}
	f.indices = f.indices[:keep]
	if keep > 0 {
		f.currentLogEntry = f.logEntryIndices[f.indices[keep-1]] + 1
	} else {
		f.currentLogEntry = 0
	}
	f.mu.Unlock()

	// Re-seed the staging buffer: only lines below both the retracted
	// range and the rewound watermark may remain staged.
	kept := f.staged[:0]
	for _, line := range f.staged {
		if line.SourceIndex < f.currentSourceIndex {
			kept = append(kept, line)
		}
	}
	f.staged = kept

	if removed > 0 || changed {
		f.flushed = false
	}
	if removed > 0 {
		f.fanout.OnRemove(domain.LogLineIndex(keep), removed)
	}
}

func (f *FilterStage) publishProperties() {
	staged := properties.NewBag()
	staged.SetProperty(properties.LogEntryCount, f.rowCount())
	staged.SetProperty(properties.PercentageProcessed, f.progress(f.currentSourceIndex, f.fullSection))
	f.ownProps.CopyFrom(staged)
}

// Dispose deregisters from the source, stops the task and releases the
// index vector. The input source is not disposed.
func (f *FilterStage) Dispose() {
	if !f.dispose() {
		return
	}
	f.mu.Lock()
	f.indices = nil
	f.logEntryIndices = nil
	f.mu.Unlock()
	f.staged = nil
}

// Columns implements source.LogSource; the filter preserves its input's
// column set.
func (f *FilterStage) Columns() []columns.Column {
	return f.src.Columns()
}

// translate maps local rows to source rows under the index lock.
func (f *FilterStage) translate(rows []domain.LogLineIndex) []domain.LogLineIndex {
	translated := make([]domain.LogLineIndex, len(rows))
	f.mu.Lock()
	for i, r := range rows {
		if r >= 0 && int(r) < len(f.indices) {
			translated[i] = f.indices[r]
		} else {
			translated[i] = domain.InvalidLogLineIndex
		}
	}
	f.mu.Unlock()
	return translated
}

// GetColumn implements source.LogSource. Index and LineNumber are local;
// LogEntryIndex is served from the filter's own entry numbering so that
// multi-line entries stay grouped; DeltaTime is computed between mapped
// source rows; everything else maps the row and delegates.
func (f *FilterStage) GetColumn(rows []domain.LogLineIndex, col columns.Column, dst *columns.Buffer, dstOffset int, opts source.QueryOptions) error {
	if err := columns.ValidateDestination(rows, dst, dstOffset); err != nil {
		return err
	}
	if f.disposed.Load() {
		dst.FillColumnDefault(col.ID, dstOffset, len(rows))
		return nil
	}

	switch col.ID {
	case columns.Index:
		cells := dst.LineIndexes(col.ID)
		f.mu.Lock()
		for i, r := range rows {
			if r >= 0 && int(r) < len(f.indices) && cells != nil {
				cells[dstOffset+i] = r
			} else {
				dst.FillColumnDefault(col.ID, dstOffset+i, 1)
			}
		}
		f.mu.Unlock()
		return nil

	case columns.LineNumber:
		cells := dst.Ints(col.ID)
		f.mu.Lock()
		for i, r := range rows {
			if r >= 0 && int(r) < len(f.indices) && cells != nil {
				cells[dstOffset+i] = int(r) + 1
			} else {
				dst.FillColumnDefault(col.ID, dstOffset+i, 1)
			}
		}
		f.mu.Unlock()
		return nil

	case columns.OriginalIndex:
		cells := dst.LineIndexes(col.ID)
		translated := f.translate(rows)
		if cells != nil {
			copy(cells[dstOffset:], translated)
		}
		return nil

	case columns.LogEntryIndex:
		cells := dst.EntryIndexes(col.ID)
		f.mu.Lock()
		for i, r := range rows {
			if r >= 0 && int(r) < len(f.indices) && cells != nil {
				cells[dstOffset+i] = f.logEntryIndices[f.indices[r]]
			} else {
				dst.FillColumnDefault(col.ID, dstOffset+i, 1)
			}
		}
		f.mu.Unlock()
		return nil

	case columns.DeltaTime:
		return f.getDeltaTimes(rows, dst, dstOffset, opts)

	default:
		return f.src.GetColumn(f.translate(rows), col, dst, dstOffset, opts)
	}
}

// getDeltaTimes serves DeltaTime for local rows: the difference between
// each mapped source row's timestamp and its local predecessor's. All
// timestamps are fetched from the source in one batched query over
// interleaved (predecessor, row) pairs.
func (f *FilterStage) getDeltaTimes(rows []domain.LogLineIndex, dst *columns.Buffer, dstOffset int, opts source.QueryOptions) error {
	interleaved := make([]domain.LogLineIndex, 2*len(rows))
	f.mu.Lock()
	for i, r := range rows {
		prev, cur := domain.InvalidLogLineIndex, domain.InvalidLogLineIndex
		if r > 0 && int(r) <= len(f.indices) {
			if int(r-1) < len(f.indices) {
				prev = f.indices[r-1]
			}
		}
		if r >= 0 && int(r) < len(f.indices) {
			cur = f.indices[r]
		}
		interleaved[2*i] = prev
		interleaved[2*i+1] = cur
	}
	f.mu.Unlock()

	scratch := columns.NewBuffer(len(interleaved), columns.ByID(columns.Timestamp))
	if err := f.src.GetColumn(interleaved, columns.ByID(columns.Timestamp), scratch, 0, opts); err != nil {
		return err
	}
	times := scratch.Times(columns.Timestamp)

	cells := dst.Durations(columns.DeltaTime)
	for i := range rows {
		prev, cur := times[2*i], times[2*i+1]
		if prev.IsZero() || cur.IsZero() || !interleaved[2*i].IsValid() || !interleaved[2*i+1].IsValid() {
			dst.FillColumnDefault(columns.DeltaTime, dstOffset+i, 1)
			continue
		}
		if cells != nil {
			cells[dstOffset+i] = cur.Sub(prev)
		}
	}
	return nil
}

// GetEntries implements source.LogSource.
func (f *FilterStage) GetEntries(rows []domain.LogLineIndex, dst *columns.Buffer, dstOffset int, opts source.QueryOptions) error {
	if err := columns.ValidateDestination(rows, dst, dstOffset); err != nil {
		return err
	}
	for _, col := range dst.Columns() {
		if err := f.GetColumn(rows, col, dst, dstOffset, opts); err != nil {
			return err
		}
	}
	return nil
}

// GetLogLineIndexOfOriginalLineIndex returns the first local row mapped to
// the given source row, or the invalid index. Linear in the view size.
func (f *FilterStage) GetLogLineIndexOfOriginalLineIndex(original domain.LogLineIndex) domain.LogLineIndex {
	f.mu.Lock()
	defer f.mu.Unlock()
	for r, src := range f.indices {
		if src == original {
			return domain.LogLineIndex(r)
		}
	}
	return domain.InvalidLogLineIndex
}

// AddListener implements source.LogSource.
func (f *FilterStage) AddListener(l source.Listener, maxWait time.Duration, maxBatch int) source.ListenerID {
	return f.fanout.Add(l, maxWait, maxBatch)
}

// RemoveListener implements source.LogSource.
func (f *FilterStage) RemoveListener(id source.ListenerID) {
	f.fanout.Remove(id)
}
