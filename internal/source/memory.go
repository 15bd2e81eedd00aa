package source

import (
	"sync"
	"time"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/constants"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/properties"
)

// Line is the row type accepted by the in-memory source. Each line is its
// own log entry; multi-line grouping is a pipeline concern.
type Line struct {
	Content   string
	Level     domain.LogLevel
	Timestamp time.Time
}

// InMemory is a LogSource backed by a slice of lines. It is the ingestion
// target of the file reader and the root source in tests.
type InMemory struct {
	mu     sync.Mutex
	lines  []Line
	props  *properties.Bag
	fanout *Fanout
}

// NewInMemory creates an empty in-memory source.
func NewInMemory() *InMemory {
	s := &InMemory{
		props: properties.NewBag(properties.MinimumDescriptors()...),
	}
	s.fanout = NewFanout(s, func() int {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.lines)
	})
	s.props.SetProperty(properties.PercentageProcessed, float64(1))
	return s
}

// Append adds lines to the end of the source and notifies listeners.
func (s *InMemory) Append(lines ...Line) {
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	s.lines = append(s.lines, lines...)
	count := len(s.lines)
	s.mu.Unlock()

	s.publishProperties()
	s.fanout.OnRead(count)
	s.fanout.Flush()
}

// RemoveFrom retracts every line at or past index.
func (s *InMemory) RemoveFrom(index domain.LogLineIndex) {
	s.mu.Lock()
	if index < 0 || int(index) >= len(s.lines) {
		s.mu.Unlock()
		return
	}
	removed := len(s.lines) - int(index)
	s.lines = s.lines[:index]
	s.mu.Unlock()

	s.publishProperties()
	s.fanout.OnRemove(index, removed)
}

// Clear removes all lines and resets listeners.
func (s *InMemory) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	s.publishProperties()
	s.fanout.OnRead(-1)
}

func (s *InMemory) publishProperties() {
	s.mu.Lock()
	count := len(s.lines)
	var first, last time.Time
	for _, l := range s.lines {
		if l.Timestamp.IsZero() {
			continue
		}
		if first.IsZero() {
			first = l.Timestamp
		}
		last = l.Timestamp
	}
	s.mu.Unlock()

	staged := properties.NewBag()
	staged.SetProperty(properties.LogEntryCount, count)
	staged.SetProperty(properties.PercentageProcessed, float64(1))
	staged.SetProperty(properties.StartTimestamp, first)
	staged.SetProperty(properties.EndTimestamp, last)
	s.props.CopyFrom(staged)
}

// Columns implements LogSource.
func (s *InMemory) Columns() []columns.Column {
	return columns.Minimum()
}

// Properties implements LogSource.
func (s *InMemory) Properties() []properties.Descriptor {
	return s.props.Descriptors()
}

// GetProperty implements LogSource.
func (s *InMemory) GetProperty(d properties.Descriptor) any {
	return s.props.GetProperty(d)
}

// SetProperty implements LogSource.
func (s *InMemory) SetProperty(d properties.Descriptor, value any) {
	if d.ReadOnly {
		return
	}
	s.props.SetProperty(d, value)
}

// PublishProperty stores a value regardless of the descriptor's read-only
// flag. It is for the component that owns the source (e.g. the file
// reader publishing Size and LastModified), not for consumers.
func (s *InMemory) PublishProperty(d properties.Descriptor, value any) {
	s.props.SetProperty(d, value)
}

// GetAllProperties implements LogSource.
func (s *InMemory) GetAllProperties(dst *properties.Bag) {
	dst.CopyFrom(s.props)
}

// GetColumn implements LogSource.
func (s *InMemory) GetColumn(rows []domain.LogLineIndex, col columns.Column, dst *columns.Buffer, dstOffset int, opts QueryOptions) error {
	if err := columns.ValidateDestination(rows, dst, dstOffset); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range rows {
		s.fillCellLocked(row, col.ID, dst, dstOffset+i)
	}
	return nil
}

// GetEntries implements LogSource.
func (s *InMemory) GetEntries(rows []domain.LogLineIndex, dst *columns.Buffer, dstOffset int, opts QueryOptions) error {
	if err := columns.ValidateDestination(rows, dst, dstOffset); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, col := range dst.Columns() {
		for i, row := range rows {
			s.fillCellLocked(row, col.ID, dst, dstOffset+i)
		}
	}
	return nil
}

func (s *InMemory) fillCellLocked(row domain.LogLineIndex, id columns.ID, dst *columns.Buffer, at int) {
	inRange := row >= 0 && int(row) < len(s.lines)
	if !inRange {
		dst.FillColumnDefault(id, at, 1)
		return
	}
	line := s.lines[row]

	switch id {
	case columns.Index, columns.OriginalIndex:
		if cells := dst.LineIndexes(id); cells != nil {
			cells[at] = row
		}
	case columns.LogEntryIndex:
		if cells := dst.EntryIndexes(id); cells != nil {
			cells[at] = domain.LogEntryIndex(row)
		}
	case columns.LineNumber, columns.OriginalLineNumber:
		if cells := dst.Ints(id); cells != nil {
			cells[at] = int(row) + 1
		}
	case columns.RawContent:
		if cells := dst.Strings(id); cells != nil {
			cells[at] = line.Content
		}
	case columns.LogLevel:
		if cells := dst.Levels(id); cells != nil {
			cells[at] = line.Level
		}
	case columns.Timestamp:
		if cells := dst.Times(id); cells != nil {
			cells[at] = line.Timestamp
		}
	case columns.ElapsedTime:
		if cells := dst.Durations(id); cells != nil {
			cells[at] = s.elapsedLocked(line)
		}
	case columns.DeltaTime:
		if cells := dst.Durations(id); cells != nil {
			cells[at] = s.deltaLocked(row, line)
		}
	default:
		dst.FillColumnDefault(id, at, 1)
	}
}

func (s *InMemory) elapsedLocked(line Line) time.Duration {
	if line.Timestamp.IsZero() {
		return domain.InvalidDuration
	}
	for _, l := range s.lines {
		if !l.Timestamp.IsZero() {
			return line.Timestamp.Sub(l.Timestamp)
		}
	}
	return domain.InvalidDuration
}

func (s *InMemory) deltaLocked(row domain.LogLineIndex, line Line) time.Duration {
	if row <= 0 || line.Timestamp.IsZero() {
		return domain.InvalidDuration
	}
	prev := s.lines[row-1]
	if prev.Timestamp.IsZero() {
		return domain.InvalidDuration
	}
	return line.Timestamp.Sub(prev.Timestamp)
}

// AddListener implements LogSource.
func (s *InMemory) AddListener(l Listener, maxWait time.Duration, maxBatch int) ListenerID {
	if maxBatch <= 0 {
		maxBatch = constants.DefaultListenerBatchSize
	}
	return s.fanout.Add(l, maxWait, maxBatch)
}

// RemoveListener implements LogSource.
func (s *InMemory) RemoveListener(id ListenerID) {
	s.fanout.Remove(id)
}
