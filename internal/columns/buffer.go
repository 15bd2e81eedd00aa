package columns

import (
	"fmt"
	"time"

	"github.com/jspencer/lens/internal/domain"
)

// Buffer is a fixed-schema row×column container. Storage is
// column-oriented: one typed slice per declared column, each of length
// Rows(). Views created with View share storage with their parent.
type Buffer struct {
	rows int
	cols []Column

	lineIndexes  map[ID][]domain.LogLineIndex
	entryIndexes map[ID][]domain.LogEntryIndex
	ints         map[ID][]int
	strings      map[ID][]string
	levels       map[ID][]domain.LogLevel
	times        map[ID][]time.Time
	durations    map[ID][]time.Duration
}

// NewBuffer creates a buffer with the given row count and columns, every
// cell initialized to its column default.
func NewBuffer(rows int, cols ...Column) *Buffer {
	b := &Buffer{
		rows:         rows,
		cols:         append([]Column(nil), cols...),
		lineIndexes:  make(map[ID][]domain.LogLineIndex),
		entryIndexes: make(map[ID][]domain.LogEntryIndex),
		ints:         make(map[ID][]int),
		strings:      make(map[ID][]string),
		levels:       make(map[ID][]domain.LogLevel),
		times:        make(map[ID][]time.Time),
		durations:    make(map[ID][]time.Duration),
	}
	for _, c := range cols {
		switch c.Kind {
		case KindLineIndex:
			b.lineIndexes[c.ID] = make([]domain.LogLineIndex, rows)
		case KindEntryIndex:
			b.entryIndexes[c.ID] = make([]domain.LogEntryIndex, rows)
		case KindInt:
			b.ints[c.ID] = make([]int, rows)
		case KindString:
			b.strings[c.ID] = make([]string, rows)
		case KindLevel:
			b.levels[c.ID] = make([]domain.LogLevel, rows)
		case KindTime:
			b.times[c.ID] = make([]time.Time, rows)
		case KindDuration:
			b.durations[c.ID] = make([]time.Duration, rows)
		}
	}
	b.FillDefault(0, rows)
	return b
}

// NewMinimumBuffer creates a buffer declaring the minimum column set.
func NewMinimumBuffer(rows int) *Buffer {
	return NewBuffer(rows, Minimum()...)
}

// Rows returns the row count.
func (b *Buffer) Rows() int {
	return b.rows
}

// Columns returns the declared columns.
func (b *Buffer) Columns() []Column {
	return b.cols
}

// Has reports whether the buffer declares the column.
func (b *Buffer) Has(id ID) bool {
	for _, c := range b.cols {
		if c.ID == id {
			return true
		}
	}
	return false
}

// LineIndexes returns the backing slice of a line-index column, or nil if
// the buffer does not declare it.
func (b *Buffer) LineIndexes(id ID) []domain.LogLineIndex {
	return b.lineIndexes[id]
}

// EntryIndexes returns the backing slice of an entry-index column.
func (b *Buffer) EntryIndexes(id ID) []domain.LogEntryIndex {
	return b.entryIndexes[id]
}

// Ints returns the backing slice of an int column.
func (b *Buffer) Ints(id ID) []int {
	return b.ints[id]
}

// Strings returns the backing slice of a string column.
func (b *Buffer) Strings(id ID) []string {
	return b.strings[id]
}

// Levels returns the backing slice of a level column.
func (b *Buffer) Levels(id ID) []domain.LogLevel {
	return b.levels[id]
}

// Times returns the backing slice of a time column.
func (b *Buffer) Times(id ID) []time.Time {
	return b.times[id]
}

// Durations returns the backing slice of a duration column.
func (b *Buffer) Durations(id ID) []time.Duration {
	return b.durations[id]
}

// FillDefault writes each declared column's default into rows
// [start, start+count).
func (b *Buffer) FillDefault(start, count int) {
	end := start + count
	if start < 0 || end > b.rows {
		return
	}
	for _, c := range b.cols {
		b.FillColumnDefault(c.ID, start, count)
	}
}

// FillColumnDefault writes one column's default into rows
// [start, start+count). Unknown columns are ignored.
func (b *Buffer) FillColumnDefault(id ID, start, count int) {
	end := start + count
	if start < 0 || end > b.rows {
		return
	}
	if s, ok := b.lineIndexes[id]; ok {
		for i := start; i < end; i++ {
			s[i] = defaultLineIndex()
		}
	}
	if s, ok := b.entryIndexes[id]; ok {
		for i := start; i < end; i++ {
			s[i] = defaultEntryIndex()
		}
	}
	if s, ok := b.ints[id]; ok {
		for i := start; i < end; i++ {
			s[i] = defaultInt()
		}
	}
	if s, ok := b.strings[id]; ok {
		for i := start; i < end; i++ {
			s[i] = defaultString()
		}
	}
	if s, ok := b.levels[id]; ok {
		for i := start; i < end; i++ {
			s[i] = defaultLevel()
		}
	}
	if s, ok := b.times[id]; ok {
		for i := start; i < end; i++ {
			s[i] = defaultTime()
		}
	}
	if s, ok := b.durations[id]; ok {
		for i := start; i < end; i++ {
			s[i] = defaultDuration()
		}
	}
}

// View returns a restriction of the buffer exposing only the listed
// columns. The view shares storage with its parent: writes through either
// are visible to both. Columns not declared by the parent are dropped.
func (b *Buffer) View(ids ...ID) *Buffer {
	v := &Buffer{
		rows:         b.rows,
		lineIndexes:  make(map[ID][]domain.LogLineIndex),
		entryIndexes: make(map[ID][]domain.LogEntryIndex),
		ints:         make(map[ID][]int),
		strings:      make(map[ID][]string),
		levels:       make(map[ID][]domain.LogLevel),
		times:        make(map[ID][]time.Time),
		durations:    make(map[ID][]time.Duration),
	}
	for _, id := range ids {
		for _, c := range b.cols {
			if c.ID != id {
				continue
			}
			v.cols = append(v.cols, c)
			switch c.Kind {
			case KindLineIndex:
				v.lineIndexes[id] = b.lineIndexes[id]
			case KindEntryIndex:
				v.entryIndexes[id] = b.entryIndexes[id]
			case KindInt:
				v.ints[id] = b.ints[id]
			case KindString:
				v.strings[id] = b.strings[id]
			case KindLevel:
				v.levels[id] = b.levels[id]
			case KindTime:
				v.times[id] = b.times[id]
			case KindDuration:
				v.durations[id] = b.durations[id]
			}
		}
	}
	return v
}

// QueryOptions controls column retrieval from a source.
type QueryOptions struct {
	// CacheAllowed permits the source to serve cached column values.
	CacheAllowed bool
}

// Reader is the column-serving capability CopyFrom pulls from. Every log
// source satisfies it.
type Reader interface {
	GetColumn(rows []domain.LogLineIndex, col Column, dst *Buffer, dstOffset int, opts QueryOptions) error
}

// CopyFrom fetches len(sourceIndices) values of col from src into rows
// [destStart, destStart+len(sourceIndices)) of the buffer.
func (b *Buffer) CopyFrom(col Column, destStart int, src Reader, sourceIndices []domain.LogLineIndex, opts QueryOptions) error {
	return src.GetColumn(sourceIndices, col, b, destStart, opts)
}

// ValidateDestination checks the GetColumn/GetEntries destination
// contract: a non-nil buffer, a non-negative offset and enough room for
// len(rows) values. Violations are programmer errors.
func ValidateDestination(rows []domain.LogLineIndex, dst *Buffer, dstOffset int) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination buffer", domain.ErrInvalidArgument)
	}
	if dstOffset < 0 {
		return fmt.Errorf("%w: negative destination offset %d", domain.ErrInvalidArgument, dstOffset)
	}
	if dstOffset+len(rows) > dst.Rows() {
		return fmt.Errorf("%w: destination overflow: offset %d + %d rows > %d",
			domain.ErrInvalidArgument, dstOffset, len(rows), dst.Rows())
	}
	return nil
}
