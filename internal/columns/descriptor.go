// Package columns defines the column schema of log sources and the
// column-oriented buffer stages use to exchange entry data.
package columns

import (
	"time"

	"github.com/jspencer/lens/internal/domain"
)

// ID is the tag of a well-known column.
type ID int

const (
	// Index is the row's position within the queried source.
	Index ID = iota
	// OriginalIndex is the row's position within the ultimate raw source.
	OriginalIndex
	// LogEntryIndex is the logical entry the row belongs to.
	LogEntryIndex
	// LineNumber is the 1-based line number within the queried source.
	LineNumber
	// OriginalLineNumber is the 1-based line number within the raw source.
	OriginalLineNumber
	// RawContent is the unmodified line text.
	RawContent
	// LogLevel is the severity detected on the line.
	LogLevel
	// Timestamp is the instant detected on the line; zero when absent.
	Timestamp
	// ElapsedTime is the duration since the source's first timestamp.
	ElapsedTime
	// DeltaTime is the duration since the previous row's timestamp.
	DeltaTime

	columnCount
)

// Kind is the element type of a column.
type Kind int

const (
	KindLineIndex Kind = iota
	KindEntryIndex
	KindInt
	KindString
	KindLevel
	KindTime
	KindDuration
)

// Column describes one typed column: identity, name and element kind.
// The default value substituted for out-of-range rows follows from the
// kind (see the default functions below).
type Column struct {
	ID   ID
	Name string
	Kind Kind
}

var registry = [columnCount]Column{
	Index:              {Index, "index", KindLineIndex},
	OriginalIndex:      {OriginalIndex, "original_index", KindLineIndex},
	LogEntryIndex:      {LogEntryIndex, "log_entry_index", KindEntryIndex},
	LineNumber:         {LineNumber, "line_number", KindInt},
	OriginalLineNumber: {OriginalLineNumber, "original_line_number", KindInt},
	RawContent:         {RawContent, "raw_content", KindString},
	LogLevel:           {LogLevel, "log_level", KindLevel},
	Timestamp:          {Timestamp, "timestamp", KindTime},
	ElapsedTime:        {ElapsedTime, "elapsed_time", KindDuration},
	DeltaTime:          {DeltaTime, "delta_time", KindDuration},
}

// ByID returns the column description for a tag.
func ByID(id ID) Column {
	return registry[id]
}

// Minimum returns the column set every log source must support.
func Minimum() []Column {
	cols := make([]Column, 0, columnCount)
	for _, c := range registry {
		cols = append(cols, c)
	}
	return cols
}

// Default values per kind. Line and entry indices default to the invalid
// sentinel; durations default to InvalidDuration so "unavailable" is
// distinguishable from a real zero delta.
func defaultLineIndex() domain.LogLineIndex   { return domain.InvalidLogLineIndex }
func defaultEntryIndex() domain.LogEntryIndex { return domain.InvalidLogEntryIndex }
func defaultInt() int                         { return 0 }
func defaultString() string                   { return "" }
func defaultLevel() domain.LogLevel           { return domain.LevelNone }
func defaultTime() time.Time                  { return time.Time{} }
func defaultDuration() time.Duration          { return domain.InvalidDuration }
