package domain

import "fmt"

// LogSourceSection is the half-open range [Index, Index+Count) of line
// indices within a log source. Empty sections are permitted.
type LogSourceSection struct {
	Index LogLineIndex
	Count int
}

// NewSection creates the section [index, index+count).
func NewSection(index LogLineIndex, count int) LogSourceSection {
	return LogSourceSection{Index: index, Count: count}
}

// End returns the first index past the section.
func (s LogSourceSection) End() LogLineIndex {
	return s.Index + LogLineIndex(s.Count)
}

// Last returns the last index inside the section, or InvalidLogLineIndex
// for an empty section.
func (s LogSourceSection) Last() LogLineIndex {
	if s.Count <= 0 {
		return InvalidLogLineIndex
	}
	return s.Index + LogLineIndex(s.Count) - 1
}

// IsEmpty returns true if the section contains no lines.
func (s LogSourceSection) IsEmpty() bool {
	return s.Count <= 0
}

// Contains reports whether the index falls within the section.
func (s LogSourceSection) Contains(i LogLineIndex) bool {
	return i >= s.Index && i < s.End()
}

// String formats the section as [start, end).
func (s LogSourceSection) String() string {
	return fmt.Sprintf("[%d, %d)", s.Index, s.End())
}

// MinimumBoundingLine returns the smallest section containing both a and b.
// An empty section does not extend the bound.
func MinimumBoundingLine(a, b LogSourceSection) LogSourceSection {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	start := a.Index
	if b.Index < start {
		start = b.Index
	}
	end := a.End()
	if b.End() > end {
		end = b.End()
	}
	return LogSourceSection{Index: start, Count: int(end - start)}
}
