package domain

import "fmt"

// ModificationKind discriminates the Modification union.
type ModificationKind int

const (
	// ModificationReset invalidates everything a listener knows about the
	// source; processing starts over from line 0.
	ModificationReset ModificationKind = iota
	// ModificationAppended announces new lines in Section.
	ModificationAppended
	// ModificationRemoved retracts the previously appended lines in
	// Section and everything after them.
	ModificationRemoved
)

// Modification describes one change to a log source.
type Modification struct {
	Kind    ModificationKind
	Section LogSourceSection
}

// Reset returns the reset modification.
func Reset() Modification {
	return Modification{Kind: ModificationReset}
}

// Appended returns a modification announcing count new lines at index.
func Appended(index LogLineIndex, count int) Modification {
	return Modification{Kind: ModificationAppended, Section: NewSection(index, count)}
}

// AppendedSection returns a modification announcing the given section.
func AppendedSection(sec LogSourceSection) Modification {
	return Modification{Kind: ModificationAppended, Section: sec}
}

// Removed returns a modification retracting the given section.
func Removed(index LogLineIndex, count int) Modification {
	return Modification{Kind: ModificationRemoved, Section: NewSection(index, count)}
}

// IsReset reports whether the modification invalidates all prior state.
func (m Modification) IsReset() bool {
	return m.Kind == ModificationReset
}

// IsAppended reports whether the modification announces new lines.
func (m Modification) IsAppended() bool {
	return m.Kind == ModificationAppended
}

// IsRemoved reports whether the modification retracts lines.
func (m Modification) IsRemoved() bool {
	return m.Kind == ModificationRemoved
}

// Split breaks an Appended modification into consecutive appends of at most
// maxBatch lines covering the same range. Reset and Removed are returned
// unchanged as a single element.
func (m Modification) Split(maxBatch int) []Modification {
	if m.Kind != ModificationAppended || maxBatch <= 0 || m.Section.Count <= maxBatch {
		return []Modification{m}
	}
	var parts []Modification
	for offset := 0; offset < m.Section.Count; offset += maxBatch {
		count := m.Section.Count - offset
		if count > maxBatch {
			count = maxBatch
		}
		parts = append(parts, Appended(m.Section.Index+LogLineIndex(offset), count))
	}
	return parts
}

// String formats the modification for logging.
func (m Modification) String() string {
	switch m.Kind {
	case ModificationAppended:
		return fmt.Sprintf("Appended(%s)", m.Section)
	case ModificationRemoved:
		return fmt.Sprintf("Removed(%s)", m.Section)
	default:
		return "Reset"
	}
}
