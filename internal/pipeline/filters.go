package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jspencer/lens/internal/constants"
	"github.com/jspencer/lens/internal/domain"
)

// Line is the per-row view filter predicates operate on.
type Line struct {
	SourceIndex domain.LogLineIndex
	EntryIndex  domain.LogEntryIndex
	Content     string
	Level       domain.LogLevel
	Timestamp   time.Time
}

// LineFilter decides whether a single physical line survives filtering.
type LineFilter interface {
	PassesLine(line Line) bool
}

// EntryFilter decides whether a whole logical entry (its surviving lines)
// is admitted to the output.
type EntryFilter interface {
	PassesEntry(lines []Line) bool
}

// LineFilterFunc adapts a function to LineFilter.
type LineFilterFunc func(line Line) bool

// PassesLine calls f.
func (f LineFilterFunc) PassesLine(line Line) bool { return f(line) }

// EntryFilterFunc adapts a function to EntryFilter.
type EntryFilterFunc func(lines []Line) bool

// PassesEntry calls f.
func (f EntryFilterFunc) PassesEntry(lines []Line) bool { return f(lines) }

// acceptAll passes every line and every entry.
type acceptAll struct{}

func (acceptAll) PassesLine(Line) bool    { return true }
func (acceptAll) PassesEntry([]Line) bool { return true }

// AcceptAllLines returns a line filter that passes everything.
func AcceptAllLines() LineFilter { return acceptAll{} }

// AcceptAllEntries returns an entry filter that passes everything.
func AcceptAllEntries() EntryFilter { return acceptAll{} }

// LevelFilter passes lines whose level is in the allowed set.
type LevelFilter struct {
	allowed map[domain.LogLevel]bool
}

// NewLevelFilter creates a filter passing only the given levels.
func NewLevelFilter(levels ...domain.LogLevel) *LevelFilter {
	allowed := make(map[domain.LogLevel]bool, len(levels))
	for _, l := range levels {
		allowed[l] = true
	}
	return &LevelFilter{allowed: allowed}
}

// NewMinimumLevelFilter creates a filter passing the given level and every
// higher severity.
func NewMinimumLevelFilter(min domain.LogLevel) *LevelFilter {
	allowed := make(map[domain.LogLevel]bool)
	for _, l := range []domain.LogLevel{
		domain.LevelTrace, domain.LevelDebug, domain.LevelInfo,
		domain.LevelWarning, domain.LevelError, domain.LevelFatal,
	} {
		if l >= min {
			allowed[l] = true
		}
	}
	return &LevelFilter{allowed: allowed}
}

// PassesLine implements LineFilter.
func (f *LevelFilter) PassesLine(line Line) bool {
	return f.allowed[line.Level]
}

// SubstringFilter passes lines whose content contains the pattern.
type SubstringFilter struct {
	pattern string
}

// NewSubstringFilter creates a substring line filter.
func NewSubstringFilter(pattern string) *SubstringFilter {
	return &SubstringFilter{pattern: pattern}
}

// PassesLine implements LineFilter.
func (f *SubstringFilter) PassesLine(line Line) bool {
	return strings.Contains(line.Content, f.pattern)
}

// RegexFilter passes lines whose content matches a compiled expression.
type RegexFilter struct {
	regex *regexp.Regexp
}

// NewRegexFilter compiles pattern into a line filter. The pattern length
// is capped to prevent pathological expressions.
func NewRegexFilter(pattern string) (*RegexFilter, error) {
	if len(pattern) > constants.MaxPatternLength {
		return nil, fmt.Errorf("%w: pattern exceeds maximum length of %d characters",
			domain.ErrInvalidPattern, constants.MaxPatternLength)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPattern, err)
	}
	return &RegexFilter{regex: re}, nil
}

// PassesLine implements LineFilter.
func (f *RegexFilter) PassesLine(line Line) bool {
	return f.regex.MatchString(line.Content)
}

// AndFilter passes lines accepted by every inner filter.
type AndFilter struct {
	inner []LineFilter
}

// NewAndFilter combines line filters conjunctively. With no inner filters
// it passes everything.
func NewAndFilter(inner ...LineFilter) *AndFilter {
	return &AndFilter{inner: inner}
}

// PassesLine implements LineFilter.
func (f *AndFilter) PassesLine(line Line) bool {
	for _, inner := range f.inner {
		if !inner.PassesLine(line) {
			return false
		}
	}
	return true
}

// AnyLineEntryFilter admits an entry if any of its lines passes the inner
// line filter.
type AnyLineEntryFilter struct {
	inner LineFilter
}

// NewAnyLineEntryFilter wraps a line filter into an entry filter.
func NewAnyLineEntryFilter(inner LineFilter) *AnyLineEntryFilter {
	return &AnyLineEntryFilter{inner: inner}
}

// PassesEntry implements EntryFilter.
func (f *AnyLineEntryFilter) PassesEntry(lines []Line) bool {
	for _, line := range lines {
		if f.inner.PassesLine(line) {
			return true
		}
	}
	return false
}
