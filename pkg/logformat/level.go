// Package logformat detects log levels and timestamps in raw log lines.
// The file source uses it to populate the LogLevel and Timestamp columns
// that drive multi-line grouping.
package logformat

import (
	"strings"

	"github.com/jspencer/lens/internal/domain"
)

// LevelPatterns configures the substrings recognized for each level.
type LevelPatterns struct {
	Trace   []string
	Debug   []string
	Info    []string
	Warning []string
	Error   []string
	Fatal   []string
}

// DefaultLevelPatterns covers the markers most loggers emit.
func DefaultLevelPatterns() LevelPatterns {
	return LevelPatterns{
		Trace:   []string{"TRACE", "[trace]"},
		Debug:   []string{"DEBUG", "[debug]"},
		Info:    []string{"INFO", "[info]"},
		Warning: []string{"WARN", "WARNING", "[warn]"},
		Error:   []string{"ERROR", "ERR!", "[error]"},
		Fatal:   []string{"FATAL", "PANIC", "[fatal]"},
	}
}

// LevelDetector finds the severity marker on a line.
type LevelDetector struct {
	patterns map[domain.LogLevel][]string
}

// NewLevelDetector creates a detector from a pattern table. Empty tables
// fall back to the defaults.
func NewLevelDetector(p LevelPatterns) *LevelDetector {
	if len(p.Trace)+len(p.Debug)+len(p.Info)+len(p.Warning)+len(p.Error)+len(p.Fatal) == 0 {
		p = DefaultLevelPatterns()
	}
	return &LevelDetector{
		patterns: map[domain.LogLevel][]string{
			domain.LevelTrace:   p.Trace,
			domain.LevelDebug:   p.Debug,
			domain.LevelInfo:    p.Info,
			domain.LevelWarning: p.Warning,
			domain.LevelError:   p.Error,
			domain.LevelFatal:   p.Fatal,
		},
	}
}

// detectionOrder checks the most severe levels first so a line like
// "ERROR: info mismatch" classifies as an error.
var detectionOrder = []domain.LogLevel{
	domain.LevelFatal,
	domain.LevelError,
	domain.LevelWarning,
	domain.LevelInfo,
	domain.LevelDebug,
	domain.LevelTrace,
}

// Detect returns the level marked on the line, or LevelNone.
func (d *LevelDetector) Detect(line string) domain.LogLevel {
	for _, level := range detectionOrder {
		for _, pattern := range d.patterns[level] {
			if strings.Contains(line, pattern) {
				return level
			}
		}
	}
	return domain.LevelNone
}
