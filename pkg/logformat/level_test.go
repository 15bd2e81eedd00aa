package logformat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jspencer/lens/internal/domain"
)

func TestLevelDetector_Defaults(t *testing.T) {
	d := NewLevelDetector(LevelPatterns{})

	tests := []struct {
		line string
		want domain.LogLevel
	}{
		{"2024-01-15 INFO starting up", domain.LevelInfo},
		{"DEBUG cache warm", domain.LevelDebug},
		{"WARN disk at 90%", domain.LevelWarning},
		{"ERROR connection refused", domain.LevelError},
		{"FATAL out of memory", domain.LevelFatal},
		{"TRACE enter handler", domain.LevelTrace},
		{"  at com.example.Main(Main.java:42)", domain.LevelNone},
		{"", domain.LevelNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Detect(tt.line), "line: %q", tt.line)
	}
}

func TestLevelDetector_SeverityWinsOverOrder(t *testing.T) {
	d := NewLevelDetector(LevelPatterns{})
	// Both markers present: the more severe one wins.
	assert.Equal(t, domain.LevelError, d.Detect("INFO block reported an ERROR"))
}

func TestLevelDetector_CustomPatterns(t *testing.T) {
	d := NewLevelDetector(LevelPatterns{
		Error: []string{"<<err>>"},
		Info:  []string{"<<inf>>"},
	})

	assert.Equal(t, domain.LevelError, d.Detect("x <<err>> y"))
	assert.Equal(t, domain.LevelInfo, d.Detect("x <<inf>> y"))
	// Default markers are replaced, not merged.
	assert.Equal(t, domain.LevelNone, d.Detect("ERROR plain"))
}
