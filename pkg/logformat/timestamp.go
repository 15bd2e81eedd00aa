package logformat

import (
	"regexp"
	"strconv"
	"time"
)

// TimestampParser extracts timestamps from log lines using a table of
// regex/layout pairs tried in order.
type TimestampParser struct {
	patterns []timestampPattern
}

type timestampPattern struct {
	regex  *regexp.Regexp
	layout string
}

const (
	layoutUnix   = "unix"
	layoutUnixMs = "unix_ms"
)

// NewTimestampParser creates a parser covering common timestamp formats.
func NewTimestampParser() *TimestampParser {
	return &TimestampParser{
		patterns: []timestampPattern{
			// ISO 8601 / RFC 3339
			// 2024-01-15T10:30:45.123Z, 2024-01-15T10:30:45+00:00
			{
				regex:  regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2}))`),
				layout: time.RFC3339,
			},
			// Common log format, optional milliseconds
			// 2024-01-15 10:30:45.123
			{
				regex:  regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3})`),
				layout: "2006-01-02 15:04:05.000",
			},
			{
				regex:  regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`),
				layout: "2006-01-02 15:04:05",
			},
			// Syslog
			// Jan 15 10:30:45
			{
				regex:  regexp.MustCompile(`([A-Z][a-z]{2} {1,2}\d{1,2} \d{2}:\d{2}:\d{2})`),
				layout: "Jan 2 15:04:05",
			},
			// Apache/nginx access log
			// 15/Jan/2024:10:30:45 +0000
			{
				regex:  regexp.MustCompile(`(\d{2}/[A-Z][a-z]{2}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})`),
				layout: "02/Jan/2006:15:04:05 -0700",
			},
			// Unix epoch seconds / milliseconds at line start
			{
				regex:  regexp.MustCompile(`^(\d{13})(?:\D|$)`),
				layout: layoutUnixMs,
			},
			{
				regex:  regexp.MustCompile(`^(\d{10})(?:\D|$)`),
				layout: layoutUnix,
			},
			// Bracketed
			// [2024-01-15 10:30:45.123]
			{
				regex:  regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d{3})?)\]`),
				layout: "2006-01-02 15:04:05.000",
			},
			// Time only, assume today
			// 10:30:45.123
			{
				regex:  regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}(?:\.\d{3})?)`),
				layout: "15:04:05.000",
			},
		},
	}
}

// Parse extracts the first recognizable timestamp from a line. The zero
// time means no timestamp was found.
func (p *TimestampParser) Parse(line string) time.Time {
	for _, pattern := range p.patterns {
		matches := pattern.regex.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}
		value := matches[1]

		switch pattern.layout {
		case layoutUnix:
			if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
				return time.Unix(secs, 0)
			}
			continue
		case layoutUnixMs:
			if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
				return time.UnixMilli(millis)
			}
			continue
		}

		layouts := []string{pattern.layout}
		switch pattern.layout {
		case "2006-01-02 15:04:05.000":
			layouts = append(layouts, "2006-01-02 15:04:05")
		case "15:04:05.000":
			layouts = append(layouts, "15:04:05")
		}

		for _, layout := range layouts {
			t, err := time.Parse(layout, value)
			if err != nil {
				continue
			}
			switch layout {
			case "15:04:05", "15:04:05.000":
				now := time.Now()
				t = time.Date(now.Year(), now.Month(), now.Day(),
					t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
			case "Jan 2 15:04:05":
				t = time.Date(time.Now().Year(), t.Month(), t.Day(),
					t.Hour(), t.Minute(), t.Second(), 0, time.Local)
			}
			return t
		}
	}
	return time.Time{}
}

// FormatTime renders a timestamp for display; empty for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05.000")
}
