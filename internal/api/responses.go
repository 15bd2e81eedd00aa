package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/source"
)

// LineResponse is the JSON shape of one log line
type LineResponse struct {
	Index         int        `json:"index"`
	OriginalIndex int        `json:"original_index"`
	EntryIndex    int        `json:"entry_index"`
	LineNumber    int        `json:"line_number"`
	Content       string     `json:"content"`
	Level         string     `json:"level"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	DeltaMillis   *int64     `json:"delta_ms,omitempty"`
}

// LinesResponse wraps a window of lines
type LinesResponse struct {
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
	Lines  []LineResponse `json:"lines"`
}

// PropertiesResponse is the JSON shape of a property snapshot
type PropertiesResponse struct {
	Properties map[string]any `json:"properties"`
}

// ErrorResponse is the JSON shape of an API error
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fetchLines reads a window of rows from the view into the response shape
func fetchLines(src source.LogSource, offset, count int) ([]LineResponse, error) {
	if count <= 0 {
		return nil, nil
	}
	rows := domain.LineIndices(domain.LogLineIndex(offset), count)
	buf := columns.NewMinimumBuffer(count)
	if err := src.GetEntries(rows, buf, 0, source.DefaultQueryOptions); err != nil {
		return nil, err
	}

	indexes := buf.LineIndexes(columns.Index)
	originals := buf.LineIndexes(columns.OriginalIndex)
	entries := buf.EntryIndexes(columns.LogEntryIndex)
	numbers := buf.Ints(columns.LineNumber)
	contents := buf.Strings(columns.RawContent)
	levels := buf.Levels(columns.LogLevel)
	times := buf.Times(columns.Timestamp)
	deltas := buf.Durations(columns.DeltaTime)

	lines := make([]LineResponse, 0, count)
	for i := 0; i < count; i++ {
		if !indexes[i].IsValid() {
			// Past the end of the view.
			break
		}
		line := LineResponse{
			Index:         int(indexes[i]),
			OriginalIndex: int(originals[i]),
			EntryIndex:    int(entries[i]),
			LineNumber:    numbers[i],
			Content:       contents[i],
			Level:         levels[i].String(),
		}
		if !times[i].IsZero() {
			t := times[i]
			line.Timestamp = &t
		}
		if deltas[i] != domain.InvalidDuration {
			ms := deltas[i].Milliseconds()
			line.DeltaMillis = &ms
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// toPropertiesResponse snapshots the view's properties
func toPropertiesResponse(src source.LogSource) PropertiesResponse {
	snapshot := properties.NewBag()
	src.GetAllProperties(snapshot)

	values := make(map[string]any)
	for _, d := range snapshot.Descriptors() {
		v := snapshot.GetProperty(d)
		switch typed := v.(type) {
		case domain.EmptyReason:
			values[d.Name] = typed.String()
		default:
			values[d.Name] = typed
		}
	}
	return PropertiesResponse{Properties: values}
}
