// Package integration exercises the full ingestion pipeline: a tailed
// file flowing through the multi-line grouper and the filter stage.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/pipeline"
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/source"
	"github.com/jspencer/lens/internal/textfile"
)

const sampleLog = `2024-01-15 10:30:45 INFO service starting
2024-01-15 10:30:46 ERROR request failed
  at handler.Process(handler.go:42)
  at server.Serve(server.go:17)
2024-01-15 10:30:47 INFO retrying
2024-01-15 10:30:48 ERROR request failed again
  at handler.Process(handler.go:42)
`

// settle drives every stage of the view until progress reaches 100%.
func settle(t *testing.T, raw *textfile.Source, view *pipeline.View) {
	t.Helper()
	ctx := context.Background()
	raw.RunOnce(ctx)
	for i := 0; i < 1000; i++ {
		busy := false
		if g := view.Grouper(); g != nil {
			busy = g.RunOnce(ctx) == 0 || busy
		}
		if f := view.Filter(); f != nil {
			busy = f.RunOnce(ctx) == 0 || busy
		}
		if !busy && properties.GetFloat(view.Source, properties.PercentageProcessed) >= 1 {
			return
		}
	}
	t.Fatal("pipeline did not settle")
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func window(t *testing.T, src source.LogSource, count int) *columns.Buffer {
	t.Helper()
	buf := columns.NewMinimumBuffer(count)
	err := src.GetEntries(domain.LineIndices(0, count), buf, 0, source.DefaultQueryOptions)
	require.NoError(t, err)
	return buf
}

func TestFileThroughGrouperAndFilter(t *testing.T) {
	path := writeLog(t, sampleLog)
	raw := textfile.Open(path, textfile.Options{}, nil)

	view := pipeline.Build(raw, pipeline.ViewOptions{
		Multiline:  true,
		LineFilter: pipeline.NewMinimumLevelFilter(domain.LevelError),
	}, nil)
	defer view.Dispose()
	settle(t, raw, view)

	// Only the two error entries survive: their start lines match, and
	// their continuation lines inherit the entry's level through the
	// grouper and pass too.
	require.Equal(t, 5, source.Count(view.Source))
	buf := window(t, view.Source, 5)

	assert.Equal(t, []domain.LogLineIndex{1, 2, 3, 5, 6},
		buf.LineIndexes(columns.OriginalIndex)[:5])
	assert.Equal(t, "2024-01-15 10:30:46 ERROR request failed",
		buf.Strings(columns.RawContent)[0])
	assert.Equal(t, "  at handler.Process(handler.go:42)",
		buf.Strings(columns.RawContent)[1])

	entries := buf.EntryIndexes(columns.LogEntryIndex)
	assert.Equal(t, entries[0], entries[1])
	assert.Equal(t, entries[1], entries[2])
	assert.NotEqual(t, entries[2], entries[3])
	assert.Equal(t, entries[3], entries[4])
}

func TestFileGrowthFlowsThrough(t *testing.T) {
	path := writeLog(t, "2024-01-15 10:00:00 INFO first\n")
	raw := textfile.Open(path, textfile.Options{}, nil)

	view := pipeline.Build(raw, pipeline.ViewOptions{Multiline: true}, nil)
	defer view.Dispose()
	settle(t, raw, view)
	require.Equal(t, 1, source.Count(view.Source))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("  continuation of first\n2024-01-15 10:00:01 WARN second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	settle(t, raw, view)

	require.Equal(t, 3, source.Count(view.Source))
	buf := window(t, view.Source, 3)
	entries := buf.EntryIndexes(columns.LogEntryIndex)
	assert.Equal(t, entries[0], entries[1])
	assert.NotEqual(t, entries[1], entries[2])
}

func TestRotationResetsDerivedViews(t *testing.T) {
	path := writeLog(t, "2024-01-15 10:00:00 ERROR before rotation\n2024-01-15 10:00:01 INFO also before\n")
	raw := textfile.Open(path, textfile.Options{}, nil)

	view := pipeline.Build(raw, pipeline.ViewOptions{
		LineFilter: pipeline.NewMinimumLevelFilter(domain.LevelError),
	}, nil)
	defer view.Dispose()
	settle(t, raw, view)
	require.Equal(t, 1, source.Count(view.Source))

	require.NoError(t, os.WriteFile(path, []byte("2024-01-15 11:00:00 INFO fresh\n"), 0o644))
	settle(t, raw, view)

	assert.Equal(t, 0, source.Count(view.Source))
	assert.Equal(t, float64(1), properties.GetFloat(view.Source, properties.PercentageProcessed))
}

func TestDeltaTimeAcrossPipeline(t *testing.T) {
	path := writeLog(t, "2024-01-15 10:00:00 ERROR one\n2024-01-15 10:00:00 INFO skip\n2024-01-15 10:00:05 ERROR two\n")
	raw := textfile.Open(path, textfile.Options{}, nil)

	view := pipeline.Build(raw, pipeline.ViewOptions{
		LineFilter: pipeline.NewMinimumLevelFilter(domain.LevelError),
	}, nil)
	defer view.Dispose()
	settle(t, raw, view)
	require.Equal(t, 2, source.Count(view.Source))

	buf := columns.NewBuffer(2, columns.ByID(columns.DeltaTime))
	require.NoError(t, view.Source.GetColumn(domain.LineIndices(0, 2),
		columns.ByID(columns.DeltaTime), buf, 0, source.DefaultQueryOptions))
	deltas := buf.Durations(columns.DeltaTime)
	assert.Equal(t, domain.InvalidDuration, deltas[0])
	assert.Equal(t, 5*time.Second, deltas[1])
}
