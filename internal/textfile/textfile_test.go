package textfile

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
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/source"
)

func scan(t *testing.T, s *Source) {
	t.Helper()
	s.RunOnce(context.Background())
}

func contents(t *testing.T, s *Source, count int) []string {
	t.Helper()
	buf := columns.NewBuffer(count, columns.ByID(columns.RawContent))
	err := s.GetColumn(domain.LineIndices(0, count), columns.ByID(columns.RawContent), buf, 0, source.DefaultQueryOptions)
	require.NoError(t, err)
	return append([]string(nil), buf.Strings(columns.RawContent)...)
}

func TestSource_ReadsCompleteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("INFO one\nWARN two\n"), 0o644))

	s := Open(path, Options{}, nil)
	scan(t, s)

	assert.Equal(t, 2, source.Count(s))
	assert.Equal(t, []string{"INFO one", "WARN two"}, contents(t, s, 2))

	// Detected levels populate the LogLevel column.
	buf := columns.NewBuffer(2, columns.ByID(columns.LogLevel))
	require.NoError(t, s.GetColumn(domain.LineIndices(0, 2), columns.ByID(columns.LogLevel), buf, 0, source.DefaultQueryOptions))
	assert.Equal(t, domain.LevelInfo, buf.Levels(columns.LogLevel)[0])
	assert.Equal(t, domain.LevelWarning, buf.Levels(columns.LogLevel)[1])
}

func TestSource_DetectsTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("2024-01-15 10:30:45 INFO hello\n"), 0o644))

	s := Open(path, Options{}, nil)
	scan(t, s)

	buf := columns.NewBuffer(1, columns.ByID(columns.Timestamp))
	require.NoError(t, s.GetColumn(domain.LineIndices(0, 1), columns.ByID(columns.Timestamp), buf, 0, source.DefaultQueryOptions))
	assert.False(t, buf.Times(columns.Timestamp)[0].IsZero())
}

func TestSource_HoldsBackPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("complete\npart"), 0o644))

	s := Open(path, Options{}, nil)
	scan(t, s)
	assert.Equal(t, 1, source.Count(s))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("ial\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	scan(t, s)
	assert.Equal(t, 2, source.Count(s))
	assert.Equal(t, []string{"complete", "partial"}, contents(t, s, 2))
}

func TestSource_AppendsIncrementally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("one\n"), 0o644))

	s := Open(path, Options{}, nil)
	rec := &modRecorder{}
	s.AddListener(rec, 0, 1)
	scan(t, s)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("two\nthree\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	scan(t, s)

	assert.Equal(t, 3, source.Count(s))
	assert.Contains(t, rec.recorded(), domain.Appended(1, 2))
}

func TestSource_TruncationResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old line one\nold line two\n"), 0o644))

	s := Open(path, Options{}, nil)
	rec := &modRecorder{}
	s.AddListener(rec, 0, 1)
	scan(t, s)
	require.Equal(t, 2, source.Count(s))

	// Replace the file with shorter content, as log rotation does.
	require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0o644))
	scan(t, s)

	assert.Equal(t, 1, source.Count(s))
	assert.Equal(t, []string{"fresh"}, contents(t, s, 1))
	assert.Contains(t, rec.recorded(), domain.Reset())
}

func TestSource_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")

	s := Open(path, Options{}, nil)
	scan(t, s)

	assert.Equal(t, 0, source.Count(s))
	reason, _ := s.GetProperty(properties.EmptyReason).(domain.EmptyReason)
	assert.Equal(t, domain.EmptyReasonSourceDoesNotExist, reason)

	// The source recovers once the file appears.
	require.NoError(t, os.WriteFile(path, []byte("here now\n"), 0o644))
	scan(t, s)
	assert.Equal(t, 1, source.Count(s))
	reason, _ = s.GetProperty(properties.EmptyReason).(domain.EmptyReason)
	assert.Equal(t, domain.EmptyReasonNone, reason)
}

func TestSource_PublishesFileProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("abc\n"), 0o644))

	s := Open(path, Options{}, nil)
	scan(t, s)

	assert.Equal(t, path, properties.GetString(s, properties.Name))
	assert.Equal(t, "text", properties.GetString(s, properties.Format))
	size, _ := s.GetProperty(properties.Size).(int64)
	assert.Equal(t, int64(4), size)
	assert.False(t, properties.GetTime(s, properties.LastModified).IsZero())
}

func TestSource_CRLFStripped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("windows line\r\n"), 0o644))

	s := Open(path, Options{}, nil)
	scan(t, s)

	assert.Equal(t, []string{"windows line"}, contents(t, s, 1))
}

// modRecorder collects modifications for assertions.
type modRecorder struct {
	mods []domain.Modification
}

func (r *modRecorder) OnLogSourceModified(_ source.LogSource, mod domain.Modification) {
	r.mods = append(r.mods, mod)
}

func (r *modRecorder) recorded() []domain.Modification {
	return r.mods
}

func TestSource_PollIntervalReturned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	s := Open(path, Options{PollInterval: 42 * time.Millisecond}, nil)
	assert.Equal(t, 42*time.Millisecond, s.RunOnce(context.Background()))
}
