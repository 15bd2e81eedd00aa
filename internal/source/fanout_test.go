package source

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jspencer/lens/internal/domain"
)

// recorder collects every modification it is notified of.
type recorder struct {
	mu   sync.Mutex
	mods []domain.Modification
}

func (r *recorder) OnLogSourceModified(_ LogSource, mod domain.Modification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mods = append(r.mods, mod)
}

func (r *recorder) recorded() []domain.Modification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Modification(nil), r.mods...)
}

func newTestFanout(count func() int) *Fanout {
	return NewFanout(nil, count)
}

func TestFanout_AddReplaysCurrentExtent(t *testing.T) {
	f := newTestFanout(func() int { return 5 })
	rec := &recorder{}

	f.Add(rec, time.Hour, 100)

	mods := rec.recorded()
	require.Len(t, mods, 2)
	assert.Equal(t, domain.Reset(), mods[0])
	assert.Equal(t, domain.Appended(0, 5), mods[1])
}

func TestFanout_AddToEmptySourceSendsResetOnly(t *testing.T) {
	f := newTestFanout(func() int { return 0 })
	rec := &recorder{}

	f.Add(rec, time.Hour, 100)

	assert.Equal(t, []domain.Modification{domain.Reset()}, rec.recorded())
}

func TestFanout_CoalescesByBatchSize(t *testing.T) {
	f := newTestFanout(func() int { return 0 })
	rec := &recorder{}
	f.Add(rec, time.Hour, 10)

	f.OnRead(5)
	assert.Len(t, rec.recorded(), 1) // registration reset only

	f.OnRead(12)
	mods := rec.recorded()
	require.Len(t, mods, 2)
	assert.Equal(t, domain.Appended(0, 12), mods[1])
}

func TestFanout_CoalescesByWaitTime(t *testing.T) {
	now := time.Now()
	f := newTestFanout(func() int { return 0 })
	f.now = func() time.Time { return now }
	rec := &recorder{}
	f.Add(rec, time.Minute, 1000)

	f.OnRead(3)
	assert.Len(t, rec.recorded(), 1)

	now = now.Add(2 * time.Minute)
	f.OnRead(4)
	mods := rec.recorded()
	require.Len(t, mods, 2)
	assert.Equal(t, domain.Appended(0, 4), mods[1])
}

func TestFanout_FlushDeliversPending(t *testing.T) {
	count := 0
	f := newTestFanout(func() int { return count })
	rec := &recorder{}
	f.Add(rec, time.Hour, 1000)

	count = 7
	f.OnRead(7)
	assert.Len(t, rec.recorded(), 1)

	f.Flush()
	mods := rec.recorded()
	require.Len(t, mods, 2)
	assert.Equal(t, domain.Appended(0, 7), mods[1])

	// A second flush with no new rows delivers nothing.
	f.Flush()
	assert.Len(t, rec.recorded(), 2)
}

func TestFanout_ResetOnNegativeCount(t *testing.T) {
	f := newTestFanout(func() int { return 0 })
	rec := &recorder{}
	f.Add(rec, 0, 1)

	f.OnRead(2)
	f.OnRead(-1)
	f.OnRead(2)

	mods := rec.recorded()
	require.Len(t, mods, 4)
	assert.Equal(t, domain.Appended(0, 2), mods[1])
	assert.Equal(t, domain.Reset(), mods[2])
	assert.Equal(t, domain.Appended(0, 2), mods[3])
}

func TestFanout_RemoveDeliversImmediately(t *testing.T) {
	f := newTestFanout(func() int { return 0 })
	rec := &recorder{}
	f.Add(rec, 0, 1)
	f.OnRead(10)

	f.OnRemove(4, 6)

	mods := rec.recorded()
	require.Len(t, mods, 3)
	assert.Equal(t, domain.Removed(4, 6), mods[2])
}

func TestFanout_RemoveClipsUnseenRows(t *testing.T) {
	count := 0
	f := newTestFanout(func() int { return count })
	rec := &recorder{}
	f.Add(rec, time.Hour, 1000)

	// The listener never saw any of the removed rows.
	count = 3
	f.OnRead(3)
	f.OnRemove(5, 10)
	assert.Len(t, rec.recorded(), 1)

	// Pending rows below the removal boundary are still delivered.
	f.Flush()
	mods := rec.recorded()
	require.Len(t, mods, 2)
	assert.Equal(t, domain.Appended(0, 3), mods[1])
}

func TestFanout_RemoveThenReadResumesFromBoundary(t *testing.T) {
	f := newTestFanout(func() int { return 0 })
	rec := &recorder{}
	f.Add(rec, 0, 1)
	f.OnRead(10)
	f.OnRemove(4, 6)

	f.OnRead(8)
	mods := rec.recorded()
	require.Len(t, mods, 4)
	assert.Equal(t, domain.Appended(4, 4), mods[3])
}

func TestFanout_RemoveListener(t *testing.T) {
	f := newTestFanout(func() int { return 0 })
	rec := &recorder{}
	id := f.Add(rec, 0, 1)
	assert.Equal(t, 1, f.Len())

	f.Remove(id)
	f.Remove(id) // idempotent
	assert.Equal(t, 0, f.Len())

	f.OnRead(5)
	assert.Len(t, rec.recorded(), 1)
}
