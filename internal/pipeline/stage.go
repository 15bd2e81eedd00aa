// Package pipeline implements the derived log sources of the viewing
// engine: the multi-line grouper and the filter stage. Each stage listens
// to its input source, processes modifications incrementally on a
// scheduler task, and is itself a LogSource for downstream listeners.
package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/properties"
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/source"
)

// modificationQueue is the unbounded multi-producer single-consumer FIFO
// between a source's listener callback and the stage's processing task.
type modificationQueue struct {
	mu   sync.Mutex
	mods []domain.Modification
}

// Push enqueues a modification.
func (q *modificationQueue) Push(m domain.Modification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.mods = append(q.mods, m)
}

// Len returns the number of queued modifications.
func (q *modificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.mods)
}

// DrainAll dequeues every pending modification in FIFO order.
func (q *modificationQueue) DrainAll() []domain.Modification {
	q.mu.Lock()
	defer q.mu.Unlock()
	mods := q.mods
	q.mods = nil
	return mods
}

// DrainLines dequeues pending modifications in FIFO order until the
// dequeued appends cover maxLines lines. An append straddling the budget
// is split, its remainder staying at the front of the queue. Reset and
// Removed cost no budget.
func (q *modificationQueue) DrainLines(maxLines int) []domain.Modification {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []domain.Modification
	budget := maxLines
	for len(q.mods) > 0 {
		m := q.mods[0]
		if m.IsAppended() && m.Section.Count > budget {
			if budget == 0 {
				break
			}
			head := domain.Appended(m.Section.Index, budget)
			tail := domain.Appended(m.Section.Index+domain.LogLineIndex(budget), m.Section.Count-budget)
			q.mods[0] = tail
			out = append(out, head)
			budget = 0
			break
		}
		q.mods = q.mods[1:]
		if m.IsAppended() {
			budget -= m.Section.Count
		}
		out = append(out, m)
		if budget == 0 {
			break
		}
	}
	return out
}

// stageBase carries the plumbing every derived source shares: the input
// source, the modification queue, the listener fanout for the stage's own
// listeners, the scheduler task and disposal.
type stageBase struct {
	name     string
	src      source.LogSource
	fanout   *source.Fanout
	pending  modificationQueue
	ownProps *properties.Bag
	maxWait  time.Duration

	registration source.ListenerID
	task         *scheduler.Handle
	disposed     atomic.Bool
}

// OnLogSourceModified implements source.Listener; it enqueues and returns.
func (b *stageBase) OnLogSourceModified(_ source.LogSource, mod domain.Modification) {
	if b.disposed.Load() {
		return
	}
	b.pending.Push(mod)
}

// start subscribes to the input source and, if a scheduler is given,
// enqueues the stage's repeating task. The source immediately replays its
// current extent into the pending queue.
func (b *stageBase) start(owner scheduler.Task, listener source.Listener, sched *scheduler.Scheduler, maxBatch int) {
	b.registration = b.src.AddListener(listener, b.maxWait, maxBatch)
	if sched != nil {
		b.task = sched.StartPeriodic(b.name, owner)
	}
}

// dispose tears the stage down: deregister from the source, cancel the
// task, then let the caller release its buffers. Safe to call twice.
func (b *stageBase) dispose() bool {
	if !b.disposed.CompareAndSwap(false, true) {
		return false
	}
	b.src.RemoveListener(b.registration)
	if b.task != nil {
		b.task.Stop()
	}
	return true
}

// Disposed reports whether the stage has been disposed.
func (b *stageBase) Disposed() bool {
	return b.disposed.Load()
}

// Properties returns the stage's own descriptors plus the ancestor union.
func (b *stageBase) Properties() []properties.Descriptor {
	own := b.ownProps.Descriptors()
	seen := make(map[string]struct{}, len(own))
	for _, d := range own {
		seen[d.Name] = struct{}{}
	}
	for _, d := range b.src.Properties() {
		if _, ok := seen[d.Name]; !ok {
			own = append(own, d)
		}
	}
	return own
}

// GetProperty serves the stage's own value when it has one and passes
// ancestor-exclusive descriptors through to the source.
func (b *stageBase) GetProperty(d properties.Descriptor) any {
	if b.disposed.Load() {
		return d.Default
	}
	if b.ownProps.Has(d) {
		return b.ownProps.GetProperty(d)
	}
	return b.src.GetProperty(d)
}

// SetProperty forwards writable descriptors to the source; writes to the
// stage's own (read-only) descriptors are ignored.
func (b *stageBase) SetProperty(d properties.Descriptor, value any) {
	if b.disposed.Load() || b.ownProps.Has(d) {
		return
	}
	b.src.SetProperty(d, value)
}

// GetAllProperties copies the source snapshot, then the stage's own values
// over it.
func (b *stageBase) GetAllProperties(dst *properties.Bag) {
	if dst == nil || b.disposed.Load() {
		return
	}
	b.src.GetAllProperties(dst)
	dst.CopyFrom(b.ownProps)
}

// progress computes the stage's PercentageProcessed: the source's progress
// scaled by how far the stage's watermark has advanced into the known
// source extent, clamped to [0, 1]. A zero extent counts as fully
// processed.
func (b *stageBase) progress(watermark domain.LogLineIndex, full domain.LogSourceSection) float64 {
	if full.Count == 0 {
		return 1
	}
	srcPct := properties.GetFloat(b.src, properties.PercentageProcessed)
	pct := srcPct * float64(watermark-full.Index) / float64(full.Count)
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}
