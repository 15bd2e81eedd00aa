package source

import (
	"sync"
	"time"

	"github.com/jspencer/lens/internal/domain"
)

// registration tracks one listener's coalescing state. lastCount is the
// extent already announced to the listener; rows past it are pending.
type registration struct {
	id           ListenerID
	listener     Listener
	maxWait      time.Duration
	maxBatch     int
	lastCount    int
	lastNotified time.Time
}

// Fanout owns a log source's listener registrations and batches
// notifications per listener. Appends are coalesced: a listener's pending
// range is delivered once it reaches the listener's batch size or its wait
// time has elapsed; resets, removals and flushes deliver immediately.
//
// Dispatch happens synchronously on the caller's goroutine; the Listener
// contract requires callbacks to enqueue and return, so holding the fanout
// lock across dispatch keeps per-listener callbacks serialized without a
// second lock.
type Fanout struct {
	mu     sync.Mutex
	owner  LogSource
	count  func() int
	nextID ListenerID
	regs   map[ListenerID]*registration
	now    func() time.Time
}

// NewFanout creates a fanout for owner. count reports the owner's current
// row count and is consulted when a listener registers.
func NewFanout(owner LogSource, count func() int) *Fanout {
	return &Fanout{
		owner: owner,
		count: count,
		regs:  make(map[ListenerID]*registration),
		now:   time.Now,
	}
}

// Add registers a listener and immediately tells it the owner's current
// extent: Reset, then Appended([0, count)) if the owner has rows.
func (f *Fanout) Add(l Listener, maxWait time.Duration, maxBatch int) ListenerID {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	reg := &registration{
		id:           f.nextID,
		listener:     l,
		maxWait:      maxWait,
		maxBatch:     maxBatch,
		lastNotified: f.now(),
	}
	f.regs[reg.id] = reg

	l.OnLogSourceModified(f.owner, domain.Reset())
	if n := f.count(); n > 0 {
		l.OnLogSourceModified(f.owner, domain.Appended(0, n))
		reg.lastCount = n
	}
	return reg.id
}

// Remove deregisters a listener. Idempotent.
func (f *Fanout) Remove(id ListenerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.regs, id)
}

// Len returns the number of registered listeners.
func (f *Fanout) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.regs)
}

// OnRead announces that the owner now exposes count rows, or resets every
// listener when count is negative. Appends are delivered per listener once
// the pending range reaches the listener's batch size or its wait time has
// elapsed; Flush delivers any remainder.
func (f *Fanout) OnRead(count int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if count < 0 {
		for _, reg := range f.regs {
			reg.lastCount = 0
			reg.lastNotified = f.now()
			reg.listener.OnLogSourceModified(f.owner, domain.Reset())
		}
		return
	}

	for _, reg := range f.regs {
		f.deliverReadLocked(reg, count, false)
	}
}

func (f *Fanout) deliverReadLocked(reg *registration, count int, force bool) {
	pending := count - reg.lastCount
	if pending <= 0 {
		return
	}
	if !force && pending < reg.maxBatch && f.now().Sub(reg.lastNotified) < reg.maxWait {
		return
	}
	sec := domain.NewSection(domain.LogLineIndex(reg.lastCount), pending)
	reg.lastCount = count
	reg.lastNotified = f.now()
	reg.listener.OnLogSourceModified(f.owner, domain.AppendedSection(sec))
}

// OnRemove announces that rows [firstInvalid, firstInvalid+count) were
// retracted. Delivery is immediate; listeners that never saw the removed
// rows are not notified, and their pending range is clipped instead.
func (f *Fanout) OnRemove(firstInvalid domain.LogLineIndex, count int) {
	if count <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, reg := range f.regs {
		if domain.LogLineIndex(reg.lastCount) <= firstInvalid {
			continue
		}
		removed := reg.lastCount - int(firstInvalid)
		reg.lastCount = int(firstInvalid)
		reg.lastNotified = f.now()
		reg.listener.OnLogSourceModified(f.owner, domain.Removed(firstInvalid, removed))
	}
}

// Flush delivers every pending coalesced read at the owner's current
// count, regardless of batch size and wait time. No separate flush
// notification is sent to listeners.
func (f *Fanout) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.count()
	for _, reg := range f.regs {
		f.deliverReadLocked(reg, count, true)
	}
}
