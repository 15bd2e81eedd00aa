// Package source defines the LogSource contract shared by raw sources and
// pipeline stages, the listener fanout, and an in-memory source.
//
// A LogSource is a random-access, listener-notifying, column-oriented,
// append-mostly sequence of log entries. Pipeline stages are both
// listeners of their input source and sources to their own listeners.
package source

import (
	"time"

	"github.com/jspencer/lens/internal/columns"
	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/properties"
)

// QueryOptions controls column retrieval. It lives in the columns package
// so the buffer's CopyFrom can name the source capability without a cycle.
type QueryOptions = columns.QueryOptions

// DefaultQueryOptions allows cached values.
var DefaultQueryOptions = QueryOptions{CacheAllowed: true}

// ListenerID identifies one listener registration. RemoveListener takes
// the ID rather than the listener so sources never compare listener
// identity.
type ListenerID uint64

// Listener receives modification notifications from a log source.
// Callbacks may be invoked on any scheduler goroutine and must not block;
// implementations enqueue and return.
type Listener interface {
	OnLogSourceModified(src LogSource, mod domain.Modification)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(src LogSource, mod domain.Modification)

// OnLogSourceModified calls f.
func (f ListenerFunc) OnLogSourceModified(src LogSource, mod domain.Modification) {
	f(src, mod)
}

// LogSource is the capability every stage both consumes and exposes.
type LogSource interface {
	// Columns returns the columns this source serves; a superset of
	// columns.Minimum(). Stable for the source's lifetime.
	Columns() []columns.Column

	// Properties returns the descriptors this source publishes, including
	// the union of its ancestors' descriptors.
	Properties() []properties.Descriptor

	// GetProperty returns the current value or the descriptor default.
	// Non-blocking.
	GetProperty(d properties.Descriptor) any

	// SetProperty forwards to the underlying writable source; a no-op on
	// read-only descriptors.
	SetProperty(d properties.Descriptor, value any)

	// GetAllProperties copies an atomic snapshot into dst.
	GetAllProperties(dst *properties.Bag)

	// GetColumn fills dst's col column at [dstOffset, dstOffset+len(rows))
	// with the values at the given row indices. Out-of-range rows yield
	// the column default. Contract violations (nil dst, negative offset,
	// overflow) return an error wrapping domain.ErrInvalidArgument.
	GetColumn(rows []domain.LogLineIndex, col columns.Column, dst *columns.Buffer, dstOffset int, opts QueryOptions) error

	// GetEntries fills every column declared by dst.
	GetEntries(rows []domain.LogLineIndex, dst *columns.Buffer, dstOffset int, opts QueryOptions) error

	// AddListener registers for modification callbacks. The listener is
	// immediately told the source's current extent (Reset, then Appended
	// if the source has rows). maxWait bounds notification latency,
	// maxBatch the granularity of coalesced reads.
	AddListener(l Listener, maxWait time.Duration, maxBatch int) ListenerID

	// RemoveListener deregisters; unknown IDs are ignored.
	RemoveListener(id ListenerID)
}

// Count returns the number of rows the source currently exposes, read from
// its LogEntryCount property.
func Count(src LogSource) int {
	return properties.GetInt(src, properties.LogEntryCount)
}
