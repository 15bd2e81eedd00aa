package properties

import "sync"

// Bag is a concurrency-safe property store over a set of descriptors.
// Values are published in bulk via CopyFrom so concurrent readers observe
// either the previous snapshot or the new one, never a partial merge.
type Bag struct {
	mu     sync.RWMutex
	order  []Descriptor
	values map[string]any
}

// NewBag creates a bag declaring the given descriptors, each initialized
// to its default.
func NewBag(descriptors ...Descriptor) *Bag {
	b := &Bag{values: make(map[string]any, len(descriptors))}
	for _, d := range descriptors {
		b.declareLocked(d)
	}
	return b
}

func (b *Bag) declareLocked(d Descriptor) {
	if _, ok := b.values[d.Name]; ok {
		return
	}
	b.order = append(b.order, d)
	b.values[d.Name] = d.Default
}

// Declare adds a descriptor to the bag if not already present.
func (b *Bag) Declare(d Descriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.declareLocked(d)
}

// Descriptors returns the declared descriptors in declaration order.
func (b *Bag) Descriptors() []Descriptor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Descriptor(nil), b.order...)
}

// Has reports whether the bag declares the descriptor.
func (b *Bag) Has(d Descriptor) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.values[d.Name]
	return ok
}

// GetProperty returns the current value, or the descriptor default if the
// bag does not declare it.
func (b *Bag) GetProperty(d Descriptor) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.values[d.Name]; ok {
		return v
	}
	return d.Default
}

// SetProperty stores a value, declaring the descriptor if needed.
func (b *Bag) SetProperty(d Descriptor, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.values[d.Name]; !ok {
		b.order = append(b.order, d)
	}
	b.values[d.Name] = value
}

// CopyFrom replaces this bag's values with src's under a single lock
// acquisition on each side.
func (b *Bag) CopyFrom(src *Bag) {
	if src == nil || src == b {
		return
	}
	src.mu.RLock()
	descriptors := append([]Descriptor(nil), src.order...)
	values := make(map[string]any, len(src.values))
	for k, v := range src.values {
		values[k] = v
	}
	src.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range descriptors {
		if _, ok := b.values[d.Name]; !ok {
			b.order = append(b.order, d)
		}
	}
	for k, v := range values {
		b.values[k] = v
	}
}
