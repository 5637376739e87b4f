package download

import (
	"sync"

	"github.com/sodematha/mathasvc/internal/domain"
)

// ProgressBroker fans progress values out to any number of observers per item.
type ProgressBroker struct {
	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]domain.ProgressFunc
}

func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{subs: make(map[string]map[uint64]domain.ProgressFunc)}
}

// Subscribe registers fn for itemID. The returned func removes it and is safe
// to call more than once.
func (b *ProgressBroker) Subscribe(itemID string, fn domain.ProgressFunc) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.subs[itemID] == nil {
		b.subs[itemID] = make(map[uint64]domain.ProgressFunc)
	}
	b.subs[itemID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[itemID], id)
		if len(b.subs[itemID]) == 0 {
			delete(b.subs, itemID)
		}
	}
}

// Publish calls every observer of itemID outside the lock.
func (b *ProgressBroker) Publish(itemID string, progress int) {
	b.mu.RLock()
	fns := make([]domain.ProgressFunc, 0, len(b.subs[itemID]))
	for _, fn := range b.subs[itemID] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(progress)
	}
}

func (b *ProgressBroker) subscribers(itemID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[itemID])
}
