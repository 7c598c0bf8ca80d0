package store

import "sync"

// Op identifies the kind of write behind a Change.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one write against a collection. Subscribers re-read the
// collection snapshot themselves; the change carries no document data.
type Change struct {
	Collection string `json:"collection"`
	Op         Op     `json:"op"`
	ID         string `json:"id"`

	// remote marks a change re-injected from another instance, so the
	// notifier does not forward it back out.
	remote bool
}

// Bus fans out store changes to subscribers. It is the explicit observer
// replacement for the original reactive-subscription model: views subscribe,
// planner logic never does.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]func(Change)
}

// NewBus creates an empty change bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]func(Change))}
}

// Subscribe registers fn for changes to the given collection. An empty
// collection name subscribes to every collection. The returned function
// removes the subscription.
func (b *Bus) Subscribe(collection string, fn func(Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]func(Change))
	}
	id := b.next
	b.next++
	b.subs[collection][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[collection], id)
	}
}

// Publish delivers a change to collection subscribers and wildcard
// subscribers. Delivery is synchronous; subscribers must not block.
// A nil bus drops the change.
func (b *Bus) Publish(change Change) {
	if b == nil {
		return
	}

	b.mu.RLock()
	fns := make([]func(Change), 0, len(b.subs[change.Collection])+len(b.subs[""]))
	for _, fn := range b.subs[change.Collection] {
		fns = append(fns, fn)
	}
	for _, fn := range b.subs[""] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}
