package bus

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Filter selects which events a subscription receives.
type Filter func(Event) bool

// Prefix matches events whose kind starts with namespace.
func Prefix(namespace string) Filter {
	return func(evt Event) bool { return strings.HasPrefix(evt.Kind, namespace) }
}

// Bus is an in-process publish/subscribe event bus. Delivery is in publish
// order per subscriber; order across subscribers is unspecified.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	dropped atomic.Uint64
}

// Subscription is a handle to a registered subscriber.
type Subscription struct {
	ID     string
	C      <-chan Event
	ch     chan Event
	filter Filter
	bus    *Bus
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		subs: make(map[string]*Subscription),
	}
}

// Publish delivers evt to every subscriber whose filter accepts it. A
// subscriber with a full buffer misses the event.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber. A nil filter receives everything.
func (b *Bus) Subscribe(filter Filter, bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{
		ID:     uuid.NewString(),
		C:      ch,
		ch:     ch,
		filter: filter,
		bus:    b,
	}
	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Calling it more
// than once is harmless.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.ch)
}

// Close is shorthand for sub.bus.Unsubscribe(sub).
func (s *Subscription) Close() {
	s.bus.Unsubscribe(s)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
