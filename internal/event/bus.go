package event

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler receives envelopes whose topic matched the subscription pattern.
type Handler func(Envelope)

// Subscription identifies one registered handler.
type Subscription struct {
	id      string
	pattern Topic
}

// ID returns the subscription's unique id.
func (s Subscription) ID() string { return s.id }

// Pattern returns the topic pattern the subscription was made with.
func (s Subscription) Pattern() Topic { return s.pattern }

// Stats is a snapshot of bus counters.
type Stats struct {
	EventsPublished uint64
	EventsDelivered uint64
	Subscriptions   int
}

// Bus is a synchronous topic bus. Publishing delivers to every matching
// handler on the caller's goroutine before returning, so interaction events
// arrive in the order the processor produced them.
type Bus struct {
	mu sync.RWMutex

	// exact maps concrete topics to their handlers. Wildcard patterns go
	// through the slower matching path.
	exact    map[Topic][]entry
	wildcard []entry

	published atomic.Uint64
	delivered atomic.Uint64
}

type entry struct {
	id      string
	pattern Topic
	fn      Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{exact: make(map[Topic][]entry)}
}

// Subscribe registers a handler for every topic matching pattern.
func (b *Bus) Subscribe(pattern Topic, fn Handler) (Subscription, error) {
	if fn == nil {
		return Subscription{}, ErrNilHandler
	}
	if !pattern.IsValid() {
		return Subscription{}, ErrInvalidTopic
	}

	e := entry{id: uuid.NewString(), pattern: pattern, fn: fn}

	b.mu.Lock()
	defer b.mu.Unlock()
	if pattern.IsWildcard() {
		b.wildcard = append(b.wildcard, e)
	} else {
		b.exact[pattern] = append(b.exact[pattern], e)
	}
	return Subscription{id: e.id, pattern: pattern}, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.pattern.IsWildcard() {
		for i, e := range b.wildcard {
			if e.id == sub.id {
				b.wildcard = append(b.wildcard[:i], b.wildcard[i+1:]...)
				return nil
			}
		}
		return ErrSubscriptionNotFound
	}

	entries := b.exact[sub.pattern]
	for i, e := range entries {
		if e.id == sub.id {
			entries = append(entries[:i], entries[i+1:]...)
			if len(entries) == 0 {
				delete(b.exact, sub.pattern)
			} else {
				b.exact[sub.pattern] = entries
			}
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Send publishes an envelope to all matching handlers synchronously.
func (b *Bus) Send(env Envelope) {
	b.published.Add(1)

	b.mu.RLock()
	handlers := make([]Handler, 0, 4)
	for _, e := range b.exact[env.Topic] {
		handlers = append(handlers, e.fn)
	}
	for _, e := range b.wildcard {
		if env.Topic.Matches(e.pattern) {
			handlers = append(handlers, e.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(env)
		b.delivered.Add(1)
	}
}

// Stats returns current bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.wildcard)
	for _, entries := range b.exact {
		n += len(entries)
	}
	b.mu.RUnlock()

	return Stats{
		EventsPublished: b.published.Load(),
		EventsDelivered: b.delivered.Load(),
		Subscriptions:   n,
	}
}
