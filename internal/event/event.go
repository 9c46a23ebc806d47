// Package event provides the synchronous topic bus that interaction events
// are published on. Topics are hierarchical dot-separated strings and
// subscriptions may use single-segment and multi-segment wildcards.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Metadata is the standard information attached to every envelope.
type Metadata struct {
	// ID uniquely identifies this event instance.
	ID string

	// Timestamp is when the event was published.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// Envelope carries one published event: a concrete topic plus a payload
// whose type is determined by the topic.
type Envelope struct {
	Topic    Topic
	Payload  any
	Metadata Metadata
}

// NewEnvelope builds an envelope with generated metadata.
func NewEnvelope(t Topic, payload any, source string) Envelope {
	return Envelope{
		Topic:   t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// Dispatcher is the sink interaction events are sent to. *Bus implements
// it; hosts can substitute their own fan-out.
type Dispatcher interface {
	Send(Envelope)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(Envelope)

// Send calls f.
func (f DispatcherFunc) Send(env Envelope) {
	f(env)
}
