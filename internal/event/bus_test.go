package event

import (
	"errors"
	"testing"
)

func TestBusExactDelivery(t *testing.T) {
	b := NewBus()

	var got []Envelope
	if _, err := b.Subscribe("input.controller.click", func(env Envelope) {
		got = append(got, env)
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	b.Send(NewEnvelope("input.controller.click", 42, "test"))
	b.Send(NewEnvelope("input.mouse.click", 1, "test"))

	if len(got) != 1 {
		t.Fatalf("delivered %d envelopes, want 1", len(got))
	}
	if got[0].Payload != 42 {
		t.Errorf("payload = %v, want 42", got[0].Payload)
	}
	if got[0].Metadata.ID == "" {
		t.Error("envelope missing generated id")
	}
}

func TestBusWildcardDelivery(t *testing.T) {
	b := NewBus()

	var topics []Topic
	if _, err := b.Subscribe("input.any.**", func(env Envelope) {
		topics = append(topics, env.Topic)
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	b.Send(NewEnvelope("input.any.click", nil, "test"))
	b.Send(NewEnvelope("input.any.focus.start", nil, "test"))
	b.Send(NewEnvelope("input.controller.click", nil, "test"))

	want := []Topic{"input.any.click", "input.any.focus.start"}
	if len(topics) != len(want) {
		t.Fatalf("delivered topics %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestBusDeliveryOrder(t *testing.T) {
	// Synchronous delivery preserves publish order across handlers.
	b := NewBus()

	var order []string
	b.Subscribe("input.controller.click", func(Envelope) { order = append(order, "exact") })
	b.Subscribe("input.*.click", func(Envelope) { order = append(order, "wild") })

	b.Send(NewEnvelope("input.controller.click", nil, "test"))

	if len(order) != 2 || order[0] != "exact" || order[1] != "wild" {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()

	count := 0
	sub, err := b.Subscribe("input.legacy.click", func(Envelope) { count++ })
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	b.Send(NewEnvelope("input.legacy.click", nil, "test"))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe() error: %v", err)
	}
	b.Send(NewEnvelope("input.legacy.click", nil, "test"))

	if count != 1 {
		t.Errorf("handler ran %d times, want 1", count)
	}
	if err := b.Unsubscribe(sub); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("second Unsubscribe() = %v, want ErrSubscriptionNotFound", err)
	}
}

func TestBusSubscribeErrors(t *testing.T) {
	b := NewBus()

	if _, err := b.Subscribe("input.click", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler: got %v, want ErrNilHandler", err)
	}
	if _, err := b.Subscribe("", func(Envelope) {}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if _, err := b.Subscribe("input..click", func(Envelope) {}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("malformed topic: got %v, want ErrInvalidTopic", err)
	}
}

func TestBusStats(t *testing.T) {
	b := NewBus()
	b.Subscribe("a.b", func(Envelope) {})
	b.Subscribe("a.*", func(Envelope) {})

	b.Send(NewEnvelope("a.b", nil, "test"))
	b.Send(NewEnvelope("a.c", nil, "test"))

	s := b.Stats()
	if s.EventsPublished != 2 {
		t.Errorf("published = %d, want 2", s.EventsPublished)
	}
	if s.EventsDelivered != 3 {
		t.Errorf("delivered = %d, want 3", s.EventsDelivered)
	}
	if s.Subscriptions != 2 {
		t.Errorf("subscriptions = %d, want 2", s.Subscriptions)
	}
}
