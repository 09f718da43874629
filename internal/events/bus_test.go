package events

import (
	"context"
	"testing"
	"time"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, cancel := bus.Subscribe(context.Background())
	defer cancel()

	bus.Publish(Event{Type: TypeJobUpdated, Data: "payload"})

	select {
	case evt := <-ch:
		if evt.Type != TypeJobUpdated || evt.Data != "payload" {
			t.Fatalf("unexpected event %#v", evt)
		}
		if evt.ID == "" || evt.Timestamp.IsZero() {
			t.Fatalf("id and timestamp should be filled, got %#v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, cancel := bus.Subscribe(context.Background())
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic or block.
	bus.Publish(Event{Type: TypeJobUpdated})
}

func TestBusContextEndsSubscription(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ctx, stop := context.WithCancel(context.Background())
	ch, _ := bus.Subscribe(ctx)
	stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription did not end with its context")
	}
}

func TestBusDropsWhenSubscriberBacklogged(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, cancel := bus.Subscribe(context.Background())
	defer cancel()

	// The subscriber buffer holds 16; everything beyond is dropped rather
	// than blocking the publisher.
	for i := 0; i < 40; i++ {
		bus.Publish(Event{Type: TypeJobUpdated, Data: i})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received == 0 || received > 16 {
				t.Fatalf("expected 1..16 buffered events, got %d", received)
			}
			return
		}
	}
}
