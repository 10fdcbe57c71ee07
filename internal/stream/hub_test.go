package stream

import (
	"testing"
	"time"

	"github.com/dragonhaven/server/internal/session"
)

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.subscribe()
	b := h.subscribe()
	defer h.unsubscribe(a)
	defer h.unsubscribe(b)

	if h.Count() != 2 {
		t.Fatalf("count = %d, want 2", h.Count())
	}

	h.Publish(session.Event{Type: session.EventTimerTick, RemainingSeconds: 42})

	for name, sub := range map[string]*subscriber{"a": a, "b": b} {
		select {
		case ev := <-sub.ch:
			if ev.Type != session.EventTimerTick || ev.RemainingSeconds != 42 {
				t.Errorf("%s received %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s never received the event", name)
		}
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	sub := h.subscribe()
	defer h.unsubscribe(sub)

	// Overfill the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish(session.Event{Type: session.EventTimerTick, RemainingSeconds: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	if got := len(sub.ch); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", got, subscriberBuffer)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.subscribe()
	h.unsubscribe(sub)

	if h.Count() != 0 {
		t.Fatalf("count = %d, want 0", h.Count())
	}
	h.Publish(session.Event{Type: session.EventStateChanged})
	if len(sub.ch) != 0 {
		t.Error("event delivered after unsubscribe")
	}
}
