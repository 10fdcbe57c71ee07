// Package stream fans engine events out to websocket subscribers.
package stream

import (
	"log/slog"
	"sync"

	"github.com/dragonhaven/server/internal/session"
)

const subscriberBuffer = 64

// Hub is the subscriber registry. Publish never blocks: a subscriber that
// cannot keep up loses events rather than stalling the engine.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	ch chan session.Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Publish delivers an event to every subscriber.
func (h *Hub) Publish(ev session.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			slog.Debug("event dropped for slow subscriber", "type", ev.Type)
		}
	}
}

func (h *Hub) subscribe() *subscriber {
	sub := &subscriber{ch: make(chan session.Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	slog.Info("event subscriber registered", "subscribers", h.Count())
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	slog.Info("event subscriber unregistered", "subscribers", h.Count())
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var _ session.Publisher = (*Hub)(nil)
