package session

import (
	"github.com/dragonhaven/server/internal/domain"
)

// EventType tags an engine event on the live stream.
type EventType string

const (
	EventTimerTick         EventType = "timer_tick"
	EventSessionComplete   EventType = "session_complete"
	EventSessionCancelled  EventType = "session_cancelled"
	EventSessionFinalized  EventType = "session_finalized"
	EventEvolutionProgress EventType = "evolution_progress"
	EventEvolutionReady    EventType = "evolution_ready"
	EventEvolutionError    EventType = "evolution_error"
	EventEvolved           EventType = "evolved"
	EventStateChanged      EventType = "state_changed"
)

// Event is one engine notification pushed to stream subscribers.
type Event struct {
	Type             EventType    `json:"type"`
	DragonID         int          `json:"dragonId,omitempty"`
	RemainingSeconds int          `json:"remainingSeconds,omitempty"`
	Stage            domain.Stage `json:"stage,omitempty"`
	Message          string       `json:"message,omitempty"`
}

// Publisher delivers engine events to whoever is listening. Publish must not
// block: the engine calls it while holding its mutex.
type Publisher interface {
	Publish(ev Event)
}
