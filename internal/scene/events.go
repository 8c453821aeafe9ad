package scene

import "time"

// EventType classifies engine events.
type EventType string

const (
	EventBuilt           EventType = "BUILT"
	EventSelected        EventType = "SELECTED"
	EventDeselected      EventType = "DESELECTED"
	EventConjunction     EventType = "CONJUNCTION"
	EventTransitionStart EventType = "TRANSITION_START"
	EventTransitionDone  EventType = "TRANSITION_DONE"
	EventDisposed        EventType = "DISPOSED"
)

// Event is a notable engine state change.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ObjectID  ObjectID  `json:"object_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
