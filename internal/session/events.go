package session

import "time"

type EventType string

const (
	EventDraw            EventType = "draw"
	EventAttemptRejected EventType = "attempt_rejected"
	EventBatchAccepted   EventType = "batch_accepted"
	EventReset           EventType = "reset"
	EventSuitsChanged    EventType = "suits_changed"
)

type Event struct {
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher receives session events. Publish must not block on slow consumers.
type Publisher interface {
	Publish(event Event)
}
