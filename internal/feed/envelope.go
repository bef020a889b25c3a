package feed

import (
	"encoding/json"
	"time"

	"github.com/imaddar/drawsim/internal/session"
)

// Envelope is the frame written to feed subscribers.
type Envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	At        time.Time       `json:"at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func NewEnvelope(event session.Event) (Envelope, error) {
	env := Envelope{
		Type:      string(event.Type),
		SessionID: event.SessionID,
		At:        event.At,
	}
	if event.Payload == nil {
		return env, nil
	}
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = data
	return env, nil
}
