// Package feed pushes session events to websocket subscribers.
package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/imaddar/drawsim/internal/session"
)

type Broker struct {
	mu       sync.Mutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve upgrades the request and subscribes the connection to sessionID.
// The pumps run until the peer disconnects or the broker is closed.
func (b *Broker) Serve(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade feed connection: %w", err)
	}
	c := &client{
		broker:    b,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}
	b.register(c)

	go c.writePump()
	go c.readPump()
	return nil
}

// Publish fans the event out to the session's subscribers. Subscribers with
// a full buffer miss the event.
func (b *Broker) Publish(event session.Event) {
	env, err := NewEnvelope(event)
	if err != nil {
		b.logger.Error("feed marshal failed", "session_id", event.SessionID, "type", event.Type, "error", err)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("feed marshal failed", "session_id", event.SessionID, "type", event.Type, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients[event.SessionID] {
		select {
		case c.send <- data:
		default:
			b.logger.Warn("feed subscriber buffer full, dropping event", "session_id", event.SessionID, "type", event.Type)
		}
	}
}

func (b *Broker) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients[sessionID])
}

// Close disconnects every subscriber.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sessionID, set := range b.clients {
		for c := range set {
			close(c.send)
		}
		delete(b.clients, sessionID)
	}
}

func (b *Broker) register(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.clients[c.sessionID]
	if !ok {
		set = make(map[*client]struct{})
		b.clients[c.sessionID] = set
	}
	set[c] = struct{}{}
	b.logger.Debug("feed subscriber joined", "session_id", c.sessionID, "subscribers", len(set))
}

func (b *Broker) unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.clients[c.sessionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(b.clients, c.sessionID)
	}
	b.logger.Debug("feed subscriber left", "session_id", c.sessionID)
}
