package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types sent over the stopwatch websocket.
const (
	EventTick       = "tick"
	EventTransition = "transition"
)

// StopwatchEvent describes websocket payloads emitted while the stopwatch is observed.
type StopwatchEvent struct {
	Type      string       `json:"type"`
	Stopwatch StopwatchDTO `json:"stopwatch"`
	Timestamp time.Time    `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Notifier keeps track of active websocket clients and broadcasts stopwatch events.
type Notifier struct {
	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	lastEvent *StopwatchEvent
}

// NewNotifier constructs a notifier instance.
func NewNotifier() *Notifier {
	return &Notifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and greets it. When a newer event
// than greeting has already been broadcast, that event is sent instead.
func (n *Notifier) Register(conn *websocket.Conn, greeting StopwatchEvent) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clients[client] = struct{}{}
	first := greeting
	if n.lastEvent != nil && n.lastEvent.Stopwatch.Seq > greeting.Stopwatch.Seq {
		first = *n.lastEvent
	}
	_ = client.writeJSON(first)
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *Notifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Clients returns the number of connected websocket clients.
func (n *Notifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// Broadcast sends the supplied event to all registered websocket clients.
// Events built from an older state than the last broadcast are dropped and
// Broadcast reports false.
func (n *Notifier) Broadcast(event StopwatchEvent) bool {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastEvent != nil && event.Stopwatch.Seq < n.lastEvent.Stopwatch.Seq {
		return false
	}
	snapshot := event
	n.lastEvent = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	return true
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
