package ws

import (
	"encoding/json"
	"sync"
)

// Event types pushed to panel clients.
const (
	EventOrderPlaced  = "order.placed"
	EventComboChanged = "combo.changed"
	EventNotification = "notification"
)

// Event is a message broadcast to connected panel clients. The panel shows
// notification events as transient toasts.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of connected panel clients and fans events out to
// all of them. There is one shared room; every signed-in panel sees the
// same stream.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan Event

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and drop it
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// Notify is a convenience for the toast-style notification events the panel
// renders after every mutation or failure.
func (h *Hub) Notify(level, message string) {
	payload, err := json.Marshal(map[string]string{"level": level, "message": message})
	if err != nil {
		return
	}
	h.Broadcast(Event{Type: EventNotification, Payload: payload})
}
