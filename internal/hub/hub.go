// Package hub fans upstream event frames out to every connected browser
// client. One goroutine owns the client set; registration, removal, and
// broadcast all flow through its channels, so no handler ever touches the
// set directly.
package hub

import (
	"context"

	"vending-storefront-backend/internal/metrics"
)

// Hub maintains the set of active clients and broadcasts frames to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns; keeps late callers from blocking on a
	// loop that is no longer receiving.
	stopped chan struct{}
}

// New creates an empty hub. Run must be started before any client connects.
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.ConnectedClients.Set(float64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.done)
				metrics.ConnectedClients.Set(float64(len(h.clients)))
			}

		case frame := <-h.broadcast:
			metrics.BroadcastFrames.Inc()
			for client := range h.clients {
				// Non-blocking: a slow client skips this frame but
				// stays registered; it never stalls the others.
				client.enqueue(frame)
			}

		case <-ctx.Done():
			close(h.stopped)
			for client := range h.clients {
				delete(h.clients, client)
				close(client.done)
			}
			metrics.ConnectedClients.Set(0)
			return
		}
	}
}

// Register adds a client to the live set. The client misses any broadcast
// already in flight and receives all subsequent ones. After shutdown the
// client is released immediately instead of parking the caller.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
		close(c.done)
	}
}

// Unregister removes a client. Removing an already-absent client is a no-op.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Broadcast queues one frame for delivery to every currently registered
// client. The frame is already serialized; the hub never re-encodes.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	case <-h.stopped:
	}
}
