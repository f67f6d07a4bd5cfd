package preview

import (
	"sync"

	"go.uber.org/zap"
)

const clientBuffer = 8

// Hub is the in-process registry of connected preview clients. Fan-out is
// per process: a broadcast only reaches clients attached to the instance
// that received the publish.
type Hub struct {
	mu      sync.Mutex
	clients map[string]chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan []byte)}
}

// Subscribe registers a client and returns its event channel.
func (h *Hub) Subscribe(clientID string) <-chan []byte {
	ch := make(chan []byte, clientBuffer)

	h.mu.Lock()
	h.clients[clientID] = ch
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a client and closes its channel. Safe to call after
// the client is already gone.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	ch, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Broadcast delivers the payload to every connected client without blocking.
// A client whose buffer is full misses this event.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for clientID, ch := range h.clients {
		select {
		case ch <- payload:
			delivered++
		default:
			zap.L().Warn("preview client too slow, event dropped", zap.String("client_id", clientID))
		}
	}
	return delivered
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
