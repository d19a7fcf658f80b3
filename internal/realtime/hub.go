package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Event tells browser clients that some entity changed and should be
// re-fetched. It carries no payload.
type Event struct {
	Type     string    `json:"type"`
	Entity   string    `json:"entity,omitempty"`
	EntityID string    `json:"entityId,omitempty"`
	At       time.Time `json:"at"`
}

// Hub keeps the connected clients and fans events out to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop; it returns when ctx is cancelled and closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			log.Debug().Str("client", c.id).Msg("ws client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			log.Debug().Str("client", c.id).Msg("ws client disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// buffer full
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify queues a change event. It never blocks; events are dropped when
// the queue is full.
func (h *Hub) Notify(eventType, entity, entityID string) {
	msg, err := json.Marshal(Event{Type: eventType, Entity: entity, EntityID: entityID, At: time.Now().UTC()})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Str("type", eventType).Msg("ws broadcast queue full, event dropped")
	}
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
