package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event is the envelope pushed to connected clients
type Event struct {
	Type       string      `json:"type"`
	BusinessID uuid.UUID   `json:"businessId"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Hub maintains the set of active clients per business and fans events out to them
type Hub struct {
	// Registered clients: BusinessID -> set of clients
	clients map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run starts the hub's main loop until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for biz, set := range h.clients {
				for c := range set {
					c.close()
				}
				delete(h.clients, biz)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.BusinessID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.BusinessID] = set
			}
			set[client] = true
			h.mu.Unlock()
			log.Debug().Str("business", client.BusinessID.String()).Str("user", client.UserID).Msg("📱 Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.BusinessID]; ok && set[client] {
				delete(set, client)
				client.close()
				if len(set) == 0 {
					delete(h.clients, client.BusinessID)
				}
				log.Debug().Str("business", client.BusinessID.String()).Msg("📴 Client disconnected")
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends an event to every client of businessID. Slow clients miss events rather than block.
func (h *Hub) Publish(businessID uuid.UUID, event string, payload interface{}) {
	msg, err := json.Marshal(Event{Type: event, BusinessID: businessID, Data: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Error marshaling event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[businessID] {
		if !c.trySend(msg) {
			log.Warn().Str("business", businessID.String()).Str("event", event).Msg("Client buffer full, event dropped")
		}
	}
}

// Clients returns how many clients are connected for businessID
func (h *Hub) Clients(businessID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[businessID])
}
