package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks which live connections belong to which user. It is owned by
// the Hub, holds no durable state, and is rebuilt from scratch as connections
// come and go.
type Registry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[uuid.UUID]map[*Client]struct{})}
}

func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		r.clients[c.UserID] = set
	}
	set[c] = struct{}{}
}

// Unregister is a no-op for unknown clients. Empty user entries are pruned.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.clients[c.UserID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.clients, c.UserID)
	}
}

func (r *Registry) IsConnected(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[userID]) > 0
}

// Clients returns a snapshot of the user's open connections.
func (r *Registry) Clients(userID uuid.UUID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients[userID]))
	for c := range r.clients[userID] {
		out = append(out, c)
	}
	return out
}

func (r *Registry) OnlineUserIDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(r.clients))
	for id := range r.clients {
		out = append(out, id)
	}
	return out
}
