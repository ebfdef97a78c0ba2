package ws

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// How long after their last heartbeat a user still counts as online.
const presenceWindow = 5 * time.Minute

const lastSeenKeyPrefix = "presence:last_seen:"

// Hub is the delivery gateway: it owns the presence registry and fans events
// out to every open connection of a user. Pushes are fire-and-forget; anything
// a client misses it reconciles from the stores on reconnect.
type Hub struct {
	registry *Registry
	rdb      *redis.Client
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		registry: NewRegistry(),
		rdb:      rdb,
	}
}

func (h *Hub) Register(c *Client) {
	h.registry.Register(c)
	h.Touch(c.UserID)
	log.Printf("ws client registered: %s", c.UserID)
}

func (h *Hub) Unregister(c *Client) {
	h.registry.Unregister(c)
	c.close()
	log.Printf("ws client unregistered: %s", c.UserID)
}

// Emit broadcasts an event to every open connection of the user. Clients that
// cannot keep up are dropped rather than allowed to stall the emit.
func (h *Hub) Emit(userID uuid.UUID, event string, data interface{}) {
	ev := Event{Event: event, Data: data}
	for _, c := range h.registry.Clients(userID) {
		if !c.Enqueue(ev) {
			log.Printf("ws client %s too slow, dropping connection", userID)
			h.Unregister(c)
		}
	}
}

func (h *Hub) PushMessage(userID uuid.UUID, message interface{}) {
	h.Emit(userID, "private:new_message", message)
}

func (h *Hub) PushNotification(userID uuid.UUID, payload interface{}) {
	h.Emit(userID, "notification:new", payload)
}

// Touch refreshes the user's activity heartbeat.
func (h *Hub) Touch(userID uuid.UUID) {
	if h.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.rdb.Set(ctx, lastSeenKeyPrefix+userID.String(), time.Now().Unix(), presenceWindow).Err(); err != nil {
		log.Printf("presence heartbeat for %s failed: %v", userID, err)
	}
}

// IsOnline reports whether the user has a live connection or a heartbeat
// within the freshness window.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	if h.registry.IsConnected(userID) {
		return true
	}
	if h.rdb == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n, err := h.rdb.Exists(ctx, lastSeenKeyPrefix+userID.String()).Result()
	if err != nil {
		log.Printf("presence lookup for %s failed: %v", userID, err)
		return false
	}
	return n > 0
}

func (h *Hub) OnlineUserIDs() []uuid.UUID {
	return h.registry.OnlineUserIDs()
}
