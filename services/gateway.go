package services

import "github.com/google/uuid"

// Gateway is the real-time push surface the services depend on. Pushes are
// fire-and-forget: persistence always completes and returns before a push is
// attempted, and a lost push is reconciled by the client through the
// paginated fetches.
type Gateway interface {
	Emit(userID uuid.UUID, event string, data interface{})
	PushMessage(userID uuid.UUID, message interface{})
	PushNotification(userID uuid.UUID, payload interface{})
	IsOnline(userID uuid.UUID) bool
}
