package models

import (
	"time"

	"github.com/google/uuid"
)

// Message delivery lifecycle. READ is terminal; nothing in the services moves
// a status back to DELIVERED or SENT.
const (
	MessageStatusSent      = "SENT"
	MessageStatusDelivered = "DELIVERED"
	MessageStatusRead      = "READ"
)

// MessageStatus is one row per (message, conversation member).
type MessageStatus struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_message_status_user" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_message_status_user" json:"user_id"`
	Status    string    `gorm:"size:20;not null;default:'DELIVERED'" json:"status"`

	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
