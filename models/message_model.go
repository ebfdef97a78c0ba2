package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID     *uuid.UUID `gorm:"type:uuid" json:"receiver_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`

	Sender   User            `gorm:"foreignkey:SenderID" json:"sender,omitempty"`
	Statuses []MessageStatus `json:"statuses,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
