package models

import (
	"time"

	"github.com/google/uuid"
)

const ConversationTypeDirect = "DIRECT"

// Conversation is a direct (1:1) thread. PairKey is the canonical unordered
// member pair ("<lowID>:<highID>"); the unique index is what guarantees a
// single conversation per pair even when two first messages race.
type Conversation struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Type    string    `gorm:"size:20;not null;default:'DIRECT'" json:"type"`
	PairKey string    `gorm:"size:80;not null;uniqueIndex" json:"-"`

	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Members  []ConversationMember `json:"members,omitempty"`
	Messages []Message            `json:"messages,omitempty"`
}

type ConversationMember struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_member" json:"conversation_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_member" json:"user_id"`

	User User `gorm:"foreignkey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// PairKey builds the canonical conversation key for an unordered user pair.
func PairKey(a, b uuid.UUID) string {
	first, second := a.String(), b.String()
	if second < first {
		first, second = second, first
	}
	return first + ":" + second
}
