package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	NotificationNewFollower        = "NEW_FOLLOWER"
	NotificationPostLiked          = "POST_LIKED"
	NotificationPostCommented      = "POST_COMMENTED"
	NotificationCommentReplied     = "COMMENT_REPLIED"
	NotificationNewMessage         = "NEW_MESSAGE"
	NotificationSystemAnnouncement = "SYSTEM_ANNOUNCEMENT"
)

// JSONMap stores the free-form notification metadata (post/comment/follow
// back-references and anything else a collaborator attaches) as a JSON column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported type for JSONMap")
	}
}

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Type       string     `gorm:"size:40;not null" json:"type"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    *string    `gorm:"type:text" json:"content"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;not null;index" json:"receiver_id"`
	SenderID   *uuid.UUID `gorm:"type:uuid" json:"sender_id"`

	IsRead bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
	Data   JSONMap    `gorm:"type:jsonb" json:"data,omitempty"`

	Sender *User `gorm:"foreignkey:SenderID" json:"sender,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
