package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`

	Profile      *string    `gorm:"size:255" json:"profile"`
	Bio          *string    `gorm:"type:text" json:"bio,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastActiveAt *time.Time `json:"last_active_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
