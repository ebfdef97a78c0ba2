package services

import "errors"

// Sentinel errors the handlers map onto HTTP statuses. Validation errors stop
// an operation before any store mutation happens.
var (
	ErrSelfMessage          = errors.New("cannot send message to yourself")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidCursor        = errors.New("invalid pagination cursor")
)
