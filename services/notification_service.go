package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/models"
	"gorm.io/gorm"
)

// NotificationService persists notifications and pushes them best-effort.
// Collaborator services (likes, follows, comments) call Notify as a side
// effect of their own writes; a failed push never fails the write.
type NotificationService struct {
	db      *gorm.DB
	gateway Gateway
}

func NewNotificationService(db *gorm.DB, gateway Gateway) *NotificationService {
	return &NotificationService{db: db, gateway: gateway}
}

// NotificationInput carries everything a collaborator hands over. The
// post/comment/follow back-references are opaque here and end up in the
// metadata payload rather than as their own columns.
type NotificationInput struct {
	Type       string         `json:"type" validate:"required"`
	Title      string         `json:"title" validate:"required"`
	Content    *string        `json:"content"`
	ReceiverID uuid.UUID      `json:"receiver_id" validate:"required"`
	SenderID   *uuid.UUID     `json:"sender_id"`
	PostID     *uuid.UUID     `json:"post_id"`
	CommentID  *uuid.UUID     `json:"comment_id"`
	FollowID   *uuid.UUID     `json:"follow_id"`
	Data       models.JSONMap `json:"data"`
}

type NotificationList struct {
	Items       []models.Notification `json:"items"`
	Total       int64                 `json:"total"`
	UnreadCount int64                 `json:"unread_count"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
}

// Notify persists the notification, then pushes it to the receiver's channel.
// Self-actions (sender == receiver) are silently skipped and create nothing.
func (s *NotificationService) Notify(input NotificationInput) (*models.Notification, error) {
	if input.SenderID != nil && *input.SenderID == input.ReceiverID {
		return nil, nil
	}

	data := input.Data
	if input.PostID != nil || input.CommentID != nil || input.FollowID != nil {
		if data == nil {
			data = models.JSONMap{}
		}
		if input.PostID != nil {
			data["post_id"] = input.PostID.String()
		}
		if input.CommentID != nil {
			data["comment_id"] = input.CommentID.String()
		}
		if input.FollowID != nil {
			data["follow_id"] = input.FollowID.String()
		}
	}

	notification := models.Notification{
		Type:       input.Type,
		Title:      input.Title,
		Content:    input.Content,
		ReceiverID: input.ReceiverID,
		SenderID:   input.SenderID,
		Data:       data,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return nil, err
	}

	if notification.SenderID != nil {
		var sender models.User
		if err := s.db.First(&sender, "id = ?", *notification.SenderID).Error; err == nil {
			notification.Sender = &sender
		}
	}

	// Persisted record is the source of truth; the push is best effort.
	if s.gateway != nil {
		s.gateway.PushNotification(notification.ReceiverID, notification)
	} else {
		log.Printf("no gateway attached, notification %s not pushed", notification.ID)
	}
	return &notification, nil
}

// ListForUser returns one newest-first page plus the user's total and global
// unread count.
func (s *NotificationService) ListForUser(userID uuid.UUID, page, limit int) (*NotificationList, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var items []models.Notification
	err := s.db.
		Preload("Sender").
		Where("receiver_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.Model(&models.Notification{}).Where("receiver_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	unread, err := s.UnreadCount(userID)
	if err != nil {
		return nil, err
	}

	return &NotificationList{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	var unread int64
	err := s.db.Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error
	return unread, err
}

// MarkRead flips one notification to read. The lookup is scoped by receiver,
// so another user's notification id behaves as not found.
func (s *NotificationService) MarkRead(notificationID, userID uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.First(&notification, "id = ? AND receiver_id = ?", notificationID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := s.db.Model(&notification).Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
			return nil, err
		}
	}
	return &notification, nil
}

// MarkAllRead bulk-reads everything unread for the user, then acks over the
// gateway. Idempotent, succeeds even when nothing was unread.
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	now := time.Now()
	err := s.db.Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
	if err != nil {
		return err
	}

	if s.gateway != nil {
		s.gateway.Emit(userID, "notification:markAllRead:done", map[string]interface{}{"success": true})
	}
	return nil
}
