package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatService owns conversations, messages and their delivery statuses, and
// orchestrates the send/read flows against the delivery gateway.
type ChatService struct {
	db      *gorm.DB
	gateway Gateway
}

func NewChatService(db *gorm.DB, gateway Gateway) *ChatService {
	return &ChatService{db: db, gateway: gateway}
}

// MessagePage is one cursor page of conversation history, oldest first.
type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	NextCursor *uuid.UUID       `json:"next_cursor"`
}

// ConversationPreview is a conversation annotated with its latest message and
// the caller's unread count.
type ConversationPreview struct {
	Conversation models.Conversation `json:"conversation"`
	LastMessage  *models.Message     `json:"last_message"`
	UnreadCount  int64               `json:"unread_count"`
}

// ChatUser is one row of the merged chat user list: a conversation partner
// (annotated) or a discoverable user the caller never talked to.
type ChatUser struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Profile        *string         `json:"profile"`
	Online         bool            `json:"online"`
	ConversationID *uuid.UUID      `json:"conversation_id"`
	LastMessage    *models.Message `json:"last_message"`
	UnreadCount    int64           `json:"unread_count"`
}

type ChatUserList struct {
	Users []ChatUser `json:"users"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// FindOrCreateConversation resolves the single direct conversation for an
// unordered user pair, creating it together with both member rows on first
// contact. The unique pair key plus ON CONFLICT DO NOTHING makes concurrent
// first contacts converge on one row instead of racing a check-then-act.
func (s *ChatService) FindOrCreateConversation(userA, userB uuid.UUID) (*models.Conversation, error) {
	key := models.PairKey(userA, userB)

	conversation := models.Conversation{Type: models.ConversationTypeDirect, PairKey: key}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(&conversation)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race (or the conversation already existed).
			return tx.Preload("Members").Where("pair_key = ?", key).First(&conversation).Error
		}

		members := []models.ConversationMember{
			{ConversationID: conversation.ID, UserID: userA},
			{ConversationID: conversation.ID, UserID: userB},
		}
		if err := tx.Create(&members).Error; err != nil {
			return err
		}
		conversation.Members = members
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// AppendMessage persists a message plus one DELIVERED status row per
// conversation member in a single transaction, so a reader can never observe
// the message without its statuses.
func (s *ChatService) AppendMessage(conversationID, senderID uuid.UUID, content string) (*models.Message, error) {
	var conversation models.Conversation
	if err := s.db.Preload("Members").First(&conversation, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var receiverID *uuid.UUID
	for _, member := range conversation.Members {
		if member.UserID != senderID {
			id := member.UserID
			receiverID = &id
			break
		}
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		statuses := make([]models.MessageStatus, 0, len(conversation.Members))
		for _, member := range conversation.Members {
			statuses = append(statuses, models.MessageStatus{
				MessageID: message.ID,
				UserID:    member.UserID,
				Status:    models.MessageStatusDelivered,
			})
		}
		if err := tx.Create(&statuses).Error; err != nil {
			return err
		}
		message.Statuses = statuses

		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("last_message_at", message.CreatedAt).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&message.Sender, "id = ?", senderID).Error; err != nil {
		log.Printf("failed to load sender %s for message payload: %v", senderID, err)
	}
	return &message, nil
}

// SendMessage is the full send flow: validate, resolve the conversation,
// append, then push the new message to both parties' channels so every device
// of the sender and recipient updates in real time.
func (s *ChatService) SendMessage(senderID, recipientID uuid.UUID, content string) (*models.Message, error) {
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}

	var recipient models.User
	if err := s.db.First(&recipient, "id = ?", recipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	conversation, err := s.FindOrCreateConversation(senderID, recipientID)
	if err != nil {
		return nil, err
	}

	message, err := s.AppendMessage(conversation.ID, senderID, content)
	if err != nil {
		return nil, err
	}

	if s.gateway != nil {
		s.gateway.PushMessage(senderID, message)
		s.gateway.PushMessage(recipientID, message)
	}
	return message, nil
}

// GetConversationMessages returns up to limit messages oldest-first. A cursor
// resumes strictly before that message id; NextCursor is nil once the page
// comes back short.
func (s *ChatService) GetConversationMessages(conversationID uuid.UUID, limit int, cursor *uuid.UUID) (*MessagePage, error) {
	if limit <= 0 {
		limit = 20
	}

	query := s.db.Where("conversation_id = ?", conversationID)
	if cursor != nil {
		var pivot models.Message
		if err := s.db.First(&pivot, "id = ? AND conversation_id = ?", cursor, conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidCursor
			}
			return nil, err
		}
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			pivot.CreatedAt, pivot.CreatedAt, pivot.ID)
	}

	var messages []models.Message
	err := query.
		Preload("Sender").
		Preload("Statuses").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	var next *uuid.UUID
	if len(messages) == limit {
		oldest := messages[len(messages)-1].ID
		next = &oldest
	}

	// Newest-first from the store, oldest-first for the caller.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &MessagePage{Messages: messages, NextCursor: next}, nil
}

// MarkMessagesRead transitions every non-READ status row of the user inside
// the conversation to READ. Idempotent; READ never regresses.
func (s *ChatService) MarkMessagesRead(conversationID, userID uuid.UUID) error {
	var conversation models.Conversation
	if err := s.db.Preload("Members").First(&conversation, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}

	now := time.Now()
	err := s.db.Model(&models.MessageStatus{}).
		Where("user_id = ? AND status <> ?", userID, models.MessageStatusRead).
		Where("message_id IN (?)", s.db.Model(&models.Message{}).Select("id").Where("conversation_id = ?", conversationID)).
		Updates(map[string]interface{}{"status": models.MessageStatusRead, "read_at": now}).Error
	if err != nil {
		return err
	}

	if s.gateway != nil {
		payload := map[string]interface{}{
			"conversation_id": conversationID,
			"user_id":         userID,
		}
		for _, member := range conversation.Members {
			s.gateway.Emit(member.UserID, "private:messages_read", payload)
		}
	}
	return nil
}

// GetUserConversations lists the user's conversations with members, latest
// message and unread count, most recently active first.
func (s *ChatService) GetUserConversations(userID uuid.UUID) ([]ConversationPreview, error) {
	var conversations []models.Conversation
	err := s.db.
		Joins("JOIN conversation_members cm ON cm.conversation_id = conversations.id AND cm.user_id = ?", userID).
		Preload("Members.User").
		Order("conversations.last_message_at DESC NULLS LAST").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	previews := make([]ConversationPreview, 0, len(conversations))
	for _, conversation := range conversations {
		preview := ConversationPreview{Conversation: conversation}

		var last models.Message
		err := s.db.
			Preload("Sender").
			Preload("Statuses").
			Where("conversation_id = ?", conversation.ID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		if err == nil {
			preview.LastMessage = &last
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		unread, err := s.unreadMessages(conversation.ID, userID)
		if err != nil {
			return nil, err
		}
		preview.UnreadCount = unread

		previews = append(previews, preview)
	}
	return previews, nil
}

// ListChatUsers builds the merged chat directory: conversation partners first
// (most recent activity on top), then every other active user alphabetically.
// Search filters both groups by name substring before pagination.
func (s *ChatService) ListChatUsers(userID uuid.UUID, page, limit int, search string) (*ChatUserList, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	previews, err := s.GetUserConversations(userID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	merged := make([]ChatUser, 0, len(previews))
	partnerIDs := make([]uuid.UUID, 0, len(previews))

	for _, preview := range previews {
		for _, member := range preview.Conversation.Members {
			if member.UserID == userID {
				continue
			}
			partnerIDs = append(partnerIDs, member.UserID)
			if needle != "" && !strings.Contains(strings.ToLower(member.User.Name), needle) {
				continue
			}
			conversationID := preview.Conversation.ID
			merged = append(merged, ChatUser{
				ID:             member.UserID,
				Name:           member.User.Name,
				Profile:        member.User.Profile,
				Online:         s.isOnline(member.UserID),
				ConversationID: &conversationID,
				LastMessage:    preview.LastMessage,
				UnreadCount:    preview.UnreadCount,
			})
		}
	}

	strangers := s.db.
		Where("id <> ?", userID).
		Where("is_active = ?", true).
		Order("name ASC")
	if len(partnerIDs) > 0 {
		strangers = strangers.Where("id NOT IN ?", partnerIDs)
	}
	if needle != "" {
		strangers = strangers.Where("lower(name) LIKE ?", "%"+needle+"%")
	}

	var others []models.User
	if err := strangers.Find(&others).Error; err != nil {
		return nil, err
	}
	for _, other := range others {
		merged = append(merged, ChatUser{
			ID:      other.ID,
			Name:    other.Name,
			Profile: other.Profile,
			Online:  s.isOnline(other.ID),
		})
	}

	total := len(merged)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &ChatUserList{
		Users: merged[offset:end],
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *ChatService) unreadMessages(conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.MessageStatus{}).
		Joins("JOIN messages ON messages.id = message_statuses.message_id").
		Where("messages.conversation_id = ?", conversationID).
		Where("messages.sender_id <> ?", userID).
		Where("message_statuses.user_id = ? AND message_statuses.status <> ?", userID, models.MessageStatusRead).
		Count(&count).Error
	return count, err
}

func (s *ChatService) isOnline(userID uuid.UUID) bool {
	if s.gateway == nil {
		return false
	}
	return s.gateway.IsOnline(userID)
}
