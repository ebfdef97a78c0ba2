package listener

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/event"
	"github.com/inkpress/blog_platform/models"
	"github.com/inkpress/blog_platform/services"
)

// SocialListener turns collaborator events from the social queue into
// notifications. The payload ids are opaque back-references; their
// referential correctness is the publisher's problem.
type SocialListener struct {
	Notifications *services.NotificationService
	Channel       chan event.ChannelData
}

func NewSocialListener(notifications *services.NotificationService) *SocialListener {
	return &SocialListener{
		Notifications: notifications,
		Channel:       make(chan event.ChannelData),
	}
}

type socialEvent struct {
	ReceiverID string  `json:"receiver_id"`
	SenderID   *string `json:"sender_id"`
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	PostID     *string `json:"post_id"`
	CommentID  *string `json:"comment_id"`
	FollowID   *string `json:"follow_id"`
}

var actionTypes = map[string]string{
	"post.liked":          models.NotificationPostLiked,
	"post.commented":      models.NotificationPostCommented,
	"comment.replied":     models.NotificationCommentReplied,
	"user.followed":       models.NotificationNewFollower,
	"system.announcement": models.NotificationSystemAnnouncement,
}

func (l *SocialListener) Run() {
	for data := range l.Channel {
		notificationType, ok := actionTypes[data.Action]
		if !ok {
			log.Printf("ignoring unknown social event action %q", data.Action)
			continue
		}

		var payload socialEvent
		if err := json.Unmarshal(data.Data, &payload); err != nil {
			log.Printf("malformed social event payload for %q: %v", data.Action, err)
			continue
		}

		receiverID, err := uuid.Parse(payload.ReceiverID)
		if err != nil {
			log.Printf("social event %q has invalid receiver id %q", data.Action, payload.ReceiverID)
			continue
		}
		if payload.Title == "" {
			log.Printf("social event %q is missing a title, skipping", data.Action)
			continue
		}

		input := services.NotificationInput{
			Type:       notificationType,
			Title:      payload.Title,
			Content:    payload.Content,
			ReceiverID: receiverID,
			SenderID:   parseOptionalID(payload.SenderID),
			PostID:     parseOptionalID(payload.PostID),
			CommentID:  parseOptionalID(payload.CommentID),
			FollowID:   parseOptionalID(payload.FollowID),
		}
		if _, err := l.Notifications.Notify(input); err != nil {
			log.Printf("failed to create notification for %q: %v", data.Action, err)
		}
	}
}

func parseOptionalID(raw *string) *uuid.UUID {
	if raw == nil {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &id
}
