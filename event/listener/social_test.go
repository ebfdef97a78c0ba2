package listener

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/event"
	"github.com/inkpress/blog_platform/models"
	"github.com/inkpress/blog_platform/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func socialPayload(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return raw
}

func TestSocialListenerCreatesNotifications(t *testing.T) {
	db := newTestDB(t)
	l := NewSocialListener(services.NewNotificationService(db, nil))

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	receiver := uuid.New()
	sender := uuid.New()
	postID := uuid.New()

	l.Channel <- event.ChannelData{
		Action: "post.liked",
		Data: socialPayload(t, map[string]interface{}{
			"receiver_id": receiver.String(),
			"sender_id":   sender.String(),
			"title":       "Post Liked",
			"post_id":     postID.String(),
		}),
	}
	// Dropped on the floor: unknown action, malformed body, bad receiver.
	l.Channel <- event.ChannelData{Action: "post.unliked", Data: socialPayload(t, map[string]interface{}{
		"receiver_id": receiver.String(), "title": "???",
	})}
	l.Channel <- event.ChannelData{Action: "post.liked", Data: []byte("{not json")}
	l.Channel <- event.ChannelData{Action: "user.followed", Data: socialPayload(t, map[string]interface{}{
		"receiver_id": "not-a-uuid", "title": "New Follower",
	})}
	close(l.Channel)
	<-done

	var notifications []models.Notification
	if err := db.Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifications))
	}
	n := notifications[0]
	if n.Type != models.NotificationPostLiked {
		t.Errorf("type = %s, want POST_LIKED", n.Type)
	}
	if n.ReceiverID != receiver {
		t.Errorf("receiver = %s, want %s", n.ReceiverID, receiver)
	}
	if n.Data["post_id"] != postID.String() {
		t.Errorf("metadata post_id = %v, want %s", n.Data["post_id"], postID)
	}
}

func TestSocialListenerSkipsUntitledEvents(t *testing.T) {
	db := newTestDB(t)
	l := NewSocialListener(services.NewNotificationService(db, nil))

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	l.Channel <- event.ChannelData{
		Action: "post.liked",
		Data: socialPayload(t, map[string]interface{}{
			"receiver_id": uuid.NewString(),
			"title":       "",
		}),
	}
	close(l.Channel)
	<-done

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Errorf("untitled event created %d notifications, want 0", count)
	}
}
