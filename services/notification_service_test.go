package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/models"
)

func strPtr(s string) *string { return &s }

func TestNotifyPersistsAndPushes(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeGateway()
	svc := NewNotificationService(db, gateway)

	liker := createUser(t, db, "Carol")
	author := createUser(t, db, "Dave")
	postID := uuid.New()

	notification, err := svc.Notify(NotificationInput{
		Type:       models.NotificationPostLiked,
		Title:      "Post Liked",
		Content:    strPtr("Carol liked your post"),
		ReceiverID: author.ID,
		SenderID:   &liker.ID,
		PostID:     &postID,
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if notification == nil {
		t.Fatal("expected a created notification")
	}
	if notification.IsRead {
		t.Error("new notification must start unread")
	}
	if notification.ReadAt != nil {
		t.Error("new notification must have nil read timestamp")
	}
	if notification.Data["post_id"] != postID.String() {
		t.Errorf("metadata post_id = %v, want %s", notification.Data["post_id"], postID)
	}

	var stored models.Notification
	if err := db.First(&stored, "receiver_id = ?", author.ID).Error; err != nil {
		t.Fatalf("notification not persisted: %v", err)
	}
	if stored.Type != models.NotificationPostLiked {
		t.Errorf("stored type = %s, want POST_LIKED", stored.Type)
	}

	pushes := gateway.recorded("notification:new")
	if len(pushes) != 1 {
		t.Fatalf("expected 1 push, got %d", len(pushes))
	}
	if pushes[0].UserID != author.ID {
		t.Errorf("push went to %s, want receiver %s", pushes[0].UserID, author.ID)
	}
}

func TestNotifySelfActionSkipped(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeGateway()
	svc := NewNotificationService(db, gateway)

	carol := createUser(t, db, "Carol")

	notification, err := svc.Notify(NotificationInput{
		Type:       models.NotificationPostLiked,
		Title:      "Post Liked",
		ReceiverID: carol.ID,
		SenderID:   &carol.ID,
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if notification != nil {
		t.Error("self-action must not create a notification")
	}

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 notifications, got %d", count)
	}
	if len(gateway.pushes) != 0 {
		t.Errorf("expected no pushes, got %d", len(gateway.pushes))
	}
}

func TestNotifyWithoutGatewayStillPersists(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)

	receiver := createUser(t, db, "Dave")

	notification, err := svc.Notify(NotificationInput{
		Type:       models.NotificationSystemAnnouncement,
		Title:      "Maintenance window",
		ReceiverID: receiver.ID,
	})
	if err != nil {
		t.Fatalf("Notify must not fail when the push path is unavailable: %v", err)
	}
	if notification == nil {
		t.Fatal("expected a created notification")
	}

	var count int64
	db.Model(&models.Notification{}).Where("receiver_id = ?", receiver.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected the record to be durable, got %d rows", count)
	}
}

func TestUnreadCountAccuracy(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, newFakeGateway())

	receiver := createUser(t, db, "Dave")
	sender := createUser(t, db, "Carol")

	const total = 5
	created := make([]*models.Notification, 0, total)
	for i := 0; i < total; i++ {
		notification, err := svc.Notify(NotificationInput{
			Type:       models.NotificationNewFollower,
			Title:      "New Follower",
			ReceiverID: receiver.ID,
			SenderID:   &sender.ID,
		})
		if err != nil {
			t.Fatalf("Notify %d: %v", i, err)
		}
		created = append(created, notification)
	}

	const read = 2
	for i := 0; i < read; i++ {
		if _, err := svc.MarkRead(created[i].ID, receiver.ID); err != nil {
			t.Fatalf("MarkRead %d: %v", i, err)
		}
	}

	list, err := svc.ListForUser(receiver.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if list.Total != total {
		t.Errorf("total = %d, want %d", list.Total, total)
	}
	if list.UnreadCount != total-read {
		t.Errorf("unread = %d, want %d", list.UnreadCount, total-read)
	}
}

func TestMarkReadOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, newFakeGateway())

	receiver := createUser(t, db, "Dave")
	other := createUser(t, db, "Eve")
	sender := createUser(t, db, "Carol")

	notification, err := svc.Notify(NotificationInput{
		Type:       models.NotificationPostCommented,
		Title:      "New Comment",
		ReceiverID: receiver.ID,
		SenderID:   &sender.ID,
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if _, err := svc.MarkRead(notification.ID, other.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("cross-user mark-read must be not-found, got %v", err)
	}

	marked, err := svc.MarkRead(notification.ID, receiver.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !marked.IsRead || marked.ReadAt == nil {
		t.Error("expected notification read with a timestamp")
	}

	// Read timestamp is set exactly once.
	var stored models.Notification
	if err := db.First(&stored, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	firstReadAt := *stored.ReadAt
	again, err := svc.MarkRead(notification.ID, receiver.ID)
	if err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if !again.ReadAt.Equal(firstReadAt) {
		t.Errorf("read timestamp changed on re-invocation: %v -> %v", firstReadAt, again.ReadAt)
	}
}

func TestMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	gateway := newFakeGateway()
	svc := NewNotificationService(db, gateway)

	receiver := createUser(t, db, "Dave")
	sender := createUser(t, db, "Carol")

	for i := 0; i < 3; i++ {
		if _, err := svc.Notify(NotificationInput{
			Type:       models.NotificationPostLiked,
			Title:      "Post Liked",
			ReceiverID: receiver.ID,
			SenderID:   &sender.ID,
		}); err != nil {
			t.Fatalf("Notify %d: %v", i, err)
		}
	}

	if err := svc.MarkAllRead(receiver.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	unread, err := svc.UnreadCount(receiver.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d after MarkAllRead, want 0", unread)
	}

	acks := gateway.recorded("notification:markAllRead:done")
	if len(acks) != 1 || acks[0].UserID != receiver.ID {
		t.Errorf("expected one markAllRead ack to the receiver, got %v", acks)
	}

	// Idempotent: succeeds with nothing unread.
	if err := svc.MarkAllRead(receiver.ID); err != nil {
		t.Fatalf("second MarkAllRead: %v", err)
	}
}

func TestListForUserNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)

	receiver := createUser(t, db, "Dave")

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := svc.Notify(NotificationInput{
			Type:       models.NotificationSystemAnnouncement,
			Title:      title,
			ReceiverID: receiver.ID,
		}); err != nil {
			t.Fatalf("Notify %q: %v", title, err)
		}
	}
	// Force distinct timestamps regardless of store precision.
	for i, title := range titles {
		db.Model(&models.Notification{}).Where("title = ?", title).
			Update("created_at", time.Now().Add(-time.Duration(len(titles)-i)*time.Minute))
	}

	list, err := svc.ListForUser(receiver.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("page size = %d, want 2", len(list.Items))
	}
	if list.Items[0].Title != "third" || list.Items[1].Title != "second" {
		t.Errorf("order = [%s, %s], want newest first", list.Items[0].Title, list.Items[1].Title)
	}
}
