package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
		&models.MessageStatus{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "hashed",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

type pushed struct {
	UserID uuid.UUID
	Event  string
	Data   interface{}
}

// fakeGateway records pushes so tests can assert on the fan-out without a
// live connection.
type fakeGateway struct {
	mu     sync.Mutex
	pushes []pushed
	online map[uuid.UUID]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{online: make(map[uuid.UUID]bool)}
}

func (g *fakeGateway) Emit(userID uuid.UUID, event string, data interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushes = append(g.pushes, pushed{UserID: userID, Event: event, Data: data})
}

func (g *fakeGateway) PushMessage(userID uuid.UUID, message interface{}) {
	g.Emit(userID, "private:new_message", message)
}

func (g *fakeGateway) PushNotification(userID uuid.UUID, payload interface{}) {
	g.Emit(userID, "notification:new", payload)
}

func (g *fakeGateway) IsOnline(userID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.online[userID]
}

func (g *fakeGateway) recorded(event string) []pushed {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []pushed
	for _, p := range g.pushes {
		if p.Event == event {
			out = append(out, p)
		}
	}
	return out
}
