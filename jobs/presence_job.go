package jobs

import (
	"log"
	"time"

	"github.com/inkpress/blog_platform/database"
	"github.com/inkpress/blog_platform/models"
	"github.com/inkpress/blog_platform/ws"
)

// FlushLastActive persists the last-active timestamp for every user with a
// live connection, so the recent-activity online heuristic survives restarts
// and is visible to the rest of the platform.
func FlushLastActive(hub *ws.Hub) func() {
	return func() {
		online := hub.OnlineUserIDs()
		if len(online) == 0 {
			return
		}

		now := time.Now()
		err := database.DB.Model(&models.User{}).
			Where("id IN ?", online).
			Update("last_active_at", now).Error
		if err != nil {
			log.Printf("Error flushing last-active timestamps: %v", err)
			return
		}
		log.Printf("Flushed last-active for %d online users", len(online))
	}
}
