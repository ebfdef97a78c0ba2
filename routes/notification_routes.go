package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/inkpress/blog_platform/handlers"
	"github.com/inkpress/blog_platform/middleware"
	"github.com/inkpress/blog_platform/ws"
)

func NotificationRoutes(app *fiber.App, notifications *handlers.NotificationHandler, hub *ws.Hub) {
	api := app.Group("/api/v1")

	group := api.Group("/notifications", middleware.Protected(), middleware.Heartbeat(hub))
	group.Post("", notifications.Create)
	group.Get("/me", notifications.Me)
	group.Get("/me/unread-count", notifications.UnreadCount)
	group.Patch("/me/mark-all-read", notifications.MarkAllRead)
	group.Patch("/:id/read", notifications.MarkRead)
}
