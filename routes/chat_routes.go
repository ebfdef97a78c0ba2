package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/inkpress/blog_platform/handlers"
	"github.com/inkpress/blog_platform/middleware"
	"github.com/inkpress/blog_platform/ws"
)

func ChatRoutes(app *fiber.App, chat *handlers.ChatHandler, wsHandler *handlers.WsHandler, hub *ws.Hub) {
	api := app.Group("/api/v1")

	private := api.Group("/private-chat", middleware.Protected(), middleware.Heartbeat(hub))
	private.Post("/send-message/:recipientId", chat.SendMessage)
	private.Get("/users", chat.GetChatUsers)
	private.Get("/conversations", chat.GetConversations)
	private.Get("/conversations/:conversationId/messages", chat.GetMessages)
	private.Patch("/conversations/:conversationId/read", chat.MarkRead)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(wsHandler.ServeWs))
}
