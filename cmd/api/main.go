package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/inkpress/blog_platform/database"
	"github.com/inkpress/blog_platform/event"
	"github.com/inkpress/blog_platform/event/listener"
	"github.com/inkpress/blog_platform/handlers"
	"github.com/inkpress/blog_platform/jobs"
	"github.com/inkpress/blog_platform/routes"
	"github.com/inkpress/blog_platform/services"
	"github.com/inkpress/blog_platform/ws"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.ConnectRedis()

	hub := ws.NewHub(database.Redis)

	chatService := services.NewChatService(database.DB, hub)
	notificationService := services.NewNotificationService(database.DB, hub)

	event.Connect([]string{"social"})
	defer event.Close()

	socialListener := listener.NewSocialListener(notificationService)
	go socialListener.Run()
	event.Subscribe([]event.SubscribeListener{
		{Queue: "social", Channel: socialListener.Channel},
	})

	c := cron.New()
	c.AddFunc("* * * * *", jobs.FlushLastActive(hub))
	go c.Start()
	log.Println("✅ Presence flush job scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "Inkpress API",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	chatHandler := handlers.NewChatHandler(chatService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWsHandler(hub, chatService, notificationService)

	routes.AuthRoutes(app)
	routes.ChatRoutes(app, chatHandler, wsHandler, hub)
	routes.NotificationRoutes(app, notificationHandler, hub)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
