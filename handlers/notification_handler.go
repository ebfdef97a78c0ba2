package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/middleware"
	"github.com/inkpress/blog_platform/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Create is the collaborator surface: like/follow/comment services post here
// as a side effect of their own writes.
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var input services.NotificationInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	notification, err := h.notifications.Notify(input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create notification"})
	}
	if notification == nil {
		// Self-action, nothing created.
		return c.JSON(fiber.Map{"success": true, "notification": nil})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "notification": notification})
}

func (h *NotificationHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	list, err := h.notifications.ListForUser(userID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}
	return c.JSON(list)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	unread, err := h.notifications.UnreadCount(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch unread count"})
	}
	return c.JSON(fiber.Map{"unread_count": unread})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	notification, err := h.notifications.MarkRead(notificationID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notification read"})
	}
	return c.JSON(notification)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkAllRead(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notifications read"})
	}
	return c.JSON(fiber.Map{"success": true})
}
