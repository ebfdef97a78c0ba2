package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/inkpress/blog_platform/middleware"
	"github.com/inkpress/blog_platform/services"
)

type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	senderID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	recipientID, err := uuid.Parse(c.Params("recipientId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid recipient id"})
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	message, err := h.chat.SendMessage(senderID, recipientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfMessage):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot send message to yourself"})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Recipient not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": message})
}

func (h *ChatHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	previews, err := h.chat.GetUserConversations(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch conversations"})
	}
	return c.JSON(previews)
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	if _, err := middleware.UserID(c); err != nil {
		return err
	}

	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	var cursor *uuid.UUID
	if raw := c.Query("cursor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid pagination cursor"})
		}
		cursor = &id
	}

	page, err := h.chat.GetConversationMessages(conversationID, limit, cursor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCursor):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid pagination cursor"})
		case errors.Is(err, services.ErrConversationNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
		}
	}
	return c.JSON(page)
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	if err := h.chat.MarkMessagesRead(conversationID, userID); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark messages read"})
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *ChatHandler) GetChatUsers(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := c.Query("search")

	list, err := h.chat.ListChatUsers(userID, page, limit, search)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch chat users"})
	}
	return c.JSON(list)
}
