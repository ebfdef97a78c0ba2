package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/inkpress/blog_platform/configs"
	"github.com/inkpress/blog_platform/services"
	"github.com/inkpress/blog_platform/ws"
)

// WsHandler terminates real-time connections. State machine per connection:
// unauthenticated -> authenticated & registered -> closed. The first frame
// must be {"event":"auth","data":{"token":...}}; anything else closes the
// connection immediately, without an error frame and before any session
// state exists.
type WsHandler struct {
	hub           *ws.Hub
	chat          *services.ChatService
	notifications *services.NotificationService
}

func NewWsHandler(hub *ws.Hub, chat *services.ChatService, notifications *services.NotificationService) *WsHandler {
	return &WsHandler{hub: hub, chat: chat, notifications: notifications}
}

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (h *WsHandler) ServeWs(c *websocketcontrib.Conn) {
	var auth struct {
		Event string `json:"event"`
		Data  struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := c.ReadJSON(&auth); err != nil || auth.Event != "auth" {
		c.Close()
		return
	}

	claims, err := parseToken(auth.Data.Token)
	if err != nil {
		c.Close()
		return
	}

	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.Close()
		return
	}

	client := ws.NewClient(userID, c)
	h.hub.Register(client)
	go client.WritePump()
	defer h.hub.Unregister(client)

	for {
		var envelope wsEnvelope
		if err := c.ReadJSON(&envelope); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("ws closed for client %s: %v", userID, err)
			} else {
				log.Printf("ws read error for client %s: %v", userID, err)
			}
			return
		}

		h.hub.Touch(userID)
		if err := h.dispatch(client, userID, envelope); err != nil {
			// Action failures go back to the offending connection only.
			client.Enqueue(ws.Event{Event: "error", Data: errPayload(err.Error())})
		}
	}
}

func (h *WsHandler) dispatch(client *ws.Client, userID uuid.UUID, envelope wsEnvelope) error {
	switch envelope.Event {
	case "private:send_message":
		var payload struct {
			RecipientID string `json:"recipient_id"`
			Content     string `json:"content"`
		}
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return errors.New("malformed payload")
		}
		recipientID, err := uuid.Parse(payload.RecipientID)
		if err != nil {
			return errors.New("invalid recipient id")
		}
		if payload.Content == "" {
			return errors.New("content is required")
		}
		if _, err := h.chat.SendMessage(userID, recipientID, payload.Content); err != nil {
			return sendMessageError(err)
		}
		return nil

	case "private:load_messages":
		var payload struct {
			ConversationID string `json:"conversation_id"`
			Limit          int    `json:"limit"`
			Cursor         string `json:"cursor"`
		}
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return errors.New("malformed payload")
		}
		conversationID, err := uuid.Parse(payload.ConversationID)
		if err != nil {
			return errors.New("invalid conversation id")
		}
		var cursor *uuid.UUID
		if payload.Cursor != "" {
			id, err := uuid.Parse(payload.Cursor)
			if err != nil {
				return services.ErrInvalidCursor
			}
			cursor = &id
		}
		page, err := h.chat.GetConversationMessages(conversationID, payload.Limit, cursor)
		if err != nil {
			return fmt.Errorf("failed to load messages: %w", err)
		}
		client.Enqueue(ws.Event{Event: "private:chat_history", Data: map[string]interface{}{
			"conversation_id": conversationID,
			"messages":        page.Messages,
			"next_cursor":     page.NextCursor,
		}})
		return nil

	case "private:load_conversations":
		previews, err := h.chat.GetUserConversations(userID)
		if err != nil {
			return errors.New("failed to load conversations")
		}
		client.Enqueue(ws.Event{Event: "private:conversations", Data: previews})
		return nil

	case "private:mark_read":
		var payload struct {
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return errors.New("malformed payload")
		}
		conversationID, err := uuid.Parse(payload.ConversationID)
		if err != nil {
			return errors.New("invalid conversation id")
		}
		if err := h.chat.MarkMessagesRead(conversationID, userID); err != nil {
			return errors.New("failed to mark messages as read")
		}
		return nil

	case "private:get_online_status":
		var payload struct {
			UserIDs []string `json:"user_ids"`
		}
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return errors.New("malformed payload")
		}
		status := make(map[string]bool, len(payload.UserIDs))
		for _, raw := range payload.UserIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				continue
			}
			status[raw] = h.hub.IsOnline(id)
		}
		client.Enqueue(ws.Event{Event: "private:online_status", Data: status})
		return nil

	case "notification:markAllRead":
		if err := h.notifications.MarkAllRead(userID); err != nil {
			return errors.New("failed to mark notifications read")
		}
		return nil

	default:
		return fmt.Errorf("unknown event %q", envelope.Event)
	}
}

func sendMessageError(err error) error {
	switch {
	case errors.Is(err, services.ErrSelfMessage):
		return errors.New("cannot send message to yourself")
	case errors.Is(err, services.ErrUserNotFound):
		return errors.New("recipient not found")
	default:
		return errors.New("failed to send message")
	}
}

func errPayload(message string) map[string]string {
	return map[string]string{"message": message}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
