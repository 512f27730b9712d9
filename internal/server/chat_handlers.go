package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pawhome/internal/middleware"
	"pawhome/internal/models"
	"pawhome/internal/notifications"
	"pawhome/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetChats returns the caller's active chat rooms, most recently active first.
func (s *Server) GetChats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	rooms, err := s.chatService.ListRooms(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"chats": rooms})
}

// GetChatForRequest returns the chat room for an adoption request, creating
// it on first access.
func (s *Server) GetChatForRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	room, err := s.chatService.GetOrCreateRoom(c.UserContext(), requestID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(room)
}

// DeleteChat removes a chat room and all of its messages.
func (s *Server) DeleteChat(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	chatID, err := s.parseID(c, "chatId")
	if err != nil {
		return nil
	}

	if err := s.chatService.DeleteRoom(c.UserContext(), chatID, userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Chat deleted successfully"})
}

// GetChatMessages returns one page of chat history in chronological order and
// marks the other party's messages as read. Passing before_time and before_id
// switches to cursor paging.
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	chatID, err := s.parseID(c, "chatId")
	if err != nil {
		return nil
	}

	p := parsePagination(c, 50)
	in := service.ListMessagesInput{
		RoomID: chatID,
		UserID: userID,
		Page:   p.Page,
		Limit:  p.Limit,
	}
	if beforeID := c.QueryInt("before_id", 0); beforeID > 0 {
		beforeTime, terr := time.Parse(time.RFC3339Nano, c.Query("before_time"))
		if terr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("before_time must be an RFC 3339 timestamp"))
		}
		in.BeforeID = uint(beforeID)
		in.BeforeTime = beforeTime
	}

	page, err := s.chatService.ListMessages(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// SendMessageRequest is the payload for sending a chat message over HTTP.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendChatMessage persists a chat message and fans it out to the room's live
// subscribers. Persistence succeeds independently of delivery.
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	chatID, err := s.parseID(c, "chatId")
	if err != nil {
		return nil
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, room, err := s.chatService.SendMessage(c.UserContext(), chatID, userID, req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.broadcastNewMessage(c.UserContext(), room.ID, msg)

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// broadcastNewMessage delivers a persisted message to live subscribers,
// excluding the sender. With Redis configured the event goes through pub/sub
// so every instance sees it; otherwise it goes straight to the local hub.
func (s *Server) broadcastNewMessage(ctx context.Context, roomID uint, msg *models.Message) {
	username := ""
	if msg.Sender != nil {
		username = msg.Sender.Name
	}
	event := notifications.ChatEvent{
		Type:     "new_message",
		RoomID:   roomID,
		UserID:   msg.SenderID,
		Username: username,
		Payload:  msg,
	}

	if s.notifier != nil && s.notifier.Enabled() {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			middleware.Logger.Error("marshal chat event failed", slog.String("error", err.Error()))
			return
		}
		if perr := s.notifier.PublishRoomMessage(ctx, roomID, string(eventJSON)); perr != nil {
			middleware.Logger.Error("publish chat message failed", slog.String("error", perr.Error()))
		}
		return
	}

	s.chatHub.BroadcastToRoomExcept(roomID, msg.SenderID, event)
}
