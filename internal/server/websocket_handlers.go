package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"pawhome/internal/middleware"
	"pawhome/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketChatHandler handles WebSocket connections for real-time chat.
// Clients join rooms explicitly; membership is verified against storage at
// join time and again for every send, so a stale subscription can never
// outlive a deleted room.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"unauthorized"}}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			middleware.Logger.Warn("websocket chat: failed to load user",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			_ = conn.Close()
			return
		}
		username := user.Name

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"`+err.Error()+`"}}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming map[string]interface{}
			if err := json.Unmarshal(message, &incoming); err != nil {
				s.sendWSError(c, "invalid message format")
				return
			}

			msgType, ok := incoming["type"].(string)
			if !ok {
				return
			}
			roomIDFloat, ok := incoming["room_id"].(float64)
			if !ok {
				s.sendWSError(c, "room_id is required")
				return
			}
			roomID := uint(roomIDFloat)

			switch msgType {
			case "join":
				// Membership check against storage, not just hub state.
				if _, err := s.chatService.GetRoomForUser(ctx, roomID, userID); err != nil {
					s.sendWSError(c, "you are not a member of this chat room")
					return
				}
				s.chatHub.JoinRoom(userID, roomID)

				response := notifications.ChatEvent{
					Type:    "joined",
					RoomID:  roomID,
					Payload: map[string]interface{}{"room_id": roomID},
				}
				if responseJSON, err := json.Marshal(response); err == nil {
					c.TrySend(responseJSON)
				}

			case "leave":
				s.chatHub.LeaveRoom(userID, roomID)

			case "typing":
				isTyping, _ := incoming["is_typing"].(bool)

				if _, err := s.chatService.GetRoomForUser(ctx, roomID, userID); err != nil {
					return
				}

				// Typing indicators are spammy by nature; drop excess silently.
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
				if !allowed {
					return
				}

				if s.notifier != nil && s.notifier.Enabled() {
					if perr := s.notifier.PublishTyping(ctx, roomID, userID, username, isTyping); perr != nil {
						middleware.Logger.Warn("publish typing indicator failed",
							slog.String("error", perr.Error()))
					}
				} else {
					s.chatHub.BroadcastToRoomExcept(roomID, userID, notifications.ChatEvent{
						Type:     "user_typing",
						RoomID:   roomID,
						UserID:   userID,
						Username: username,
						Payload: map[string]interface{}{
							"is_typing":     isTyping,
							"expires_in_ms": 5000,
						},
					})
				}

			case "message":
				content, _ := incoming["content"].(string)

				// Same limit as the HTTP send endpoint.
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_chat", id, 15, time.Minute)
				if !allowed {
					s.sendWSError(c, "Rate limit exceeded. Please wait a moment.")
					return
				}

				msg, room, err := s.chatService.SendMessage(ctx, roomID, userID, content)
				if err != nil {
					s.sendWSError(c, err.Error())
					return
				}

				s.broadcastNewMessage(ctx, room.ID, msg)

			default:
				s.sendWSError(c, "unknown event type")
			}
		}

		// Send welcome message
		welcome := notifications.ChatEvent{
			Type:    "connected",
			UserID:  userID,
			Payload: map[string]interface{}{"user_id": userID, "username": username},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}

// sendWSError emits a typed error event to a single client.
func (s *Server) sendWSError(c *notifications.Client, message string) {
	event := notifications.ChatEvent{
		Type:    "error",
		Payload: map[string]string{"message": message},
	}
	if eventJSON, err := json.Marshal(event); err == nil {
		c.TrySend(eventJSON)
	}
}
