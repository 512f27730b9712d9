// Package notifications provides the live chat channel: websocket clients,
// the in-process room hub, and the Redis fan-out between instances.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"pawhome/internal/middleware"
	"pawhome/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// maxConnsPerUser caps concurrent websocket connections per user (multiple
// devices/tabs are expected, unbounded fan-in is not).
const maxConnsPerUser = 8

// ChatEvent is the envelope for everything sent over the live channel.
type ChatEvent struct {
	Type     string      `json:"type"` // "new_message", "user_typing", "joined", "connected", "error"
	RoomID   uint        `json:"room_id,omitempty"`
	UserID   uint        `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// ChatHub manages websocket connections per chat room. It is room-centric:
// a user subscribes to rooms explicitly after membership has been verified,
// and broadcasts address a room, not a user.
type ChatHub struct {
	mu sync.RWMutex

	// roomID -> set of subscribed userIDs
	rooms map[uint]map[uint]struct{}

	// userID -> set of roomIDs the user is subscribed to
	userRooms map[uint]map[uint]struct{}

	// userID -> active clients (multi-device support)
	userConns map[uint]map[*Client]bool
}

// NewChatHub creates a new ChatHub instance.
func NewChatHub() *ChatHub {
	return &ChatHub{
		rooms:     make(map[uint]map[uint]struct{}),
		userRooms: make(map[uint]map[uint]struct{}),
		userConns: make(map[uint]map[*Client]bool),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// Register registers a user's websocket connection. Returns an error when the
// per-user connection limit is exceeded.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true
	active := len(h.userConns[userID])
	h.mu.Unlock()

	middleware.Logger.Info("chat hub registered client",
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("active_clients", active),
	)
	return client, nil
}

// UnregisterClient removes one connection. Room subscriptions are torn down
// only when the user's last connection goes away.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	if len(clients) > 0 {
		remaining := len(clients)
		h.mu.Unlock()
		middleware.Logger.Info("chat hub unregistered client",
			slog.Uint64("user_id", uint64(client.UserID)),
			slog.Int("remaining_clients", remaining),
		)
		return
	}
	delete(h.userConns, client.UserID)

	// Last connection gone: drop all room subscriptions.
	if roomIDs, ok := h.userRooms[client.UserID]; ok {
		for roomID := range roomIDs {
			h.removeFromRoomLocked(client.UserID, roomID)
		}
		delete(h.userRooms, client.UserID)
	}
	h.mu.Unlock()

	middleware.Logger.Info("chat hub unregistered user",
		slog.Uint64("user_id", uint64(client.UserID)),
	)
}

func (h *ChatHub) removeFromRoomLocked(userID, roomID uint) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, userID)
		observability.WebSocketRoomConnections.
			WithLabelValues(strconv.FormatUint(uint64(roomID), 10)).
			Set(float64(len(members)))
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// JoinRoom subscribes a connected user to a room's events. Callers must have
// verified room membership against storage before calling this.
func (h *ChatHub) JoinRoom(userID, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userConns[userID]; !ok {
		return
	}

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[uint]struct{})
	}
	h.rooms[roomID][userID] = struct{}{}

	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[uint]struct{})
	}
	h.userRooms[userID][roomID] = struct{}{}

	observability.WebSocketRoomConnections.
		WithLabelValues(strconv.FormatUint(uint64(roomID), 10)).
		Set(float64(len(h.rooms[roomID])))
}

// LeaveRoom unsubscribes a user from a room.
func (h *ChatHub) LeaveRoom(userID, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(userID, roomID)
	if roomIDs, ok := h.userRooms[userID]; ok {
		delete(roomIDs, roomID)
	}
}

// IsUserOnline returns true when the user has at least one active client.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// RoomSubscribers returns the userIDs currently subscribed to a room.
func (h *ChatHub) RoomSubscribers(roomID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return []uint{}
	}
	result := make([]uint, 0, len(members))
	for userID := range members {
		result = append(result, userID)
	}
	return result
}

// BroadcastToRoom sends an event to every subscribed member of a room.
func (h *ChatHub) BroadcastToRoom(roomID uint, event ChatEvent) {
	h.broadcast(roomID, event, 0)
}

// BroadcastToRoomExcept sends an event to every subscribed member of a room
// except the given user. Senders already hold the message locally; echoing it
// back only creates duplicates.
func (h *ChatHub) BroadcastToRoomExcept(roomID, exceptUserID uint, event ChatEvent) {
	h.broadcast(roomID, event, exceptUserID)
}

func (h *ChatHub) broadcast(roomID uint, event ChatEvent, exceptUserID uint) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.Error("chat hub failed to marshal event",
			slog.String("error", err.Error()),
		)
		return
	}

	for userID := range members {
		if exceptUserID != 0 && userID == exceptUserID {
			continue
		}
		if clients, ok := h.userConns[userID]; ok {
			for client := range clients {
				client.TrySend(eventJSON)
			}
		}
	}
	observability.MessageThroughput.WithLabelValues(event.Type).Inc()
}

// StartWiring connects the hub to Redis pub/sub so events published by any
// instance reach this instance's subscribers. Events carry the origin user;
// fan-out excludes them so the sender's own instance does not echo.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, h.deliverFromChannel)
}

// deliverFromChannel maps a pub/sub channel and payload onto a local room
// broadcast.
func (h *ChatHub) deliverFromChannel(channel, payload string) {
	var roomID uint
	var eventType string

	if _, err := fmt.Sscanf(channel, "chat:room:%d", &roomID); err == nil {
		eventType = "new_message"
	} else if _, err := fmt.Sscanf(channel, "typing:room:%d", &roomID); err == nil {
		eventType = "user_typing"
	} else {
		middleware.Logger.Warn("chat hub received unknown channel",
			slog.String("channel", channel),
		)
		return
	}

	var event ChatEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		middleware.Logger.Warn("chat hub failed to parse event",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if event.Type == "" {
		event.Type = eventType
	}
	event.RoomID = roomID

	h.BroadcastToRoomExcept(roomID, event.UserID, event)
}

// Shutdown gracefully closes all websocket connections. WritePump owns the
// connection's write side, so the notice goes through the send channel and
// closing it makes WritePump emit the close frame itself.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	notice := []byte(`{"type":"server_shutdown","payload":{"message":"Server is shutting down"}}`)
	for _, clients := range h.userConns {
		for client := range clients {
			client.TrySend(notice)
			close(client.Send)
		}
	}

	h.rooms = make(map[uint]map[uint]struct{})
	h.userRooms = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]bool)
	return nil
}
