package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"pawhome/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes chat events into Redis channels so every server
// instance sees them. A nil Redis client turns every publish into a no-op;
// single-instance deployments then rely on direct hub broadcasts.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether a Redis backend is configured.
func (n *Notifier) Enabled() bool {
	return n.rdb != nil
}

// PublishRoomMessage publishes a chat event to a room channel.
func (n *Notifier) PublishRoomMessage(ctx context.Context, roomID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, RoomChannel(roomID), payload).Err()
}

// PublishTyping publishes a typing indicator to a room channel.
func (n *Notifier) PublishTyping(
	ctx context.Context, roomID, userID uint, username string, isTyping bool,
) error {
	if n.rdb == nil {
		return nil
	}
	event := ChatEvent{
		Type:     "user_typing",
		RoomID:   roomID,
		UserID:   userID,
		Username: username,
		Payload: map[string]interface{}{
			"is_typing":     isTyping,
			"expires_in_ms": 5000,
		},
	}
	payloadJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, TypingChannel(roomID), string(payloadJSON)).Err()
}

// StartChatSubscriber subscribes to chat:room:* and typing:room:* and calls
// onMessage for each incoming message. Handler panics are contained so one
// bad payload cannot kill the subscriber goroutine.
func (n *Notifier) StartChatSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:room:*", "typing:room:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in chat subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// RoomChannel derives the Redis channel name for a chat room.
func RoomChannel(roomID uint) string {
	return "chat:room:" + strconv.FormatUint(uint64(roomID), 10)
}

// TypingChannel derives the Redis channel name for a room's typing events.
func TypingChannel(roomID uint) string {
	return "typing:room:" + strconv.FormatUint(uint64(roomID), 10)
}
