package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pawhome/internal/middleware"
	"pawhome/internal/models"
	"pawhome/internal/repository"

	"gorm.io/gorm"
)

const maxMessageLength = 2000

// ListMessagesInput parameterizes a history fetch. Page/Limit select classic
// page-number paging; setting BeforeTime and BeforeID switches to cursor
// paging, which stays stable while new messages arrive.
type ListMessagesInput struct {
	RoomID     uint
	UserID     uint
	Page       int
	Limit      int
	BeforeTime time.Time
	BeforeID   uint
}

// MessagePage is one page of chat history in chronological order.
type MessagePage struct {
	Messages   []*models.Message `json:"messages"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// ChatService handles chat room and message business logic. Every operation
// checks the caller's room membership before touching data.
type ChatService interface {
	GetOrCreateRoom(ctx context.Context, requestID, userID uint) (*models.ChatRoom, error)
	GetRoomForUser(ctx context.Context, roomID, userID uint) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, userID uint) ([]*models.ChatRoom, error)
	DeleteRoom(ctx context.Context, roomID, userID uint) error
	SendMessage(ctx context.Context, roomID, senderID uint, content string) (*models.Message, *models.ChatRoom, error)
	ListMessages(ctx context.Context, in ListMessagesInput) (*MessagePage, error)
}

type chatService struct {
	chats    repository.ChatRepository
	requests repository.AdoptionRequestRepository
	users    repository.UserRepository
}

// NewChatService creates a new chat service.
func NewChatService(
	chats repository.ChatRepository,
	requests repository.AdoptionRequestRepository,
	users repository.UserRepository,
) ChatService {
	return &chatService{
		chats:    chats,
		requests: requests,
		users:    users,
	}
}

// GetOrCreateRoom returns the room for an adoption request, creating it on
// first access. Creation seeds the room with the original request message;
// losing the creation race to a concurrent caller returns the winner's room
// without seeding anything.
func (s *chatService) GetOrCreateRoom(ctx context.Context, requestID, userID uint) (*models.ChatRoom, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("adoption request", requestID)
		}
		return nil, err
	}
	if !req.IsParty(userID) {
		return nil, models.NewForbiddenError("you are not a party to this adoption request")
	}

	room, err := s.chats.GetRoomByRequestID(ctx, requestID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	room = &models.ChatRoom{
		AdoptionRequestID: req.ID,
		ListingID:         req.ListingID,
		PetOwnerID:        req.PetOwnerID,
		AdopterID:         req.RequesterID,
		LastMessage:       req.Message,
		LastMessageTime:   time.Now().UTC(),
		IsActive:          true,
	}
	created, err := s.chats.CreateRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	if created {
		if req.Message != "" {
			seed := &models.Message{
				ChatRoomID: room.ID,
				SenderID:   req.RequesterID,
				Content:    req.Message,
			}
			if err := s.chats.CreateMessage(ctx, seed); err != nil {
				return nil, err
			}
		}
		if err := s.requests.SetChatRoom(ctx, req.ID, room.ID); err != nil {
			return nil, err
		}
	}

	return s.chats.GetRoom(ctx, room.ID)
}

func (s *chatService) GetRoomForUser(ctx context.Context, roomID, userID uint) (*models.ChatRoom, error) {
	room, err := s.chats.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("chat room", roomID)
		}
		return nil, err
	}
	if !room.IsMember(userID) {
		return nil, models.NewForbiddenError("you are not a member of this chat room")
	}
	return room, nil
}

func (s *chatService) ListRooms(ctx context.Context, userID uint) ([]*models.ChatRoom, error) {
	return s.chats.ListRoomsForUser(ctx, userID)
}

// DeleteRoom removes a room and all of its messages.
func (s *chatService) DeleteRoom(ctx context.Context, roomID, userID uint) error {
	if _, err := s.GetRoomForUser(ctx, roomID, userID); err != nil {
		return err
	}
	if err := s.chats.DeleteRoomWithMessages(ctx, roomID); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "chat room deleted",
		slog.Uint64("chat_room_id", uint64(roomID)),
		slog.Uint64("user_id", uint64(userID)),
	)
	return nil
}

// SendMessage persists the message and updates the room's denormalized
// last-message fields. Broadcast to live subscribers is the caller's job;
// persistence never depends on delivery.
func (s *chatService) SendMessage(ctx context.Context, roomID, senderID uint, content string) (*models.Message, *models.ChatRoom, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, models.NewValidationError("message content cannot be empty")
	}
	if len(content) > maxMessageLength {
		return nil, nil, models.NewValidationError("message content is too long")
	}

	room, err := s.GetRoomForUser(ctx, roomID, senderID)
	if err != nil {
		return nil, nil, err
	}

	msg := &models.Message{
		ChatRoomID: room.ID,
		SenderID:   senderID,
		Content:    content,
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, nil, err
	}
	if err := s.chats.TouchRoom(ctx, room.ID, content, msg.CreatedAt); err != nil {
		return nil, nil, err
	}
	room.LastMessage = content
	room.LastMessageTime = msg.CreatedAt

	// Attach the sender for broadcast payloads. Best-effort.
	if sender, err := s.users.GetByID(ctx, senderID); err == nil {
		msg.Sender = sender
	}
	return msg, room, nil
}

// ListMessages returns one page of history in chronological order and marks
// the other party's messages as read.
func (s *chatService) ListMessages(ctx context.Context, in ListMessagesInput) (*MessagePage, error) {
	if _, err := s.GetRoomForUser(ctx, in.RoomID, in.UserID); err != nil {
		return nil, err
	}

	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 50
	}

	total, err := s.chats.CountMessages(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	var messages []*models.Message
	if in.BeforeID > 0 && !in.BeforeTime.IsZero() {
		messages, err = s.chats.ListMessagesBefore(ctx, in.RoomID, in.BeforeTime, in.BeforeID, in.Limit)
	} else {
		messages, err = s.chats.ListMessagesPage(ctx, in.RoomID, in.Page, in.Limit)
	}
	if err != nil {
		return nil, err
	}

	// Fetched newest-first; present oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if err := s.chats.MarkMessagesRead(ctx, in.RoomID, in.UserID); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(in.Limit) - 1) / int64(in.Limit))
	return &MessagePage{
		Messages:   messages,
		Total:      total,
		Page:       in.Page,
		TotalPages: totalPages,
	}, nil
}
