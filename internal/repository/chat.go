package repository

import (
	"context"
	"time"

	"pawhome/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat room and message data operations.
type ChatRepository interface {
	// CreateRoom inserts the room, tolerating a concurrent insert for the
	// same adoption request. It returns true when this call created the row;
	// false means another caller won the race and room has been reloaded
	// with the winner's row.
	CreateRoom(ctx context.Context, room *models.ChatRoom) (bool, error)
	GetRoom(ctx context.Context, id uint) (*models.ChatRoom, error)
	GetRoomByRequestID(ctx context.Context, requestID uint) (*models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID uint) ([]*models.ChatRoom, error)
	DeleteRoomWithMessages(ctx context.Context, roomID uint) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	TouchRoom(ctx context.Context, roomID uint, lastMessage string, at time.Time) error
	CountMessages(ctx context.Context, roomID uint) (int64, error)
	ListMessagesPage(ctx context.Context, roomID uint, page, limit int) ([]*models.Message, error)
	ListMessagesBefore(ctx context.Context, roomID uint, beforeTime time.Time, beforeID uint, limit int) ([]*models.Message, error)
	MarkMessagesRead(ctx context.Context, roomID, readerID uint) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateRoom(ctx context.Context, room *models.ChatRoom) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "adoption_request_id"}},
			DoNothing: true,
		}).
		Create(room)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// Conflict: a room for this request already exists. Surface that row.
	existing, err := r.GetRoomByRequestID(ctx, room.AdoptionRequestID)
	if err != nil {
		return false, err
	}
	*room = *existing
	return false, nil
}

func (r *chatRepository) GetRoom(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("PetOwner").
		Preload("Adopter").
		First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRepository) GetRoomByRequestID(ctx context.Context, requestID uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("PetOwner").
		Preload("Adopter").
		Where("adoption_request_id = ?", requestID).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRepository) ListRoomsForUser(ctx context.Context, userID uint) ([]*models.ChatRoom, error) {
	var rooms []*models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("(pet_owner_id = ? OR adopter_id = ?) AND is_active = ?", userID, userID, true).
		Preload("Listing").
		Preload("PetOwner").
		Preload("Adopter").
		Order("last_message_time DESC").
		Find(&rooms).Error
	return rooms, err
}

func (r *chatRepository) DeleteRoomWithMessages(ctx context.Context, roomID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_room_id = ?", roomID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ChatRoom{}, roomID).Error
	})
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepository) TouchRoom(ctx context.Context, roomID uint, lastMessage string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message":      lastMessage,
			"last_message_time": at,
		}).Error
}

func (r *chatRepository) CountMessages(ctx context.Context, roomID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_room_id = ?", roomID).
		Count(&total).Error
	return total, err
}

// ListMessagesPage returns one page of messages ordered newest first. The id
// tiebreaker keeps pages stable when messages share a creation timestamp.
func (r *chatRepository) ListMessagesPage(ctx context.Context, roomID uint, page, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Preload("Sender").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// ListMessagesBefore returns up to limit messages strictly older than the
// (beforeTime, beforeID) cursor, newest first. Cursor paging stays stable
// while new messages arrive at the head of the room.
func (r *chatRepository) ListMessagesBefore(ctx context.Context, roomID uint, beforeTime time.Time, beforeID uint, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ? AND (created_at < ? OR (created_at = ? AND id < ?))",
			roomID, beforeTime, beforeTime, beforeID).
		Preload("Sender").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) MarkMessagesRead(ctx context.Context, roomID, readerID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_room_id = ? AND sender_id <> ? AND is_read = ?", roomID, readerID, false).
		Update("is_read", true).Error
}
