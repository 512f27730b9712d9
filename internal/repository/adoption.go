package repository

import (
	"context"
	"time"

	"pawhome/internal/models"

	"gorm.io/gorm"
)

// AdoptionRequestRepository defines the interface for adoption request data operations.
type AdoptionRequestRepository interface {
	Create(ctx context.Context, req *models.AdoptionRequest) error
	GetByID(ctx context.Context, id uint) (*models.AdoptionRequest, error)
	ListByRequester(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error)
	ListByOwner(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error)
	SetChatRoom(ctx context.Context, requestID, roomID uint) error
}

type adoptionRequestRepository struct {
	db *gorm.DB
}

// NewAdoptionRequestRepository creates a new adoption request repository.
func NewAdoptionRequestRepository(db *gorm.DB) AdoptionRequestRepository {
	return &adoptionRequestRepository{db: db}
}

func (r *adoptionRequestRepository) Create(ctx context.Context, req *models.AdoptionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *adoptionRequestRepository) GetByID(ctx context.Context, id uint) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("PetOwner").
		Preload("Requester").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *adoptionRequestRepository) ListByRequester(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error) {
	var requests []*models.AdoptionRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", userID).
		Preload("Listing").
		Preload("PetOwner").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *adoptionRequestRepository) ListByOwner(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error) {
	var requests []*models.AdoptionRequest
	err := r.db.WithContext(ctx).
		Where("pet_owner_id = ?", userID).
		Preload("Listing").
		Preload("Requester").
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *adoptionRequestRepository) SetChatRoom(ctx context.Context, requestID, roomID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("id = ?", requestID).
		Update("chat_room_id", roomID).Error
}

// SetConfirmationFlag records one party's completion confirmation. The update
// is unconditional and idempotent; re-confirming the same role is a no-op.
func SetConfirmationFlag(tx *gorm.DB, requestID uint, byOwner bool) error {
	column := "completed_by_adopter"
	if byOwner {
		column = "completed_by_owner"
	}
	return tx.Model(&models.AdoptionRequest{}).
		Where("id = ?", requestID).
		Update(column, true).Error
}

// MarkCompleted is the compare-and-set that closes the dual-confirmation
// race: it transitions the request to Completed only if it is still Pending,
// both flags are set, and completion has not already been recorded. Exactly
// one concurrent caller observes RowsAffected == 1, and only that caller runs
// the ownership transfer.
func MarkCompleted(tx *gorm.DB, requestID uint, at time.Time) (bool, error) {
	res := tx.Model(&models.AdoptionRequest{}).
		Where("id = ? AND status = ? AND completed_by_owner = ? AND completed_by_adopter = ? AND adoption_completed = ?",
			requestID, models.RequestPending, true, true, false).
		Updates(map[string]interface{}{
			"adoption_completed": true,
			"completed_at":       at,
			"status":             models.RequestCompleted,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
