package repository

import (
	"context"

	"pawhome/internal/models"

	"gorm.io/gorm"
)

// PetRepository defines the interface for pet tracker and health record data operations.
type PetRepository interface {
	CreatePet(ctx context.Context, pet *models.Pet) error
	GetPetByID(ctx context.Context, id uint) (*models.Pet, error)
	GetPetByOwnerAndName(ctx context.Context, ownerID uint, name string) (*models.Pet, error)
	ListPetsByOwner(ctx context.Context, ownerID uint) ([]*models.Pet, error)

	CreateHealthRecord(ctx context.Context, rec *models.HealthRecord) error
	ListHealthRecordsByListing(ctx context.Context, listingID uint) ([]*models.HealthRecord, error)
	ListHealthRecordsByPet(ctx context.Context, petID uint) ([]*models.HealthRecord, error)
}

type petRepository struct {
	db *gorm.DB
}

// NewPetRepository creates a new pet repository.
func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) CreatePet(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Create(pet).Error
}

func (r *petRepository) GetPetByID(ctx context.Context, id uint) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).First(&pet, id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *petRepository) GetPetByOwnerAndName(ctx context.Context, ownerID uint, name string) (*models.Pet, error) {
	var pet models.Pet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", ownerID, name).
		First(&pet).Error
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *petRepository) ListPetsByOwner(ctx context.Context, ownerID uint) ([]*models.Pet, error) {
	var pets []*models.Pet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&pets).Error
	return pets, err
}

func (r *petRepository) CreateHealthRecord(ctx context.Context, rec *models.HealthRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *petRepository) ListHealthRecordsByListing(ctx context.Context, listingID uint) ([]*models.HealthRecord, error) {
	var records []*models.HealthRecord
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("date ASC").
		Find(&records).Error
	return records, err
}

func (r *petRepository) ListHealthRecordsByPet(ctx context.Context, petID uint) ([]*models.HealthRecord, error) {
	var records []*models.HealthRecord
	err := r.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("date ASC").
		Find(&records).Error
	return records, err
}
