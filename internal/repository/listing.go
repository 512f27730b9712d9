package repository

import (
	"context"

	"pawhome/internal/models"

	"gorm.io/gorm"
)

// ListingRepository defines the interface for adoption listing data operations.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.AdoptionListing) error
	GetByID(ctx context.Context, id uint) (*models.AdoptionListing, error)
	ListAvailable(ctx context.Context) ([]*models.AdoptionListing, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.AdoptionListing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.AdoptionListing, error) {
	var listing models.AdoptionListing
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) ListAvailable(ctx context.Context) ([]*models.AdoptionListing, error) {
	var listings []*models.AdoptionListing
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ListingAvailable).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}
