// Package service contains the application's business logic.
package service

import (
	"context"
	"errors"
	"time"

	"pawhome/internal/models"
	"pawhome/internal/repository"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CreateListingInput carries the validated payload for posting a pet.
type CreateListingInput struct {
	UserID      uint       `validate:"required"`
	PetName     string     `validate:"required,max=100"`
	Species     string     `validate:"required,max=50"`
	Breed       string     `validate:"max=100"`
	Age         int        `validate:"gte=0"`
	Gender      string     `validate:"omitempty,oneof=Male Female Unknown"`
	Description string     `validate:"max=2000"`
	City        string     `validate:"required,max=100"`
	State       string     `validate:"required,max=100"`
	PhotoURL    string     `validate:"omitempty,url"`
	BirthDate   *time.Time `validate:"-"`
	Weight      float64    `validate:"gte=0"`

	DonatorName  string `validate:"required,max=100"`
	DonatorEmail string `validate:"required,email"`
	DonatorPhone string `validate:"required,max=30"`
}

// ListingService handles adoption listing business logic.
type ListingService interface {
	CreateListing(ctx context.Context, in CreateListingInput) (*models.AdoptionListing, error)
	GetListing(ctx context.Context, id uint) (*models.AdoptionListing, error)
	ListAvailable(ctx context.Context) ([]*models.AdoptionListing, error)
}

type listingService struct {
	listings repository.ListingRepository
	validate *validator.Validate
}

// NewListingService creates a new listing service.
func NewListingService(listings repository.ListingRepository) ListingService {
	return &listingService{
		listings: listings,
		validate: validator.New(),
	}
}

func (s *listingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.AdoptionListing, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	listing := &models.AdoptionListing{
		UserID:       in.UserID,
		PetName:      in.PetName,
		Species:      in.Species,
		Breed:        in.Breed,
		Age:          in.Age,
		Gender:       in.Gender,
		Description:  in.Description,
		City:         in.City,
		State:        in.State,
		PhotoURL:     in.PhotoURL,
		BirthDate:    in.BirthDate,
		Weight:       in.Weight,
		DonatorName:  in.DonatorName,
		DonatorEmail: in.DonatorEmail,
		DonatorPhone: in.DonatorPhone,
		Status:       models.ListingAvailable,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *listingService) GetListing(ctx context.Context, id uint) (*models.AdoptionListing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("listing", id)
		}
		return nil, err
	}
	return listing, nil
}

func (s *listingService) ListAvailable(ctx context.Context) ([]*models.AdoptionListing, error) {
	return s.listings.ListAvailable(ctx)
}
