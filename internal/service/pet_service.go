package service

import (
	"context"
	"errors"

	"pawhome/internal/models"
	"pawhome/internal/repository"

	"gorm.io/gorm"
)

// PetService exposes the post-adoption tracker data produced by completed
// adoptions.
type PetService interface {
	ListPets(ctx context.Context, userID uint) ([]*models.Pet, error)
	ListHealthRecords(ctx context.Context, userID, petID uint) ([]*models.HealthRecord, error)
}

type petService struct {
	pets repository.PetRepository
}

// NewPetService creates a new pet service.
func NewPetService(pets repository.PetRepository) PetService {
	return &petService{pets: pets}
}

func (s *petService) ListPets(ctx context.Context, userID uint) ([]*models.Pet, error) {
	return s.pets.ListPetsByOwner(ctx, userID)
}

func (s *petService) ListHealthRecords(ctx context.Context, userID, petID uint) ([]*models.HealthRecord, error) {
	pet, err := s.pets.GetPetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("pet", petID)
		}
		return nil, err
	}
	if pet.UserID != userID {
		return nil, models.NewForbiddenError("you do not own this pet")
	}
	return s.pets.ListHealthRecordsByPet(ctx, petID)
}
