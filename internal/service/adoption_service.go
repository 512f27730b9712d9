package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pawhome/internal/middleware"
	"pawhome/internal/models"
	"pawhome/internal/repository"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CreateRequestInput carries the validated payload for an adoption request.
type CreateRequestInput struct {
	ListingID      uint   `validate:"required"`
	RequesterID    uint   `validate:"required"`
	RequesterName  string `validate:"required,max=100"`
	RequesterEmail string `validate:"required,email"`
	RequesterPhone string `validate:"required,max=30"`
	Message        string `validate:"required,max=2000"`
}

// AdoptionService handles adoption request business logic, including the
// dual-confirmation completion workflow.
type AdoptionService interface {
	CreateRequest(ctx context.Context, in CreateRequestInput) (*models.AdoptionRequest, *models.ChatRoom, error)
	GetRequest(ctx context.Context, id uint) (*models.AdoptionRequest, error)
	ListMine(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error)
	ListReceived(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error)
	ConfirmCompletion(ctx context.Context, requestID, actorID uint) (*models.AdoptionRequest, bool, error)
}

type adoptionService struct {
	db       *gorm.DB
	requests repository.AdoptionRequestRepository
	listings repository.ListingRepository
	chats    repository.ChatRepository
	validate *validator.Validate
}

// NewAdoptionService creates a new adoption service. The db handle is used
// for the completion transaction; everything else goes through repositories.
func NewAdoptionService(
	db *gorm.DB,
	requests repository.AdoptionRequestRepository,
	listings repository.ListingRepository,
	chats repository.ChatRepository,
) AdoptionService {
	return &adoptionService{
		db:       db,
		requests: requests,
		listings: listings,
		chats:    chats,
		validate: validator.New(),
	}
}

// CreateRequest records the request and eagerly opens its chat room, seeding
// the room with the request message authored by the requester.
func (s *adoptionService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.AdoptionRequest, *models.ChatRoom, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}

	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewNotFoundError("listing", in.ListingID)
		}
		return nil, nil, err
	}
	if listing.UserID == in.RequesterID {
		return nil, nil, models.NewConflictError("you cannot request adoption of your own pet")
	}
	if listing.Status == models.ListingAdopted {
		return nil, nil, models.NewConflictError("this pet has already been adopted")
	}

	req := &models.AdoptionRequest{
		ListingID:      listing.ID,
		PetOwnerID:     listing.UserID,
		RequesterID:    in.RequesterID,
		RequesterName:  in.RequesterName,
		RequesterEmail: in.RequesterEmail,
		RequesterPhone: in.RequesterPhone,
		Message:        in.Message,
		Status:         models.RequestPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, nil, err
	}

	room := &models.ChatRoom{
		AdoptionRequestID: req.ID,
		ListingID:         listing.ID,
		PetOwnerID:        listing.UserID,
		AdopterID:         in.RequesterID,
		LastMessage:       in.Message,
		LastMessageTime:   time.Now().UTC(),
		IsActive:          true,
	}
	created, err := s.chats.CreateRoom(ctx, room)
	if err != nil {
		return nil, nil, err
	}
	if created {
		seed := &models.Message{
			ChatRoomID: room.ID,
			SenderID:   in.RequesterID,
			Content:    in.Message,
		}
		if err := s.chats.CreateMessage(ctx, seed); err != nil {
			return nil, nil, err
		}
	}
	if err := s.requests.SetChatRoom(ctx, req.ID, room.ID); err != nil {
		return nil, nil, err
	}
	req.ChatRoomID = &room.ID

	middleware.Logger.InfoContext(ctx, "adoption request created",
		slog.Uint64("request_id", uint64(req.ID)),
		slog.Uint64("listing_id", uint64(listing.ID)),
		slog.Uint64("chat_room_id", uint64(room.ID)),
	)
	return req, room, nil
}

func (s *adoptionService) GetRequest(ctx context.Context, id uint) (*models.AdoptionRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("adoption request", id)
		}
		return nil, err
	}
	return req, nil
}

func (s *adoptionService) ListMine(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error) {
	return s.requests.ListByRequester(ctx, userID)
}

func (s *adoptionService) ListReceived(ctx context.Context, userID uint) ([]*models.AdoptionRequest, error) {
	return s.requests.ListByOwner(ctx, userID)
}

// ConfirmCompletion records the acting party's confirmation. When both
// parties have confirmed, exactly one call transitions the request to
// Completed and runs the ownership transfer inside the same transaction.
// Re-confirming after completion is a harmless no-op. The returned bool is
// the request's final completed state.
func (s *adoptionService) ConfirmCompletion(ctx context.Context, requestID, actorID uint) (*models.AdoptionRequest, bool, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	if !req.IsParty(actorID) {
		return nil, false, models.NewForbiddenError("you are not a party to this adoption request")
	}
	asOwner := actorID == req.PetOwnerID

	justCompleted := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.SetConfirmationFlag(tx, req.ID, asOwner); err != nil {
			return err
		}
		done, err := repository.MarkCompleted(tx, req.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		justCompleted = true
		return s.transferOwnership(ctx, tx, req)
	})
	if err != nil {
		return nil, false, err
	}

	if justCompleted {
		middleware.Logger.InfoContext(ctx, "adoption completed, ownership transferred",
			slog.Uint64("request_id", uint64(req.ID)),
			slog.Uint64("listing_id", uint64(req.ListingID)),
			slog.Uint64("adopter_id", uint64(req.RequesterID)),
		)
	}

	updated, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	return updated, updated.AdoptionCompleted, nil
}

// transferOwnership moves the listing to the adopter, creates the adopter's
// tracker pet if one with the same name does not exist yet, and copies the
// listing's health records onto that pet. Record copies are deduplicated on
// (record type, date) so a replayed transfer never duplicates history.
// Pet and health record access goes through a tx-scoped repository so the
// whole transfer commits or rolls back as one unit.
func (s *adoptionService) transferOwnership(ctx context.Context, tx *gorm.DB, req *models.AdoptionRequest) error {
	var listing models.AdoptionListing
	if err := tx.First(&listing, req.ListingID).Error; err != nil {
		return err
	}

	err := tx.Model(&models.AdoptionListing{}).
		Where("id = ?", listing.ID).
		Updates(map[string]interface{}{
			"user_id": req.RequesterID,
			"status":  models.ListingAdopted,
		}).Error
	if err != nil {
		return err
	}

	pets := repository.NewPetRepository(tx)

	pet, err := pets.GetPetByOwnerAndName(ctx, req.RequesterID, listing.PetName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pet = &models.Pet{
			UserID:      req.RequesterID,
			Name:        listing.PetName,
			Breed:       listing.Breed,
			BirthDate:   listing.BirthDate,
			Weight:      listing.Weight,
			ImageURL:    listing.PhotoURL,
			Age:         listing.Age,
			Species:     listing.Species,
			Description: listing.Description,
		}
		if err := pets.CreatePet(ctx, pet); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	records, err := pets.ListHealthRecordsByListing(ctx, listing.ID)
	if err != nil {
		return err
	}
	existing, err := pets.ListHealthRecordsByPet(ctx, pet.ID)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec.RecordType+"|"+rec.Date.UTC().Format(time.RFC3339)] = struct{}{}
	}
	for _, rec := range records {
		key := rec.RecordType + "|" + rec.Date.UTC().Format(time.RFC3339)
		if _, ok := seen[key]; ok {
			continue
		}
		copied := &models.HealthRecord{
			UserID:       req.RequesterID,
			PetID:        &pet.ID,
			RecordType:   rec.RecordType,
			Date:         rec.Date,
			Veterinarian: rec.Veterinarian,
			NextDueDate:  rec.NextDueDate,
		}
		if err := pets.CreateHealthRecord(ctx, copied); err != nil {
			return err
		}
	}
	return nil
}
