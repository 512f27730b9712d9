package service

import (
	"context"
	"testing"
	"time"

	"pawhome/internal/database"
	"pawhome/internal/models"
	"pawhome/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type adoptionFixture struct {
	db       *gorm.DB
	adoption AdoptionService
	chat     ChatService
	owner    *models.User
	adopter  *models.User
	listing  *models.AdoptionListing
}

func setupAdoptionTest(t *testing.T) *adoptionFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	requestRepo := repository.NewAdoptionRequestRepository(db)
	chatRepo := repository.NewChatRepository(db)

	owner := &models.User{Name: "Olivia Owner", Email: "olivia@example.com"}
	adopter := &models.User{Name: "Adam Adopter", Email: "adam@example.com"}
	require.NoError(t, userRepo.Create(context.Background(), owner))
	require.NoError(t, userRepo.Create(context.Background(), adopter))

	listing := &models.AdoptionListing{
		UserID:       owner.ID,
		PetName:      "Biscuit",
		Species:      "Dog",
		Breed:        "Beagle",
		Age:          3,
		City:         "Austin",
		State:        "TX",
		DonatorName:  "Olivia Owner",
		DonatorEmail: "olivia@example.com",
		DonatorPhone: "555-0101",
		Status:       models.ListingAvailable,
	}
	require.NoError(t, listingRepo.Create(context.Background(), listing))

	return &adoptionFixture{
		db:       db,
		adoption: NewAdoptionService(db, requestRepo, listingRepo, chatRepo),
		chat:     NewChatService(chatRepo, requestRepo, userRepo),
		owner:    owner,
		adopter:  adopter,
		listing:  listing,
	}
}

func (f *adoptionFixture) createRequest(t *testing.T) *models.AdoptionRequest {
	t.Helper()
	req, _, err := f.adoption.CreateRequest(context.Background(), CreateRequestInput{
		ListingID:      f.listing.ID,
		RequesterID:    f.adopter.ID,
		RequesterName:  "Adam Adopter",
		RequesterEmail: "adam@example.com",
		RequesterPhone: "555-0202",
		Message:        "I would love to adopt Biscuit!",
	})
	require.NoError(t, err)
	return req
}

func TestCreateRequest_OpensSeededChatRoom(t *testing.T) {
	f := setupAdoptionTest(t)

	req, room, err := f.adoption.CreateRequest(context.Background(), CreateRequestInput{
		ListingID:      f.listing.ID,
		RequesterID:    f.adopter.ID,
		RequesterName:  "Adam Adopter",
		RequesterEmail: "adam@example.com",
		RequesterPhone: "555-0202",
		Message:        "I would love to adopt Biscuit!",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, f.owner.ID, req.PetOwnerID)
	require.NotNil(t, req.ChatRoomID)
	assert.Equal(t, room.ID, *req.ChatRoomID)

	assert.Equal(t, "I would love to adopt Biscuit!", room.LastMessage)
	assert.True(t, room.IsActive)

	var messages []models.Message
	require.NoError(t, f.db.Where("chat_room_id = ?", room.ID).Find(&messages).Error)
	require.Len(t, messages, 1)
	assert.Equal(t, f.adopter.ID, messages[0].SenderID)
	assert.Equal(t, "I would love to adopt Biscuit!", messages[0].Content)
}

func TestCreateRequest_OwnListingRejected(t *testing.T) {
	f := setupAdoptionTest(t)

	_, _, err := f.adoption.CreateRequest(context.Background(), CreateRequestInput{
		ListingID:      f.listing.ID,
		RequesterID:    f.owner.ID,
		RequesterName:  "Olivia Owner",
		RequesterEmail: "olivia@example.com",
		RequesterPhone: "555-0101",
		Message:        "my own pet",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, err.(*models.AppError).Code)
}

func TestCreateRequest_MissingFields(t *testing.T) {
	f := setupAdoptionTest(t)

	_, _, err := f.adoption.CreateRequest(context.Background(), CreateRequestInput{
		ListingID:   f.listing.ID,
		RequesterID: f.adopter.ID,
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)
}

func TestCreateRequest_ListingNotFound(t *testing.T) {
	f := setupAdoptionTest(t)

	_, _, err := f.adoption.CreateRequest(context.Background(), CreateRequestInput{
		ListingID:      9999,
		RequesterID:    f.adopter.ID,
		RequesterName:  "Adam Adopter",
		RequesterEmail: "adam@example.com",
		RequesterPhone: "555-0202",
		Message:        "hello",
	})
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, err.(*models.AppError).Code)
}

func TestConfirmCompletion_RequiresBothParties(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	updated, completed, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.owner.ID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.True(t, updated.CompletedByOwner)
	assert.False(t, updated.CompletedByAdopter)
	assert.Equal(t, models.RequestPending, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	// Listing untouched until both sides confirm.
	var listing models.AdoptionListing
	require.NoError(t, f.db.First(&listing, f.listing.ID).Error)
	assert.Equal(t, f.owner.ID, listing.UserID)
	assert.Equal(t, models.ListingAvailable, listing.Status)
}

func TestConfirmCompletion_SecondConfirmationTransfers(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	_, _, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.owner.ID)
	require.NoError(t, err)

	updated, completed, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.adopter.ID)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.True(t, updated.AdoptionCompleted)
	assert.Equal(t, models.RequestCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	var listing models.AdoptionListing
	require.NoError(t, f.db.First(&listing, f.listing.ID).Error)
	assert.Equal(t, f.adopter.ID, listing.UserID)
	assert.Equal(t, models.ListingAdopted, listing.Status)

	var pets []models.Pet
	require.NoError(t, f.db.Where("user_id = ?", f.adopter.ID).Find(&pets).Error)
	require.Len(t, pets, 1)
	assert.Equal(t, "Biscuit", pets[0].Name)
	assert.Equal(t, "Beagle", pets[0].Breed)
}

func TestConfirmCompletion_OrderIndependent(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	// Adopter first this time.
	_, completed, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.adopter.ID)
	require.NoError(t, err)
	assert.False(t, completed)

	_, completed, err = f.adoption.ConfirmCompletion(context.Background(), req.ID, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestConfirmCompletion_IdempotentAfterCompletion(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	_, _, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.owner.ID)
	require.NoError(t, err)
	first, _, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.adopter.ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	// Replay both confirmations; nothing changes and nothing duplicates.
	for _, actor := range []uint{f.owner.ID, f.adopter.ID} {
		again, completed, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, actor)
		require.NoError(t, err)
		assert.True(t, completed)
		assert.Equal(t, first.CompletedAt.Unix(), again.CompletedAt.Unix())
	}

	var petCount int64
	require.NoError(t, f.db.Model(&models.Pet{}).Where("user_id = ?", f.adopter.ID).Count(&petCount).Error)
	assert.Equal(t, int64(1), petCount)
}

func TestConfirmCompletion_ThirdPartyForbidden(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	stranger := &models.User{Name: "Sam Stranger", Email: "sam@example.com"}
	require.NoError(t, f.db.Create(stranger).Error)

	_, _, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, stranger.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, err.(*models.AppError).Code)
}

func TestConfirmCompletion_CopiesHealthRecords(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	recordDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(&models.HealthRecord{
		UserID:       f.owner.ID,
		ListingID:    &f.listing.ID,
		RecordType:   "Vaccination",
		Date:         recordDate,
		Veterinarian: "Dr. Patel",
	}).Error)
	require.NoError(t, f.db.Create(&models.HealthRecord{
		UserID:     f.owner.ID,
		ListingID:  &f.listing.ID,
		RecordType: "Checkup",
		Date:       recordDate,
	}).Error)

	_, _, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.owner.ID)
	require.NoError(t, err)
	_, _, err = f.adoption.ConfirmCompletion(context.Background(), req.ID, f.adopter.ID)
	require.NoError(t, err)

	var pet models.Pet
	require.NoError(t, f.db.Where("user_id = ? AND name = ?", f.adopter.ID, "Biscuit").First(&pet).Error)

	var copies []models.HealthRecord
	require.NoError(t, f.db.Where("pet_id = ?", pet.ID).Find(&copies).Error)
	assert.Len(t, copies, 2)
	for _, rec := range copies {
		assert.Equal(t, f.adopter.ID, rec.UserID)
	}

	// Originals stay attached to the listing.
	var originals int64
	require.NoError(t, f.db.Model(&models.HealthRecord{}).
		Where("listing_id = ?", f.listing.ID).Count(&originals).Error)
	assert.Equal(t, int64(2), originals)
}

func TestConfirmCompletion_ReusesExistingPetByName(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	existing := &models.Pet{UserID: f.adopter.ID, Name: "Biscuit", Species: "Dog"}
	require.NoError(t, f.db.Create(existing).Error)

	// The pet already carries one of the listing's records; the transfer
	// must only copy the missing one.
	recordDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(&models.HealthRecord{
		UserID:     f.adopter.ID,
		PetID:      &existing.ID,
		RecordType: "Vaccination",
		Date:       recordDate,
	}).Error)
	require.NoError(t, f.db.Create(&models.HealthRecord{
		UserID:     f.owner.ID,
		ListingID:  &f.listing.ID,
		RecordType: "Vaccination",
		Date:       recordDate,
	}).Error)
	require.NoError(t, f.db.Create(&models.HealthRecord{
		UserID:     f.owner.ID,
		ListingID:  &f.listing.ID,
		RecordType: "Checkup",
		Date:       recordDate,
	}).Error)

	_, _, err := f.adoption.ConfirmCompletion(context.Background(), req.ID, f.owner.ID)
	require.NoError(t, err)
	_, _, err = f.adoption.ConfirmCompletion(context.Background(), req.ID, f.adopter.ID)
	require.NoError(t, err)

	var petCount int64
	require.NoError(t, f.db.Model(&models.Pet{}).
		Where("user_id = ? AND name = ?", f.adopter.ID, "Biscuit").Count(&petCount).Error)
	assert.Equal(t, int64(1), petCount)

	var records []models.HealthRecord
	require.NoError(t, f.db.Where("pet_id = ?", existing.ID).Find(&records).Error)
	assert.Len(t, records, 2)
}

func TestMarkCompleted_OnlyOneWinner(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	require.NoError(t, f.db.Model(&models.AdoptionRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"completed_by_owner":   true,
			"completed_by_adopter": true,
		}).Error)

	won, err := repository.MarkCompleted(f.db, req.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, won)

	// A replay of the compare-and-set must lose.
	won, err = repository.MarkCompleted(f.db, req.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, won)
}

func TestMarkCompleted_RequiresPendingStatus(t *testing.T) {
	f := setupAdoptionTest(t)
	req := f.createRequest(t)

	// Both flags set but the request was rejected: Completed is only
	// reachable from Pending.
	require.NoError(t, f.db.Model(&models.AdoptionRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"completed_by_owner":   true,
			"completed_by_adopter": true,
			"status":               models.RequestRejected,
		}).Error)

	won, err := repository.MarkCompleted(f.db, req.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, won)

	var after models.AdoptionRequest
	require.NoError(t, f.db.First(&after, req.ID).Error)
	assert.Equal(t, models.RequestRejected, after.Status)
	assert.False(t, after.AdoptionCompleted)
}
