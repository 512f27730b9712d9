package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"pawhome/internal/database"
	"pawhome/internal/models"
	"pawhome/internal/notifications"
	"pawhome/internal/repository"
	"pawhome/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type handlerFixture struct {
	db      *gorm.DB
	srv     *Server
	app     *fiber.App
	owner   *models.User
	adopter *models.User
	listing *models.AdoptionListing
}

// newHandlerFixture builds a Server on sqlite with a fake auth middleware
// that takes the acting user from the X-User-ID header.
func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	requestRepo := repository.NewAdoptionRequestRepository(db)
	chatRepo := repository.NewChatRepository(db)
	petRepo := repository.NewPetRepository(db)

	srv := &Server{
		db:          db,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		requestRepo: requestRepo,
		chatRepo:    chatRepo,
		petRepo:     petRepo,
		chatHub:     notifications.NewChatHub(),
	}
	srv.listingService = service.NewListingService(listingRepo)
	srv.adoptionService = service.NewAdoptionService(db, requestRepo, listingRepo, chatRepo)
	srv.chatService = service.NewChatService(chatRepo, requestRepo, userRepo)
	srv.petService = service.NewPetService(petRepo)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		var userID uint
		if _, err := fmt.Sscanf(c.Get("X-User-ID"), "%d", &userID); err != nil || userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		c.Locals("userID", userID)
		return c.Next()
	})

	app.Post("/api/listings", srv.CreateListing)
	app.Get("/api/listings", srv.GetListings)
	app.Get("/api/listings/:id", srv.GetListing)
	app.Post("/api/adoption-requests", srv.CreateAdoptionRequest)
	app.Get("/api/adoption-requests/mine", srv.GetMyRequests)
	app.Get("/api/adoption-requests/received", srv.GetReceivedRequests)
	app.Post("/api/adoption-requests/:requestId/confirm-completion", srv.ConfirmCompletion)
	app.Get("/api/chats", srv.GetChats)
	app.Get("/api/chats/request/:requestId", srv.GetChatForRequest)
	app.Get("/api/chats/:chatId/messages", srv.GetChatMessages)
	app.Post("/api/chats/:chatId/messages", srv.SendChatMessage)
	app.Delete("/api/chats/:chatId", srv.DeleteChat)
	app.Get("/api/pets", srv.GetMyPets)
	app.Get("/api/pets/:petId/health-records", srv.GetPetHealthRecords)

	owner := &models.User{Name: "Olivia Owner", Email: "olivia@example.com"}
	adopter := &models.User{Name: "Adam Adopter", Email: "adam@example.com"}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(adopter).Error)

	listing := &models.AdoptionListing{
		UserID: owner.ID, PetName: "Biscuit", Species: "Dog", Breed: "Beagle",
		City: "Austin", State: "TX",
		DonatorName: "Olivia Owner", DonatorEmail: "olivia@example.com", DonatorPhone: "555-0101",
		Status: models.ListingAvailable,
	}
	require.NoError(t, db.Create(listing).Error)

	return &handlerFixture{db: db, srv: srv, app: app, owner: owner, adopter: adopter, listing: listing}
}

func (f *handlerFixture) request(t *testing.T, userID uint, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (f *handlerFixture) createRequestViaAPI(t *testing.T) (requestID, chatRoomID uint) {
	t.Helper()

	resp := f.request(t, f.adopter.ID, http.MethodPost, "/api/adoption-requests", map[string]any{
		"listing_id":      f.listing.ID,
		"requester_name":  "Adam Adopter",
		"requester_email": "adam@example.com",
		"requester_phone": "555-0202",
		"message":         "I would love to adopt Biscuit!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Request  models.AdoptionRequest `json:"request"`
		ChatRoom models.ChatRoom        `json:"chat_room"`
	}
	decodeBody(t, resp, &body)
	require.NotZero(t, body.Request.ID)
	require.NotZero(t, body.ChatRoom.ID)
	return body.Request.ID, body.ChatRoom.ID
}

func TestCreateAdoptionRequestEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	requestID, chatRoomID := f.createRequestViaAPI(t)

	// The request shows up for both parties.
	resp := f.request(t, f.adopter.ID, http.MethodGet, "/api/adoption-requests/mine", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var mine struct {
		Requests []models.AdoptionRequest `json:"requests"`
	}
	decodeBody(t, resp, &mine)
	require.Len(t, mine.Requests, 1)
	assert.Equal(t, requestID, mine.Requests[0].ID)

	resp = f.request(t, f.owner.ID, http.MethodGet, "/api/adoption-requests/received", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var received struct {
		Requests []models.AdoptionRequest `json:"requests"`
	}
	decodeBody(t, resp, &received)
	require.Len(t, received.Requests, 1)
	require.NotNil(t, received.Requests[0].ChatRoomID)
	assert.Equal(t, chatRoomID, *received.Requests[0].ChatRoomID)
}

func TestCreateAdoptionRequestEndpoint_Validation(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.request(t, f.adopter.ID, http.MethodPost, "/api/adoption-requests", map[string]any{
		"listing_id": f.listing.ID,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestConfirmCompletionEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	requestID, _ := f.createRequestViaAPI(t)

	path := fmt.Sprintf("/api/adoption-requests/%d/confirm-completion", requestID)

	resp := f.request(t, f.owner.ID, http.MethodPost, path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var first struct {
		Request   models.AdoptionRequest `json:"request"`
		Completed bool                   `json:"completed"`
	}
	decodeBody(t, resp, &first)
	assert.False(t, first.Completed)
	assert.True(t, first.Request.CompletedByOwner)

	resp = f.request(t, f.adopter.ID, http.MethodPost, path, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var second struct {
		Request   models.AdoptionRequest `json:"request"`
		Completed bool                   `json:"completed"`
	}
	decodeBody(t, resp, &second)
	assert.True(t, second.Completed)
	assert.Equal(t, models.RequestCompleted, second.Request.Status)

	// The adopter now sees the transferred pet in the tracker.
	resp = f.request(t, f.adopter.ID, http.MethodGet, "/api/pets", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var pets struct {
		Pets []models.Pet `json:"pets"`
	}
	decodeBody(t, resp, &pets)
	require.Len(t, pets.Pets, 1)
	assert.Equal(t, "Biscuit", pets.Pets[0].Name)
}

func TestConfirmCompletionEndpoint_Forbidden(t *testing.T) {
	f := newHandlerFixture(t)
	requestID, _ := f.createRequestViaAPI(t)

	stranger := &models.User{Name: "Sam Stranger", Email: "sam@example.com"}
	require.NoError(t, f.db.Create(stranger).Error)

	path := fmt.Sprintf("/api/adoption-requests/%d/confirm-completion", requestID)
	resp := f.request(t, stranger.ID, http.MethodPost, path, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestConfirmCompletionEndpoint_InvalidID(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.request(t, f.owner.ID, http.MethodPost, "/api/adoption-requests/abc/confirm-completion", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, f.owner.ID, http.MethodPost, "/api/adoption-requests/9999/confirm-completion", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetPetHealthRecords_OwnershipEnforced(t *testing.T) {
	f := newHandlerFixture(t)

	pet := &models.Pet{UserID: f.adopter.ID, Name: "Biscuit", Species: "Dog"}
	require.NoError(t, f.db.Create(pet).Error)

	resp := f.request(t, f.owner.ID, http.MethodGet, fmt.Sprintf("/api/pets/%d/health-records", pet.ID), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = f.request(t, f.adopter.ID, http.MethodGet, fmt.Sprintf("/api/pets/%d/health-records", pet.ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCreateListingEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.request(t, f.owner.ID, http.MethodPost, "/api/listings", map[string]any{
		"pet_name":      "Mochi",
		"species":       "Cat",
		"city":          "Austin",
		"state":         "TX",
		"donator_name":  "Olivia Owner",
		"donator_email": "olivia@example.com",
		"donator_phone": "555-0101",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var listing models.AdoptionListing
	decodeBody(t, resp, &listing)
	assert.Equal(t, models.ListingAvailable, listing.Status)
	assert.Equal(t, f.owner.ID, listing.UserID)

	resp = f.request(t, f.adopter.ID, http.MethodGet, "/api/listings", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listings struct {
		Listings []models.AdoptionListing `json:"listings"`
	}
	decodeBody(t, resp, &listings)
	assert.Len(t, listings.Listings, 2)
}

func TestCreateListingEndpoint_Validation(t *testing.T) {
	f := newHandlerFixture(t)

	resp := f.request(t, f.owner.ID, http.MethodPost, "/api/listings", map[string]any{
		"pet_name": "Mochi",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
