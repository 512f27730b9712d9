package server

import (
	"pawhome/internal/models"
	"pawhome/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateAdoptionRequestRequest is the payload for requesting to adopt a pet.
type CreateAdoptionRequestRequest struct {
	ListingID      uint   `json:"listing_id"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	RequesterPhone string `json:"requester_phone"`
	Message        string `json:"message"`
}

// CreateAdoptionRequest handles a new adoption request. The chat room for
// the request is opened immediately and returned alongside it.
func (s *Server) CreateAdoptionRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req CreateAdoptionRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, room, err := s.adoptionService.CreateRequest(c.UserContext(), service.CreateRequestInput{
		ListingID:      req.ListingID,
		RequesterID:    userID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		RequesterPhone: req.RequesterPhone,
		Message:        req.Message,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"request":   request,
		"chat_room": room,
	})
}

// GetMyRequests returns the adoption requests the caller has made.
func (s *Server) GetMyRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	requests, err := s.adoptionService.ListMine(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// GetReceivedRequests returns the adoption requests made against the caller's listings.
func (s *Server) GetReceivedRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	requests, err := s.adoptionService.ListReceived(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

// ConfirmCompletion records the caller's completion confirmation. When both
// parties have confirmed, pet ownership transfers to the adopter.
func (s *Server) ConfirmCompletion(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	request, completed, err := s.adoptionService.ConfirmCompletion(c.UserContext(), requestID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"request":   request,
		"completed": completed,
	})
}
