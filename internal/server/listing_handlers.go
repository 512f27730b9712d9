package server

import (
	"time"

	"pawhome/internal/models"
	"pawhome/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateListingRequest is the payload for posting a pet for adoption.
type CreateListingRequest struct {
	PetName     string     `json:"pet_name"`
	Species     string     `json:"species"`
	Breed       string     `json:"breed"`
	Age         int        `json:"age"`
	Gender      string     `json:"gender"`
	Description string     `json:"description"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	PhotoURL    string     `json:"photo_url"`
	BirthDate   *time.Time `json:"birth_date"`
	Weight      float64    `json:"weight"`

	DonatorName  string `json:"donator_name"`
	DonatorEmail string `json:"donator_email"`
	DonatorPhone string `json:"donator_phone"`
}

// CreateListing handles posting a new adoption listing.
func (s *Server) CreateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	listing, err := s.listingService.CreateListing(c.UserContext(), service.CreateListingInput{
		UserID:       userID,
		PetName:      req.PetName,
		Species:      req.Species,
		Breed:        req.Breed,
		Age:          req.Age,
		Gender:       req.Gender,
		Description:  req.Description,
		City:         req.City,
		State:        req.State,
		PhotoURL:     req.PhotoURL,
		BirthDate:    req.BirthDate,
		Weight:       req.Weight,
		DonatorName:  req.DonatorName,
		DonatorEmail: req.DonatorEmail,
		DonatorPhone: req.DonatorPhone,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetListings returns all listings currently available for adoption.
func (s *Server) GetListings(c *fiber.Ctx) error {
	listings, err := s.listingService.ListAvailable(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings})
}

// GetListing returns a single listing by ID.
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.GetListing(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(listing)
}
