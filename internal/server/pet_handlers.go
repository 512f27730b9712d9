package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyPets returns the caller's post-adoption tracker pets.
func (s *Server) GetMyPets(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	pets, err := s.petService.ListPets(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"pets": pets})
}

// GetPetHealthRecords returns the health history for one of the caller's pets.
func (s *Server) GetPetHealthRecords(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	petID, err := s.parseID(c, "petId")
	if err != nil {
		return nil
	}

	records, err := s.petService.ListHealthRecords(c.UserContext(), userID, petID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}
