package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cqms-io/support-center/internal/api/dto"
	"github.com/cqms-io/support-center/internal/service"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

// ProfileHandler manages customer profile endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profileService}
}

// GetProfile GET /profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	principal, err := customerPrincipal(c)
	if err != nil {
		return err
	}
	profile, err := h.profiles.GetProfile(c.Context(), principal.Profile.CustomerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}

// UpdateProfile PUT /profile.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, err := customerPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	customerID := principal.Profile.CustomerID
	profile, err := h.profiles.UpdateContact(c.Context(), customerID, customerID, req.Phone, req.Address)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(profile)})
}
