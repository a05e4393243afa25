package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/staybook/booking-service/internal/api/dto"
	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/service"
)

// PartnersHandler exposes sign-up and profile endpoints for property partners.
type PartnersHandler struct {
	auth *service.AuthService
}

// NewPartnersHandler constructs handler.
func NewPartnersHandler(authService *service.AuthService) *PartnersHandler {
	return &PartnersHandler{auth: authService}
}

// Register handles POST /partners/register.
func (h *PartnersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterPartnerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	partner, token, err := h.auth.RegisterPartner(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"partner":    dto.NewPartnerResponse(partner),
		"token":      token.Value,
		"expires_at": token.ExpiresAt,
	})
}

// Profile handles GET /partners/profile.
func (h *PartnersHandler) Profile(c *fiber.Ctx) error {
	partner, ok := auth.CurrentPartner(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	return c.JSON(fiber.Map{"partner": dto.NewPartnerResponse(partner)})
}
