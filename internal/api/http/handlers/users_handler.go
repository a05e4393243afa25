package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/staybook/booking-service/internal/api/dto"
	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/service"
)

// UsersHandler exposes sign-up and profile endpoints for guests.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /user/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, token, err := h.auth.RegisterUser(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user":       dto.NewUserResponse(user),
		"token":      token.Value,
		"expires_at": token.ExpiresAt,
	})
}

// Profile handles GET /user/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}
