package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/staybook/booking-service/internal/api/dto"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/service"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

// PasswordResetHandler serves the forgot/reset endpoints of one actor kind.
type PasswordResetHandler struct {
	kind   domain.ActorKind
	resets *service.PasswordResetService
}

// NewPasswordResetHandler constructs handler.
func NewPasswordResetHandler(kind domain.ActorKind, resets *service.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{kind: kind, resets: resets}
}

// Forgot handles POST /<kind>/forgot-password.
func (h *PasswordResetHandler) Forgot(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}
	if err := h.resets.RequestReset(c.UserContext(), h.kind, req.Email); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Password reset instructions have been sent to your email"})
}

// Validate handles GET /<kind>/reset-password/validate?token=...
func (h *PasswordResetHandler) Validate(c *fiber.Ctx) error {
	if _, err := h.resets.ValidateToken(c.UserContext(), h.kind, c.Query("token")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true})
}

// Reset handles POST /<kind>/reset-password.
func (h *PasswordResetHandler) Reset(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.resets.ConsumeReset(c.UserContext(), h.kind, req.Token, req.Password, req.PasswordConfirmation); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Password has been reset successfully"})
}
