package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/staybook/booking-service/internal/api/dto"
	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/observability"
	"github.com/staybook/booking-service/internal/service"
)

// SessionHandler exposes token refresh, logout and the shared login flow.
type SessionHandler struct {
	auth    *service.AuthService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService, metrics *observability.Metrics, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{auth: authService, metrics: metrics, logger: logger}
}

// Login returns a handler for POST /<kind>/login that answers {<key>, token}.
func (h *SessionHandler) Login(kind domain.ActorKind, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.LoginRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		actor, token, err := h.auth.Login(c.UserContext(), kind, req.Email, req.Password)
		if err != nil {
			h.metrics.RecordAuth(string(kind), "login_failed")
			return err
		}
		h.metrics.RecordAuth(string(kind), "login")

		return c.JSON(fiber.Map{
			key:          dto.NewActorResponse(actor),
			"token":      token.Value,
			"expires_at": token.ExpiresAt,
		})
	}
}

// Refresh handles POST /auth/refresh. The bearer token may be expired as long
// as it is inside the refresh window.
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	raw, _ := auth.BearerToken(c)
	actor, token, err := h.auth.RefreshToken(c.UserContext(), raw)
	if err != nil {
		return err
	}
	h.metrics.RecordAuth(string(actor.Kind()), "refreshed")

	c.Set(fiber.HeaderAuthorization, "Bearer "+token.Value)
	return c.JSON(dto.NewTokenResponse(token))
}

// Logout handles DELETE /logout. It always succeeds.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	raw, _ := auth.BearerToken(c)
	if err := h.auth.Logout(c.UserContext(), raw); err != nil {
		h.logger.Warn("token revocation failed", zap.Error(err))
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

// ChangePassword handles PATCH /<kind>/password for the actor resolved by the guard.
func (h *SessionHandler) ChangePassword(kind domain.ActorKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := auth.CurrentActor(c, kind)
		if !ok {
			return fiber.ErrUnauthorized
		}
		var req dto.ChangePasswordRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		if err := h.auth.ChangePassword(c.UserContext(), actor, req.ToInput()); err != nil {
			return err
		}
		return c.JSON(dto.MessageResponse{Message: "Password updated"})
	}
}
