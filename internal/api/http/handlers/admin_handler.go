package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/staybook/booking-service/internal/api/dto"
	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/service"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

// AdminHandler exposes the back-office admin endpoints.
type AdminHandler struct {
	admins *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// Profile handles GET /admin/profile.
func (h *AdminHandler) Profile(c *fiber.Ctx) error {
	admin, ok := auth.CurrentAdmin(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	return c.JSON(fiber.Map{"admin": dto.NewAdminResponse(admin)})
}

// List handles GET /admin/admins.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	admins, err := h.admins.List(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"admins": dto.NewAdminList(admins),
		"limit":  limit,
		"offset": offset,
	})
}

// Create handles POST /admin/admins.
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAdminRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return apperrors.FromValidation(err)
	}

	admin, err := h.admins.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"admin": dto.NewAdminResponse(admin)})
}

// UpdateRole handles PATCH /admin/admins/:id/role.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAdminRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return apperrors.FromValidation(err)
	}
	role, _ := domain.ParseAdminRole(req.Role)

	admin, err := h.admins.UpdateRole(c.UserContext(), id, role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"admin": dto.NewAdminResponse(admin)})
}

// Delete handles DELETE /admin/admins/:id.
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.admins.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Admin deleted"})
}
