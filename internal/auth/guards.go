package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/staybook/booking-service/internal/domain"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

const (
	msgAdminRequired      = "Admin must be logged in"
	msgSuperAdminRequired = "Only Super Admin can perform this action"
	msgUserRequired       = "Please log in as a user"
	msgPartnerRequired    = "Please log in as partner"
)

// RequireAdmin rejects requests without a resolvable admin.
func (m *Middleware) RequireAdmin() fiber.Handler {
	return m.require(domain.ActorKindAdmin, msgAdminRequired)
}

// RequireUser rejects requests without a resolvable user.
func (m *Middleware) RequireUser() fiber.Handler {
	return m.require(domain.ActorKindUser, msgUserRequired)
}

// RequirePartner rejects requests without a resolvable partner.
func (m *Middleware) RequirePartner() fiber.Handler {
	return m.require(domain.ActorKindPartner, msgPartnerRequired)
}

// RequireSuperAdmin elevates RequireAdmin: the admin must hold the super admin role.
// It resolves on its own, so it may also be used without RequireAdmin in front.
func (m *Middleware) RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := m.resolver.ResolveRequest(c, domain.ActorKindAdmin)
		if err != nil {
			m.logger.Error("admin resolution failed", zap.Error(err))
			return apperrors.NewInternalError(err)
		}
		if actor == nil {
			return apperrors.NewUnauthorized(msgAdminRequired)
		}
		admin, ok := actor.(*domain.Admin)
		if !ok || !admin.IsSuperAdmin() {
			return apperrors.NewForbidden(msgSuperAdminRequired)
		}
		m.refreshIfNearExpiry(c)
		return c.Next()
	}
}

func (m *Middleware) require(kind domain.ActorKind, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := m.resolver.ResolveRequest(c, kind)
		if err != nil {
			m.logger.Error("actor resolution failed", zap.Error(err), zap.String("kind", string(kind)))
			return apperrors.NewInternalError(err)
		}
		if actor == nil {
			return apperrors.NewUnauthorized(message)
		}
		m.refreshIfNearExpiry(c)
		return c.Next()
	}
}
