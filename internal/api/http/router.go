package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/staybook/booking-service/internal/api/http/handlers"
	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Session        *handlers.SessionHandler
	Admins         *handlers.AdminHandler
	Users          *handlers.UsersHandler
	Partners       *handlers.PartnersHandler
	AdminResets    *handlers.PasswordResetHandler
	UserResets     *handlers.PasswordResetHandler
	PartnerResets  *handlers.PasswordResetHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}

	mw := cfg.AuthMiddleware
	app.Use(mw.Authenticate)

	if cfg.Health != nil {
		app.Get("/health/metrics", mw.RequireAdmin(), cfg.Health.Metrics)
	}

	app.Post("/auth/refresh", cfg.Session.Refresh)
	app.Delete("/logout", cfg.Session.Logout)

	admin := app.Group("/admin")
	admin.Post("/login", cfg.Session.Login(domain.ActorKindAdmin, "admin"))
	registerResetRoutes(admin, cfg.AdminResets)
	admin.Get("/profile", mw.RequireAdmin(), cfg.Admins.Profile)
	admin.Patch("/password", mw.RequireAdmin(), cfg.Session.ChangePassword(domain.ActorKindAdmin))
	admin.Get("/admins", mw.RequireAdmin(), cfg.Admins.List)

	admin.Post("/admins", mw.RequireAdmin(), mw.RequireSuperAdmin(), cfg.Admins.Create)
	admin.Patch("/admins/:id/role", mw.RequireAdmin(), mw.RequireSuperAdmin(), cfg.Admins.UpdateRole)
	admin.Delete("/admins/:id", mw.RequireAdmin(), mw.RequireSuperAdmin(), cfg.Admins.Delete)

	user := app.Group("/user")
	user.Post("/register", cfg.Users.Register)
	user.Post("/login", cfg.Session.Login(domain.ActorKindUser, "user"))
	registerResetRoutes(user, cfg.UserResets)
	user.Get("/profile", mw.RequireUser(), cfg.Users.Profile)
	user.Patch("/password", mw.RequireUser(), cfg.Session.ChangePassword(domain.ActorKindUser))

	partners := app.Group("/partners")
	partners.Post("/register", cfg.Partners.Register)
	partners.Post("/login", cfg.Session.Login(domain.ActorKindPartner, "partner"))
	registerResetRoutes(partners, cfg.PartnerResets)
	partners.Get("/profile", mw.RequirePartner(), cfg.Partners.Profile)
	partners.Patch("/password", mw.RequirePartner(), cfg.Session.ChangePassword(domain.ActorKindPartner))
}

func registerResetRoutes(group fiber.Router, h *handlers.PasswordResetHandler) {
	group.Post("/forgot-password", h.Forgot)
	group.Get("/reset-password/validate", h.Validate)
	group.Post("/reset-password", h.Reset)
}
