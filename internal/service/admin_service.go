package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/config"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/repository"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

const (
	superAdminConstraint = "admins_single_super_admin"

	msgSuperAdminExists     = "super admin already exists"
	msgSuperAdminRoleLocked = "cannot be changed for the super admin"
	msgSuperAdminUndeleted  = "Super Admin cannot be deleted"
)

// AdminService manages admin accounts and the single super admin.
type AdminService struct {
	admins     repository.AdminRepository
	logger     *zap.Logger
	bcryptCost int
}

// NewAdminService builds the service.
func NewAdminService(cfg config.AuthConfig, admins repository.AdminRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{admins: admins, logger: logger, bcryptCost: cfg.BcryptCost}
}

// List returns admins ordered by id.
func (s *AdminService) List(ctx context.Context, limit, offset int) ([]domain.Admin, error) {
	admins, err := s.admins.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return admins, nil
}

// Get returns one admin.
func (s *AdminService) Get(ctx context.Context, id int64) (*domain.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("Admin", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return admin, nil
}

// CreateAdminInput carries the fields of a new admin.
type CreateAdminInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Role                 domain.AdminRole
}

// Validate collects every field failure.
func (in CreateAdminInput) Validate() error {
	errs := validation.Errors{
		"name":  validation.Validate(strings.TrimSpace(in.Name), validation.Required, validation.Length(1, 255)),
		"email": validation.Validate(normalizeEmail(in.Email), validation.Required, is.Email),
		"role":  validation.Validate(int(in.Role), validation.In(int(domain.AdminRoleSuperAdmin), int(domain.AdminRoleAdmin))),
	}
	if perr := auth.ValidateNewPassword(domain.ActorKindAdmin, in.Password, in.PasswordConfirmation); perr != nil {
		for field, ferr := range perr.(validation.Errors) {
			errs[field] = ferr
		}
	}
	return errs.Filter()
}

// Create adds an admin. A second super admin is rejected on the role field.
func (s *AdminService) Create(ctx context.Context, in CreateAdminInput) (*domain.Admin, error) {
	if err := in.Validate(); err != nil {
		return nil, apperrors.FromValidation(err)
	}
	if in.Role == domain.AdminRoleSuperAdmin {
		if err := s.ensureNoSuperAdmin(ctx); err != nil {
			return nil, err
		}
	}

	email := normalizeEmail(in.Email)
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewFieldError("email", msgTaken)
	} else if !apperrors.IsNotFound(err) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	admin := &domain.Admin{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, adminWriteError(err)
	}
	s.logger.Info("admin created", zap.Int64("admin_id", admin.ID), zap.String("role", admin.Role.String()))
	return admin, nil
}

// UpdateRole promotes or demotes an admin. The super admin keeps its role and
// nobody else may take it while it exists.
func (s *AdminService) UpdateRole(ctx context.Context, id int64, role domain.AdminRole) (*domain.Admin, error) {
	if role != domain.AdminRoleSuperAdmin && role != domain.AdminRoleAdmin {
		return nil, apperrors.NewFieldError("role", "is not included in the list")
	}
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin.Role == role {
		return admin, nil
	}
	if admin.IsSuperAdmin() {
		return nil, apperrors.NewFieldError("role", msgSuperAdminRoleLocked)
	}
	if role == domain.AdminRoleSuperAdmin {
		if err := s.ensureNoSuperAdmin(ctx); err != nil {
			return nil, err
		}
	}

	admin.Role = role
	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, adminWriteError(err)
	}
	s.logger.Info("admin role changed", zap.Int64("admin_id", admin.ID), zap.String("role", role.String()))
	return admin, nil
}

// Delete removes an admin. The super admin cannot be deleted.
func (s *AdminService) Delete(ctx context.Context, id int64) error {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if admin.IsSuperAdmin() {
		return apperrors.NewForbidden(msgSuperAdminUndeleted)
	}
	if err := s.admins.Delete(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("Admin", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("admin deleted", zap.Int64("admin_id", id))
	return nil
}

// SeedSuperAdmin makes sure the configured account exists and holds the super
// admin role. It is a no-op when a super admin is already present or nothing
// is configured.
func (s *AdminService) SeedSuperAdmin(ctx context.Context, seed config.SeedConfig) error {
	if seed.SuperAdminEmail == "" || seed.SuperAdminPassword == "" {
		s.logger.Debug("super admin seed not configured")
		return nil
	}
	if existing, err := s.admins.GetSuperAdmin(ctx); err == nil {
		s.logger.Debug("super admin present", zap.Int64("admin_id", existing.ID))
		return nil
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	if admin, err := s.admins.GetByEmail(ctx, seed.SuperAdminEmail); err == nil {
		admin.Role = domain.AdminRoleSuperAdmin
		if err := s.admins.Update(ctx, admin); err != nil {
			return err
		}
		s.logger.Info("promoted seed admin to super admin", zap.Int64("admin_id", admin.ID))
		return nil
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	hash, err := auth.HashPassword(seed.SuperAdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.Admin{
		Name:         seed.SuperAdminName,
		Email:        normalizeEmail(seed.SuperAdminEmail),
		PasswordHash: hash,
		Role:         domain.AdminRoleSuperAdmin,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("seeded super admin", zap.Int64("admin_id", admin.ID), zap.String("email", admin.Email))
	return nil
}

func (s *AdminService) ensureNoSuperAdmin(ctx context.Context) error {
	_, err := s.admins.GetSuperAdmin(ctx)
	switch {
	case err == nil:
		return apperrors.NewFieldError("role", msgSuperAdminExists)
	case apperrors.IsNotFound(err):
		return nil
	default:
		return apperrors.MapError(err)
	}
}

// adminWriteError tells the two unique indexes on admins apart.
func adminWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == superAdminConstraint {
		return apperrors.NewFieldError("role", msgSuperAdminExists)
	}
	if apperrors.IsUniqueViolation(err) {
		return apperrors.NewFieldError("email", msgTaken)
	}
	return apperrors.MapError(err)
}
