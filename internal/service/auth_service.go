package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/config"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/events"
	"github.com/staybook/booking-service/internal/repository"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidToken       = "Invalid or expired token"
	msgTaken              = "has already been taken"
)

// AuthService coordinates registration, login and session flows for every actor kind.
type AuthService struct {
	stores     ActorStores
	users      repository.UserRepository
	partners   repository.PartnerRepository
	tokens     *auth.TokenManager
	resolver   *auth.Resolver
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	dummyHash  string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Stores      ActorStores
	UserRepo    repository.UserRepository
	PartnerRepo repository.PartnerRepository
	Tokens      *auth.TokenManager
	Resolver    *auth.Resolver
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	// compared against when the email is unknown so both paths cost one bcrypt check
	dummy, _ := auth.HashPassword("not-a-real-password", cfg.BcryptCost)
	return &AuthService{
		stores:     deps.Stores,
		users:      deps.UserRepo,
		partners:   deps.PartnerRepo,
		tokens:     deps.Tokens,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		dummyHash:  dummy,
	}
}

// Login authenticates an actor of kind by email and password. The failure never
// says which of the two was wrong.
func (s *AuthService) Login(ctx context.Context, kind domain.ActorKind, email, password string) (domain.Actor, domain.IssuedToken, error) {
	store, err := s.stores.get(kind)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}

	actor, err := store.byEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
		}
		_ = auth.ComparePassword(s.dummyHash, password)
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if err := auth.ComparePassword(actor.PasswordDigest(), password); err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized(msgInvalidCredentials)
	}

	token, err := s.tokens.IssueFor(actor)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	return actor, token, nil
}

// RegisterUserInput carries the fields of a guest sign-up.
type RegisterUserInput struct {
	Name                 string
	Email                string
	Phone                string
	Password             string
	PasswordConfirmation string
}

// Validate collects every field failure of the sign-up.
func (in RegisterUserInput) Validate() error {
	return registrationErrors(domain.ActorKindUser, in.Name, in.Email, in.Password, in.PasswordConfirmation, nil)
}

// RegisterUser creates a guest account and signs it in.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterUserInput) (*domain.User, domain.IssuedToken, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.checkRegistration(ctx, domain.ActorKindUser, in.Email, in.Validate()); err != nil {
		return nil, domain.IssuedToken{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.IssuedToken{}, createError(err)
	}

	token, err := s.tokens.IssueFor(user)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.Event{Type: events.EventActorRegistered, Actor: events.ActorFrom(user)})
	return user, token, nil
}

// RegisterPartnerInput carries the fields of a partner sign-up.
type RegisterPartnerInput struct {
	Name                 string
	Email                string
	Phone                string
	CompanyName          string
	Password             string
	PasswordConfirmation string
}

// Validate collects every field failure of the sign-up.
func (in RegisterPartnerInput) Validate() error {
	return registrationErrors(domain.ActorKindPartner, in.Name, in.Email, in.Password, in.PasswordConfirmation, validation.Errors{
		"company_name": validation.Validate(in.CompanyName, validation.Length(0, 255)),
	})
}

// RegisterPartner creates a partner account and signs it in.
func (s *AuthService) RegisterPartner(ctx context.Context, in RegisterPartnerInput) (*domain.Partner, domain.IssuedToken, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.checkRegistration(ctx, domain.ActorKindPartner, in.Email, in.Validate()); err != nil {
		return nil, domain.IssuedToken{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	partner := &domain.Partner{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		CompanyName:  strings.TrimSpace(in.CompanyName),
		PasswordHash: hash,
	}
	if err := s.partners.Create(ctx, partner); err != nil {
		return nil, domain.IssuedToken{}, createError(err)
	}

	token, err := s.tokens.IssueFor(partner)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.Event{Type: events.EventActorRegistered, Actor: events.ActorFrom(partner)})
	return partner, token, nil
}

// Logout revokes the presented token when revocation is enabled. Anything it
// cannot parse is ignored.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	claims, err := s.tokens.VerifyRefreshable(ctx, rawToken)
	if err != nil {
		s.logger.Debug("logout with unusable token", zap.Error(err))
		return nil
	}
	return s.tokens.Revoke(ctx, claims)
}

// RefreshToken exchanges a token that is valid or expired within the refresh
// window for a fresh one. The actor must still exist.
func (s *AuthService) RefreshToken(ctx context.Context, rawToken string) (domain.Actor, domain.IssuedToken, error) {
	if rawToken == "" {
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized(msgInvalidToken)
	}
	claims, err := s.tokens.VerifyRefreshable(ctx, rawToken)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized(msgInvalidToken)
	}

	actor, err := s.resolver.Resolve(ctx, claims, claims.Type)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	if actor == nil {
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized(msgInvalidToken)
	}

	// role comes from the record so a demoted admin does not keep super admin claims
	token, err := s.tokens.IssueFor(actor)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		s.logger.Warn("revoke refreshed token", zap.String("jti", claims.ID), zap.Error(err))
	}
	return actor, token, nil
}

// ChangePasswordInput carries a signed-in password change.
type ChangePasswordInput struct {
	CurrentPassword      string
	Password             string
	PasswordConfirmation string
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, in ChangePasswordInput) error {
	store, err := s.stores.get(actor.Kind())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(actor.PasswordDigest(), in.CurrentPassword); err != nil {
		return apperrors.NewFieldError("current_password", "is invalid")
	}
	if err := auth.ValidateNewPassword(actor.Kind(), in.Password, in.PasswordConfirmation); err != nil {
		return apperrors.FromValidation(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := store.setPassword(ctx, actor, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) checkRegistration(ctx context.Context, kind domain.ActorKind, email string, verr error) error {
	fields := validation.Errors{}
	if verr != nil {
		errs, ok := verr.(validation.Errors)
		if !ok {
			return apperrors.FromValidation(verr)
		}
		fields = errs
	}

	if _, taken := fields["email"]; !taken && email != "" {
		store, err := s.stores.get(kind)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		_, err = store.byEmail(ctx, email)
		switch {
		case err == nil:
			fields["email"] = errors.New(msgTaken)
		case !apperrors.IsNotFound(err):
			return apperrors.NewInternalError(err)
		}
	}
	return apperrors.FromValidation(fields.Filter())
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func registrationErrors(kind domain.ActorKind, name, email, password, confirmation string, extra validation.Errors) error {
	errs := validation.Errors{
		"name":  validation.Validate(strings.TrimSpace(name), validation.Required, validation.Length(1, 255)),
		"email": validation.Validate(normalizeEmail(email), validation.Required, is.Email),
	}
	if perr := auth.ValidateNewPassword(kind, password, confirmation); perr != nil {
		for field, ferr := range perr.(validation.Errors) {
			errs[field] = ferr
		}
	}
	for field, ferr := range extra {
		errs[field] = ferr
	}
	return errs.Filter()
}

// createError maps a unique violation on insert to a 422 on the email field.
func createError(err error) error {
	if apperrors.IsUniqueViolation(err) {
		return apperrors.NewFieldError("email", msgTaken)
	}
	return apperrors.MapError(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
