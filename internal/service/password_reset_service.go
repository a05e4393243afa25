package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/config"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/events"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

const (
	// MsgInvalidResetToken is returned for unknown, consumed and expired reset tokens alike.
	MsgInvalidResetToken = "Invalid or expired reset token"

	resetTokenBytes = 32
)

// PasswordResetService issues and consumes reset tokens stored on the actor rows.
type PasswordResetService struct {
	stores     ActorStores
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	ttl        time.Duration
	now        func() time.Time
	newToken   func() (string, error)
}

// ResetOption customizes a PasswordResetService.
type ResetOption func(*PasswordResetService)

// WithResetClock overrides the time source.
func WithResetClock(now func() time.Time) ResetOption {
	return func(s *PasswordResetService) { s.now = now }
}

// WithTokenSource overrides how reset tokens are generated.
func WithTokenSource(fn func() (string, error)) ResetOption {
	return func(s *PasswordResetService) { s.newToken = fn }
}

// NewPasswordResetService builds the service.
func NewPasswordResetService(cfg config.AuthConfig, stores ActorStores, dispatcher events.Dispatcher, logger *zap.Logger, opts ...ResetOption) *PasswordResetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PasswordResetService{
		stores:     stores,
		dispatcher: dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		ttl:        cfg.PasswordResetTTL(),
		now:        time.Now,
		newToken:   NewResetToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL is how long a reset token stays valid after it was sent.
func (s *PasswordResetService) TTL() time.Duration {
	return s.ttl
}

// NewResetToken returns 256 random bits, URL-safe encoded.
func NewResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RequestReset stores a fresh token on the actor registered under email and
// announces it. Unknown emails are reported as not found. Delivery problems
// never fail the request.
func (s *PasswordResetService) RequestReset(ctx context.Context, kind domain.ActorKind, email string) error {
	store, err := s.stores.get(kind)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.NewFieldError("email", "can't be blank")
	}

	actor, err := store.byEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("Email", nil)
		}
		return apperrors.NewInternalError(err)
	}

	token, err := s.newToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	sentAt := s.now().UTC()
	if err := store.resets.SetResetToken(ctx, actor.ActorID(), token, sentAt); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:  events.EventPasswordResetRequested,
		Actor: events.ActorFrom(actor),
		Payload: events.PasswordResetRequestedPayload{
			Token:     token,
			ExpiresAt: sentAt.Add(s.ttl),
		},
	})
	return nil
}

// ValidateToken returns the actor holding token while it is inside the validity window.
func (s *PasswordResetService) ValidateToken(ctx context.Context, kind domain.ActorKind, token string) (domain.Actor, error) {
	store, err := s.stores.get(kind)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalidResetToken()
	}

	actor, err := store.byResetToken(ctx, token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, invalidResetToken()
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !actor.ResetState().ResetTokenValid(s.now(), s.ttl) {
		return nil, invalidResetToken()
	}
	return actor, nil
}

// ConsumeReset sets a new password for the holder of token and clears the
// reset fields in the same write. A token can be consumed once. Token and
// password failures are reported together.
func (s *PasswordResetService) ConsumeReset(ctx context.Context, kind domain.ActorKind, token, password, confirmation string) (domain.Actor, error) {
	policyErr := apperrors.FromValidation(auth.ValidateNewPassword(kind, password, confirmation))
	actor, err := s.ValidateToken(ctx, kind, token)
	if err != nil {
		return nil, mergeFieldErrors(err, policyErr)
	}
	if policyErr != nil {
		return nil, policyErr
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	store, _ := s.stores.get(kind)
	if err := store.resets.CompleteReset(ctx, actor.ActorID(), strings.TrimSpace(token), hash); err != nil {
		if apperrors.IsNotFound(err) {
			// consumed concurrently
			return nil, invalidResetToken()
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{Type: events.EventPasswordResetCompleted, Actor: events.ActorFrom(actor)})
	return actor, nil
}

func (s *PasswordResetService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event", string(event.Type)),
			zap.String("kind", string(event.Actor.Kind)),
			zap.Int64("actor_id", event.Actor.ID),
			zap.Error(err))
	}
}

// mergeFieldErrors adds the field messages of extra to a 422 base error.
// Any other base error is returned unchanged.
func mergeFieldErrors(base, extra error) error {
	target := apperrors.ToDomainError(base)
	fields := target.FieldErrors()
	if extra == nil || target.HTTPStatus != http.StatusUnprocessableEntity || fields == nil {
		return base
	}
	for field, msgs := range apperrors.ToDomainError(extra).FieldErrors() {
		fields[field] = append(fields[field], msgs...)
	}
	return target
}

func invalidResetToken() error {
	return apperrors.NewUnprocessable(MsgInvalidResetToken, map[string][]string{"token": {"is invalid or expired"}})
}
