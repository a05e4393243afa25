package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/staybook/booking-service/internal/domain"
)

var (
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenExpired         = errors.New("token is expired")
	ErrTokenSignature       = errors.New("token signature is invalid")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrRefreshWindowElapsed = errors.New("token is past its refresh window")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret        []byte
	ttl           time.Duration
	refreshWindow time.Duration
	denylist      Denylist
	now           func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) { tm.now = now }
}

// WithDenylist enables revocation checks.
func WithDenylist(d Denylist) TokenOption {
	return func(tm *TokenManager) {
		if d != nil {
			tm.denylist = d
		}
	}
}

// WithRefreshWindow sets how long after expiry a token may still be exchanged.
func WithRefreshWindow(window time.Duration) TokenOption {
	return func(tm *TokenManager) {
		if window > 0 {
			tm.refreshWindow = window
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	tm := &TokenManager{
		secret:        []byte(secret),
		ttl:           ttl,
		refreshWindow: 24 * time.Hour,
		denylist:      NoopDenylist{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// TTL is the default token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Now exposes the manager's clock so callers share one notion of time.
func (tm *TokenManager) Now() time.Time {
	return tm.now()
}

// Issue signs claims with an expiry of now+ttl. A missing jti or role is filled in.
func (tm *TokenManager) Issue(claims Claims, ttl time.Duration) (domain.IssuedToken, error) {
	if ttl <= 0 {
		ttl = tm.ttl
	}
	out := claims.clone()
	if err := out.Validate(); err != nil {
		return domain.IssuedToken{}, err
	}

	now := tm.now()
	expiresAt := now.Add(ttl)
	out.ExpiresAt = jwt.NewNumericDate(expiresAt)
	out.IssuedAt = jwt.NewNumericDate(now)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Role == "" {
		out.Role = DefaultRole
	}
	if out.Subject == "" {
		id, _ := out.SubjectID(out.Type)
		out.Subject = fmt.Sprintf("%s:%d", out.Type, id)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &out)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{
		Value:     tokenString,
		ID:        out.ID,
		Kind:      out.Type,
		ExpiresAt: expiresAt,
	}, nil
}

// IssueFor issues a token with the default lifetime for actor.
func (tm *TokenManager) IssueFor(actor domain.Actor) (domain.IssuedToken, error) {
	return tm.Issue(ClaimsFor(actor), tm.ttl)
}

// Refresh reissues claims with a fresh expiry and a new jti.
func (tm *TokenManager) Refresh(claims *Claims) (domain.IssuedToken, error) {
	if claims == nil {
		return domain.IssuedToken{}, ErrTokenMalformed
	}
	next := claims.clone()
	next.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:   claims.Issuer,
		Subject:  claims.Subject,
		Audience: next.Audience,
	}
	return tm.Issue(next, tm.ttl)
}

// Verify validates signature, expiry and payload shape, then checks revocation.
func (tm *TokenManager) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if err := tm.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshable accepts a correctly signed token whose expiry lies less than
// the refresh window in the past. Only the refresh endpoint may rely on it.
func (tm *TokenManager) VerifyRefreshable(ctx context.Context, tokenStr string) (*Claims, error) {
	claims, err := tm.parse(tokenStr, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if err := claims.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}
	if !tm.now().Before(claims.ExpiresAt.Add(tm.refreshWindow)) {
		return nil, ErrRefreshWindowElapsed
	}
	if err := tm.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Revoke denylists the token until the end of its refresh window.
func (tm *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return tm.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Add(tm.refreshWindow))
}

// RemainingLifetime is exp - now; negative once expired.
func (tm *TokenManager) RemainingLifetime(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Sub(tm.now())
}

func (tm *TokenManager) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func (tm *TokenManager) checkRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := tm.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}
