package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	claimsKey    = "auth_claims"
	rawTokenKey  = "auth_raw_token"
	refreshedKey = "auth_refreshed"
)

// Middleware authenticates bearer tokens and gates routes by actor kind.
type Middleware struct {
	tokens           *TokenManager
	resolver         *Resolver
	logger           *zap.Logger
	refreshThreshold time.Duration
	onRefresh        func(kind string)
}

// MiddlewareOption customizes Middleware.
type MiddlewareOption func(*Middleware)

// WithRefreshThreshold sets the remaining lifetime below which tokens are reissued.
func WithRefreshThreshold(d time.Duration) MiddlewareOption {
	return func(m *Middleware) {
		if d > 0 {
			m.refreshThreshold = d
		}
	}
}

// WithRefreshHook is invoked whenever a token is reissued.
func WithRefreshHook(fn func(kind string)) MiddlewareOption {
	return func(m *Middleware) { m.onRefresh = fn }
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, resolver *Resolver, logger *zap.Logger, opts ...MiddlewareOption) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Middleware{
		tokens:           tokens,
		resolver:         resolver,
		logger:           logger,
		refreshThreshold: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate verifies the bearer token, if any, and stores its claims.
// It never rejects; guards decide what an absent or bad token means.
func (m *Middleware) Authenticate(c *fiber.Ctx) error {
	raw, ok := BearerToken(c)
	if !ok {
		return c.Next()
	}
	c.Locals(rawTokenKey, raw)

	claims, err := m.tokens.Verify(c.UserContext(), raw)
	if err != nil {
		if !errors.Is(err, ErrTokenExpired) && !errors.Is(err, ErrTokenMalformed) {
			m.logger.Debug("token rejected", zap.Error(err), zap.String("path", c.Path()))
		}
		return c.Next()
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// ClaimsFromContext returns the verified claims of the current request.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// RawTokenFromContext returns the bearer token as presented, verified or not.
func RawTokenFromContext(c *fiber.Ctx) (string, bool) {
	raw, ok := c.Locals(rawTokenKey).(string)
	return raw, ok && raw != ""
}

// refreshIfNearExpiry attaches a reissued token to the response when the
// current one is close to expiring. At most once per request.
func (m *Middleware) refreshIfNearExpiry(c *fiber.Ctx) {
	if done, _ := c.Locals(refreshedKey).(bool); done {
		return
	}
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return
	}
	c.Locals(refreshedKey, true)

	if m.tokens.RemainingLifetime(claims) >= m.refreshThreshold {
		return
	}
	issued, err := m.tokens.Refresh(claims)
	if err != nil {
		m.logger.Warn("token refresh failed", zap.Error(err), zap.String("type", string(claims.Type)))
		return
	}
	c.Set(fiber.HeaderAuthorization, "Bearer "+issued.Value)
	if m.onRefresh != nil {
		m.onRefresh(string(claims.Type))
	}
}
