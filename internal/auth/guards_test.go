package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/repository/repotest"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

type guardFixture struct {
	app      *fiber.App
	tokens   *auth.TokenManager
	clock    *clock
	admins   *repotest.Admins
	users    *repotest.Users
	partners *repotest.Partners
	lookups  int
}

// countingAdmins counts lookups so the per-request cache can be asserted.
type countingAdmins struct {
	*repotest.Admins
	calls *int
}

func (c countingAdmins) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	*c.calls++
	return c.Admins.GetByID(ctx, id)
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	f := &guardFixture{
		clock:    newClock(),
		admins:   repotest.NewAdmins(),
		users:    repotest.NewUsers(),
		partners: repotest.NewPartners(),
	}
	f.tokens = auth.NewTokenManager("secret", time.Hour, auth.WithClock(f.clock.Now))
	resolver := auth.NewResolver(countingAdmins{Admins: f.admins, calls: &f.lookups}, f.users, f.partners)
	mw := auth.NewMiddleware(f.tokens, resolver, nil, auth.WithRefreshThreshold(30*time.Minute))

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Message})
	}})
	app.Use(mw.Authenticate)

	app.Get("/admin", mw.RequireAdmin(), func(c *fiber.Ctx) error {
		admin, ok := auth.CurrentAdmin(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"email": admin.Email})
	})
	app.Delete("/admin", mw.RequireAdmin(), mw.RequireSuperAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/user", mw.RequireUser(), func(c *fiber.Ctx) error {
		user, ok := auth.CurrentUser(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"email": user.Email})
	})
	app.Get("/partner", mw.RequirePartner(), func(c *fiber.Ctx) error {
		partner, ok := auth.CurrentPartner(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"email": partner.Email})
	})
	f.app = app
	return f
}

func (f *guardFixture) token(t *testing.T, actor domain.Actor) string {
	t.Helper()
	issued, err := f.tokens.IssueFor(actor)
	require.NoError(t, err)
	return issued.Value
}

func (f *guardFixture) do(t *testing.T, method, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return resp, out
}

func TestGuardsRejectMissingToken(t *testing.T) {
	f := newGuardFixture(t)

	cases := map[string]string{
		"/admin":   "Admin must be logged in",
		"/user":    "Please log in as a user",
		"/partner": "Please log in as partner",
	}
	for path, message := range cases {
		resp, body := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, message, body["error"], path)
	}

	resp, _ := f.do(t, http.MethodGet, "/admin", "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleIsolationWithCollidingIDs(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	admin := &domain.Admin{Name: "A", Email: "a@x.com", Role: domain.AdminRoleAdmin}
	user := &domain.User{Name: "U", Email: "u@x.com"}
	partner := &domain.Partner{Name: "P", Email: "p@x.com"}
	require.NoError(t, f.admins.Create(ctx, admin))
	require.NoError(t, f.users.Create(ctx, user))
	require.NoError(t, f.partners.Create(ctx, partner))
	require.Equal(t, admin.ID, user.ID)
	require.Equal(t, user.ID, partner.ID)

	userToken := f.token(t, user)
	adminToken := f.token(t, admin)
	partnerToken := f.token(t, partner)

	resp, _ := f.do(t, http.MethodGet, "/admin", userToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/user", adminToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = f.do(t, http.MethodGet, "/partner", userToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/admin", adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a@x.com", body["email"])
	resp, body = f.do(t, http.MethodGet, "/user", userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u@x.com", body["email"])
	resp, body = f.do(t, http.MethodGet, "/partner", partnerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "p@x.com", body["email"])
}

func TestDeletedActorNoLongerResolves(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()
	admin := &domain.Admin{Name: "A", Email: "a@x.com", Role: domain.AdminRoleAdmin}
	require.NoError(t, f.admins.Create(ctx, admin))
	token := f.token(t, admin)
	require.NoError(t, f.admins.Delete(ctx, admin.ID))

	resp, _ := f.do(t, http.MethodGet, "/admin", token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSuperAdminGuard(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()
	super := &domain.Admin{Name: "S", Email: "s@x.com", Role: domain.AdminRoleSuperAdmin}
	plain := &domain.Admin{Name: "A", Email: "a@x.com", Role: domain.AdminRoleAdmin}
	require.NoError(t, f.admins.Create(ctx, super))
	require.NoError(t, f.admins.Create(ctx, plain))

	resp, body := f.do(t, http.MethodDelete, "/admin", f.token(t, plain))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Only Super Admin can perform this action", body["error"])

	f.lookups = 0
	resp, _ = f.do(t, http.MethodDelete, "/admin", f.token(t, super))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, f.lookups, "chained guards resolve the admin once")

	resp, _ = f.do(t, http.MethodDelete, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshHeaderNearExpiry(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()
	admin := &domain.Admin{Name: "A", Email: "a@x.com", Role: domain.AdminRoleAdmin}
	require.NoError(t, f.admins.Create(ctx, admin))
	token := f.token(t, admin)

	resp, _ := f.do(t, http.MethodGet, "/admin", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Authorization"))

	f.clock.Advance(45 * time.Minute)
	resp, _ = f.do(t, http.MethodGet, "/admin", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	header := resp.Header.Get("Authorization")
	require.NotEmpty(t, header)
	claims, err := f.tokens.Verify(ctx, header[len("Bearer "):])
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, admin.ID, *claims.AdminID)

	// the old token keeps working until it expires
	resp, _ = f.do(t, http.MethodGet, "/admin", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	f.clock.Advance(20 * time.Minute)
	resp, _ = f.do(t, http.MethodGet, "/admin", token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Authorization"))
}
