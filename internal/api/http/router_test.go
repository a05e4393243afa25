package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/staybook/booking-service/internal/api/http"
	"github.com/staybook/booking-service/internal/api/http/handlers"
	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/config"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/events"
	"github.com/staybook/booking-service/internal/mail"
	"github.com/staybook/booking-service/internal/observability"
	"github.com/staybook/booking-service/internal/repository/repotest"
	"github.com/staybook/booking-service/internal/service"
)

const password = "Secret1!"

type captureQueue struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (q *captureQueue) Enqueue(msg mail.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *captureQueue) resetMails() []mail.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []mail.Message
	for _, m := range q.msgs {
		if m.Subject == "Reset your password" {
			out = append(out, m)
		}
	}
	return out
}

type server struct {
	app      *fiber.App
	now      time.Time
	tokens   *auth.TokenManager
	admins   *repotest.Admins
	users    *repotest.Users
	partners *repotest.Partners
	queue    *captureQueue
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{
		now:      time.Now().UTC(),
		admins:   repotest.NewAdmins(),
		users:    repotest.NewUsers(),
		partners: repotest.NewPartners(),
		queue:    &captureQueue{},
	}
	clock := func() time.Time { return s.now }
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	authCfg := config.AuthConfig{BcryptCost: bcrypt.MinCost, PasswordResetTTLMinutes: 60}

	s.tokens = auth.NewTokenManager("test-secret", 24*time.Hour, auth.WithClock(clock))
	resolver := auth.NewResolver(s.admins, s.users, s.partners)
	mw := auth.NewMiddleware(s.tokens, resolver, logger, auth.WithRefreshThreshold(30*time.Minute))
	stores := service.NewActorStores(s.admins, s.users, s.partners)
	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, s.queue, logger, config.NotificationConfig{FrontendURL: "https://hotel.test"}, time.Hour).RegisterHandlers()

	authService := service.NewAuthService(authCfg, service.AuthDependencies{
		Stores:      stores,
		UserRepo:    s.users,
		PartnerRepo: s.partners,
		Tokens:      s.tokens,
		Resolver:    resolver,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	resets := service.NewPasswordResetService(authCfg, stores, dispatcher, logger, service.WithResetClock(clock))
	adminService := service.NewAdminService(authCfg, s.admins, logger)

	s.app = fiber.New()
	httptransport.RegisterMiddlewares(s.app, logger, metrics, httptransport.MiddlewareConfig{Timeout: 5 * time.Second})
	httptransport.RegisterRoutes(s.app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("booking-service", "test", nil, nil, metrics),
		Session:        handlers.NewSessionHandler(authService, metrics, logger),
		Admins:         handlers.NewAdminHandler(adminService),
		Users:          handlers.NewUsersHandler(authService),
		Partners:       handlers.NewPartnersHandler(authService),
		AdminResets:    handlers.NewPasswordResetHandler(domain.ActorKindAdmin, resets),
		UserResets:     handlers.NewPasswordResetHandler(domain.ActorKindUser, resets),
		PartnerResets:  handlers.NewPasswordResetHandler(domain.ActorKindPartner, resets),
		AuthMiddleware: mw,
	})
	return s
}

func (s *server) seedAdmin(t *testing.T, email string, role domain.AdminRole) *domain.Admin {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	admin := &domain.Admin{Name: "Admin", Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, s.admins.Create(context.Background(), admin))
	return admin
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func errorMessage(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	msg, _ := errObj["message"].(string)
	return msg
}

func TestAdminTokenOnlyOpensAdminRoutes(t *testing.T) {
	s := newServer(t)
	s.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)

	resp, body := s.do(t, http.MethodPost, "/admin/login", "", map[string]string{"email": "a@x.com", "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	admin, _ := body["admin"].(map[string]any)
	assert.Equal(t, "a@x.com", admin["email"])
	assert.Equal(t, "admin", admin["role"])
	assert.NotContains(t, admin, "password_hash")

	claims, err := s.tokens.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.ActorKindAdmin, claims.Type)

	resp, body = s.do(t, http.MethodGet, "/user/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Please log in as a user", errorMessage(body))

	resp, body = s.do(t, http.MethodGet, "/partners/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Please log in as partner", errorMessage(body))

	resp, _ = s.do(t, http.MethodGet, "/admin/profile", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginWithWrongPassword(t *testing.T) {
	s := newServer(t)
	s.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)

	resp, body := s.do(t, http.MethodPost, "/admin/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", errorMessage(body))
}

func TestProfileWithoutToken(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, http.MethodGet, "/admin/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Admin must be logged in", errorMessage(body))
}

func TestSuperAdminRoutes(t *testing.T) {
	s := newServer(t)
	root := s.seedAdmin(t, "root@x.com", domain.AdminRoleSuperAdmin)
	plain := s.seedAdmin(t, "plain@x.com", domain.AdminRoleAdmin)

	plainToken, err := s.tokens.IssueFor(plain)
	require.NoError(t, err)
	rootToken, err := s.tokens.IssueFor(root)
	require.NoError(t, err)

	resp, body := s.do(t, http.MethodDelete, "/admin/admins/1", plainToken.Value, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Only Super Admin can perform this action", errorMessage(body))

	resp, body = s.do(t, http.MethodGet, "/admin/admins", plainToken.Value, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["admins"], 2)

	resp, body = s.do(t, http.MethodPost, "/admin/admins", rootToken.Value, map[string]string{
		"name": "Second", "email": "second@x.com", "password": password, "password_confirmation": password, "role": "super_admin",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["errors"], "role")

	resp, body = s.do(t, http.MethodPatch, "/admin/admins/2/role", rootToken.Value, map[string]string{"role": "super_admin"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["errors"], "role")

	resp, body = s.do(t, http.MethodDelete, "/admin/admins/1", rootToken.Value, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Super Admin cannot be deleted", errorMessage(body))

	resp, _ = s.do(t, http.MethodDelete, "/admin/admins/2", rootToken.Value, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, http.MethodPost, "/user/forgot-password", "", map[string]string{"email": "nobody@x.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, errorMessage(body))
	assert.Empty(t, s.queue.resetMails())
}

func TestPasswordResetEndToEnd(t *testing.T) {
	s := newServer(t)
	admin := s.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)

	resp, _ := s.do(t, http.MethodPost, "/admin/forgot-password", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := s.admins.GetByID(context.Background(), admin.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetPasswordToken)
	token := *stored.ResetPasswordToken

	mails := s.queue.resetMails()
	require.Len(t, mails, 1)
	assert.Equal(t, "a@x.com", mails[0].To)
	assert.Contains(t, mails[0].Text, "https://hotel.test/admin/reset-password?token="+url.QueryEscape(token))

	resp, _ = s.do(t, http.MethodGet, "/admin/reset-password/validate?token="+url.QueryEscape(token), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/admin/reset-password", "", map[string]string{
		"token": token, "password": "N3w-secret", "password_confirmation": "Other-1!",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	fields, _ := body["errors"].(map[string]any)
	assert.Equal(t, []any{"doesn't match Password"}, fields["password_confirmation"])

	resp, _ = s.do(t, http.MethodPost, "/admin/reset-password", "", map[string]string{
		"token": token, "password": "N3w-secret", "password_confirmation": "N3w-secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err = s.admins.GetByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetPasswordToken)
	assert.Nil(t, stored.ResetPasswordSentAt)

	resp, body = s.do(t, http.MethodPost, "/admin/reset-password", "", map[string]string{
		"token": token, "password": "N3w-secret", "password_confirmation": "N3w-secret",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Invalid or expired reset token", errorMessage(body))
}

func TestPartnerRegistration(t *testing.T) {
	s := newServer(t)
	payload := map[string]string{
		"name": "Host", "email": "host@x.com", "company_name": "Inn Co",
		"password": "hostpass", "password_confirmation": "hostpass",
	}

	resp, body := s.do(t, http.MethodPost, "/partners/register", "", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	partner, _ := body["partner"].(map[string]any)
	assert.Equal(t, "Inn Co", partner["company_name"])

	resp, body = s.do(t, http.MethodPost, "/partners/register", "", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["errors"], "email")
}

func TestNearExpiryTokenIsRefreshedInHeader(t *testing.T) {
	s := newServer(t)
	admin := s.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)
	issued, err := s.tokens.IssueFor(admin)
	require.NoError(t, err)

	s.now = s.now.Add(24*time.Hour - 10*time.Minute)
	resp, _ := s.do(t, http.MethodGet, "/admin/profile", issued.Value, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	header := resp.Header.Get(fiber.HeaderAuthorization)
	require.True(t, strings.HasPrefix(header, "Bearer "))
	assert.NotEqual(t, "Bearer "+issued.Value, header)
}

func TestRefreshEndpointAcceptsRecentlyExpiredToken(t *testing.T) {
	s := newServer(t)
	admin := s.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)
	issued, err := s.tokens.IssueFor(admin)
	require.NoError(t, err)

	s.now = s.now.Add(25 * time.Hour)
	resp, _ := s.do(t, http.MethodGet, "/admin/profile", issued.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/auth/refresh", issued.Value, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fresh, _ := body["token"].(string)
	require.NotEmpty(t, fresh)
	assert.Equal(t, "Bearer "+fresh, resp.Header.Get(fiber.HeaderAuthorization))

	resp, _ = s.do(t, http.MethodGet, "/admin/profile", fresh, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.now = s.now.Add(48 * time.Hour)
	resp, _ = s.do(t, http.MethodPost, "/auth/refresh", issued.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, http.MethodDelete, "/logout", "garbage", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
}

func TestMalformedBody(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/user/register", strings.NewReader("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLiveProbe(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])
}

func TestReadyProbeHidesDependencyErrors(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	errObj, _ := body["error"].(map[string]any)
	details, _ := errObj["details"].(map[string]any)
	assert.Equal(t, "unreachable", details["postgres"])
	assert.Equal(t, "disabled", details["redis"])
}

func TestMetricsRequireAdmin(t *testing.T) {
	s := newServer(t)
	s.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)

	resp, _ := s.do(t, http.MethodGet, "/health/metrics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/admin/login", "", map[string]string{"email": "a@x.com", "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)

	resp, body = s.do(t, http.MethodGet, "/health/metrics", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "auth")
}
