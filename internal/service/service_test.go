package service_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/staybook/booking-service/internal/auth"
	"github.com/staybook/booking-service/internal/config"
	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/events"
	"github.com/staybook/booking-service/internal/mail"
	"github.com/staybook/booking-service/internal/repository/repotest"
	"github.com/staybook/booking-service/internal/service"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

const strongPassword = "Secret1!"

type captureQueue struct {
	mu   sync.Mutex
	msgs []mail.Message
	err  error
}

func (q *captureQueue) Enqueue(msg mail.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *captureQueue) withSubject(subject string) []mail.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []mail.Message
	for _, m := range q.msgs {
		if m.Subject == subject {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	now      time.Time
	admins   *repotest.Admins
	users    *repotest.Users
	partners *repotest.Partners
	tokens   *auth.TokenManager
	queue    *captureQueue
	auth     *service.AuthService
	resets   *service.PasswordResetService
	adminSvc *service.AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		admins:   repotest.NewAdmins(),
		users:    repotest.NewUsers(),
		partners: repotest.NewPartners(),
		queue:    &captureQueue{},
	}
	clock := func() time.Time { return f.now }
	cfg := config.AuthConfig{BcryptCost: bcrypt.MinCost, PasswordResetTTLMinutes: 60}

	f.tokens = auth.NewTokenManager("secret", time.Hour, auth.WithClock(clock))
	resolver := auth.NewResolver(f.admins, f.users, f.partners)
	stores := service.NewActorStores(f.admins, f.users, f.partners)
	dispatcher := events.NewInMemoryDispatcher()

	service.NewNotificationService(dispatcher, f.queue, nil, config.NotificationConfig{FrontendURL: "https://hotel.test"}, cfg.PasswordResetTTL()).RegisterHandlers()

	f.auth = service.NewAuthService(cfg, service.AuthDependencies{
		Stores:      stores,
		UserRepo:    f.users,
		PartnerRepo: f.partners,
		Tokens:      f.tokens,
		Resolver:    resolver,
		Dispatcher:  dispatcher,
	})
	f.resets = service.NewPasswordResetService(cfg, stores, dispatcher, nil, service.WithResetClock(clock))
	f.adminSvc = service.NewAdminService(cfg, f.admins, nil)
	return f
}

func (f *fixture) seedAdmin(t *testing.T, email string, role domain.AdminRole) *domain.Admin {
	t.Helper()
	hash, err := auth.HashPassword(strongPassword, bcrypt.MinCost)
	require.NoError(t, err)
	admin := &domain.Admin{Name: "Admin", Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, f.admins.Create(context.Background(), admin))
	return admin
}

func (f *fixture) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(strongPassword, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Name: "Guest", Email: email, PasswordHash: hash}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) seedPartner(t *testing.T, email string) *domain.Partner {
	t.Helper()
	hash, err := auth.HashPassword(strongPassword, bcrypt.MinCost)
	require.NoError(t, err)
	partner := &domain.Partner{Name: "Host", Email: email, CompanyName: "Inn Co", PasswordHash: hash}
	require.NoError(t, f.partners.Create(context.Background(), partner))
	return partner
}

// resetTokenFromMail extracts the token from the last reset email.
func (f *fixture) resetTokenFromMail(t *testing.T) (string, string) {
	t.Helper()
	msgs := f.queue.withSubject("Reset your password")
	require.NotEmpty(t, msgs)
	link := strings.TrimPrefix(msgs[len(msgs)-1].Text, "Reset your password: ")
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return parsed.Query().Get("token"), link
}

func requireStatus(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, status, de.HTTPStatus, de.Message)
	return de
}

type failingQueue struct{}

func (failingQueue) Enqueue(mail.Message) error { return errors.New("queue full") }
