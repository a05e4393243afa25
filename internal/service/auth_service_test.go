package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/service"
)

func TestLoginIssuesTokenForActorKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)

	actor, token, err := f.auth.Login(ctx, domain.ActorKindAdmin, " A@X.com ", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, actor.ActorID())
	assert.Equal(t, domain.ActorKindAdmin, token.Kind)

	claims, err := f.tokens.Verify(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.ActorKindAdmin, claims.Type)
	assert.Equal(t, "admin", claims.Role)
	require.NotNil(t, claims.AdminID)
	assert.Equal(t, admin.ID, *claims.AdminID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)

	cases := []struct {
		name     string
		kind     domain.ActorKind
		email    string
		password string
	}{
		{"wrong password", domain.ActorKindAdmin, "a@x.com", "nope"},
		{"unknown email", domain.ActorKindAdmin, "b@x.com", strongPassword},
		{"admin email on user login", domain.ActorKindUser, "a@x.com", strongPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.auth.Login(ctx, tc.kind, tc.email, tc.password)
			de := requireStatus(t, err, http.StatusUnauthorized)
			assert.Equal(t, "Invalid email or password", de.Message)
		})
	}
}

func TestRegisterUserSignsInAndSendsWelcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, token, err := f.auth.RegisterUser(ctx, service.RegisterUserInput{
		Name:                 "Guest",
		Email:                "Guest@Example.com",
		Password:             strongPassword,
		PasswordConfirmation: strongPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", user.Email)
	assert.Equal(t, domain.ActorKindUser, token.Kind)
	assert.Len(t, f.queue.withSubject("Welcome"), 1)
}

func TestRegisterUserCollectsEveryFieldError(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "taken@x.com")

	_, _, err := f.auth.RegisterUser(context.Background(), service.RegisterUserInput{
		Email:                "taken@x.com",
		Password:             "alllowercase1!",
		PasswordConfirmation: "different",
	})
	de := requireStatus(t, err, http.StatusUnprocessableEntity)
	fields := de.FieldErrors()
	assert.Contains(t, fields, "name")
	assert.Equal(t, []string{"has already been taken"}, fields["email"])
	assert.Contains(t, fields, "password")
	assert.Equal(t, []string{"doesn't match Password"}, fields["password_confirmation"])
}

func TestRegisterPartnerOnlyChecksLength(t *testing.T) {
	f := newFixture(t)

	partner, token, err := f.auth.RegisterPartner(context.Background(), service.RegisterPartnerInput{
		Name:                 "Host",
		Email:                "host@x.com",
		CompanyName:          "Inn Co",
		Password:             "alllowercase1!",
		PasswordConfirmation: "alllowercase1!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Inn Co", partner.CompanyName)
	assert.Equal(t, domain.ActorKindPartner, token.Kind)

	_, _, err = f.auth.RegisterPartner(context.Background(), service.RegisterPartnerInput{
		Name:                 "Other",
		Email:                "other@x.com",
		Password:             "abc12",
		PasswordConfirmation: "abc12",
	})
	de := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, []string{"is too short (minimum is 6 characters)"}, de.FieldErrors()["password"])
}

func TestRefreshTokenInsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "guest@x.com")

	issued, err := f.tokens.IssueFor(user)
	require.NoError(t, err)

	f.now = f.now.Add(3 * time.Hour)
	_, err = f.tokens.Verify(ctx, issued.Value)
	require.Error(t, err)

	actor, fresh, err := f.auth.RefreshToken(ctx, issued.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ActorID())
	assert.NotEqual(t, issued.ID, fresh.ID)

	_, err = f.tokens.Verify(ctx, fresh.Value)
	require.NoError(t, err)
}

func TestRefreshTokenRejectsElapsedWindowAndDeletedActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedAdmin(t, "a@x.com", domain.AdminRoleAdmin)

	issued, err := f.tokens.IssueFor(admin)
	require.NoError(t, err)

	f.now = f.now.Add(26 * time.Hour)
	_, _, err = f.auth.RefreshToken(ctx, issued.Value)
	requireStatus(t, err, http.StatusUnauthorized)

	f.now = f.now.Add(-26 * time.Hour)
	require.NoError(t, f.admins.Delete(ctx, admin.ID))
	_, _, err = f.auth.RefreshToken(ctx, issued.Value)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestLogoutIgnoresGarbage(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.auth.Logout(context.Background(), ""))
	assert.NoError(t, f.auth.Logout(context.Background(), "not-a-token"))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "guest@x.com")

	err := f.auth.ChangePassword(ctx, user, service.ChangePasswordInput{
		CurrentPassword:      "wrong",
		Password:             "N3w-secret",
		PasswordConfirmation: "N3w-secret",
	})
	de := requireStatus(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, de.FieldErrors(), "current_password")

	require.NoError(t, f.auth.ChangePassword(ctx, user, service.ChangePasswordInput{
		CurrentPassword:      strongPassword,
		Password:             "N3w-secret",
		PasswordConfirmation: "N3w-secret",
	}))
	_, _, err = f.auth.Login(ctx, domain.ActorKindUser, "guest@x.com", "N3w-secret")
	require.NoError(t, err)
}
