package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoleText(t *testing.T) {
	out, err := json.Marshal(map[string]AdminRole{"role": AdminRoleSuperAdmin})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"super_admin"}`, string(out))

	var in struct {
		Role AdminRole `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &in))
	assert.Equal(t, AdminRoleAdmin, in.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"root"}`), &in))
	_, err = AdminRole(7).MarshalText()
	assert.Error(t, err)
}

func TestActorKindIDField(t *testing.T) {
	assert.Equal(t, "admin_id", ActorKindAdmin.IDField())
	assert.Equal(t, "user_id", ActorKindUser.IDField())
	assert.Equal(t, "partner_id", ActorKindPartner.IDField())
	assert.False(t, ActorKind("guest").Valid())
}

func TestResetTokenValid(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	token := "abc"

	sent := now.Add(-59 * time.Minute)
	assert.True(t, ResetFields{ResetPasswordToken: &token, ResetPasswordSentAt: &sent}.ResetTokenValid(now, time.Hour))

	stale := now.Add(-61 * time.Minute)
	assert.False(t, ResetFields{ResetPasswordToken: &token, ResetPasswordSentAt: &stale}.ResetTokenValid(now, time.Hour))

	assert.False(t, ResetFields{ResetPasswordSentAt: &sent}.ResetTokenValid(now, time.Hour))
}
