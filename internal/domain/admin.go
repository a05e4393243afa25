package domain

import (
	"fmt"
	"time"
)

// AdminRole is stored as an integer; 0 marks the single super admin.
type AdminRole int

const (
	AdminRoleSuperAdmin AdminRole = 0
	AdminRoleAdmin      AdminRole = 1
)

func (r AdminRole) String() string {
	switch r {
	case AdminRoleSuperAdmin:
		return "super_admin"
	case AdminRoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("AdminRole(%d)", int(r))
}

// MarshalText renders the canonical API representation.
func (r AdminRole) MarshalText() ([]byte, error) {
	if r != AdminRoleSuperAdmin && r != AdminRoleAdmin {
		return nil, fmt.Errorf("unknown admin role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts only the canonical names.
func (r *AdminRole) UnmarshalText(text []byte) error {
	parsed, err := ParseAdminRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseAdminRole maps "super_admin"/"admin" onto AdminRole.
func ParseAdminRole(s string) (AdminRole, error) {
	switch s {
	case "super_admin":
		return AdminRoleSuperAdmin, nil
	case "admin":
		return AdminRoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown admin role %q", s)
}

// Admin is a back-office operator.
type Admin struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         AdminRole
	ResetFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Admin) ActorID() int64         { return a.ID }
func (a *Admin) Kind() ActorKind        { return ActorKindAdmin }
func (a *Admin) ActorName() string      { return a.Name }
func (a *Admin) PasswordDigest() string { return a.PasswordHash }
func (a *Admin) ActorEmail() string     { return a.Email }
func (a *Admin) TokenRole() string      { return a.Role.String() }
func (a *Admin) IsSuperAdmin() bool     { return a.Role == AdminRoleSuperAdmin }
