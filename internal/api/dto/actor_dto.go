package dto

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/service"
)

// AdminResponse is the public view of an admin.
type AdminResponse struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Role      domain.AdminRole `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewAdminResponse hides credentials and reset state.
func NewAdminResponse(a *domain.Admin) AdminResponse {
	return AdminResponse{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role, CreatedAt: a.CreatedAt}
}

// NewAdminList maps a page of admins.
func NewAdminList(admins []domain.Admin) []AdminResponse {
	out := make([]AdminResponse, 0, len(admins))
	for i := range admins {
		out = append(out, NewAdminResponse(&admins[i]))
	}
	return out
}

// UserResponse is the public view of a guest.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse hides credentials and reset state.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, CreatedAt: u.CreatedAt}
}

// PartnerResponse is the public view of a partner.
type PartnerResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewPartnerResponse hides credentials and reset state.
func NewPartnerResponse(p *domain.Partner) PartnerResponse {
	return PartnerResponse{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, CompanyName: p.CompanyName, CreatedAt: p.CreatedAt}
}

// NewActorResponse picks the view matching the actor's kind.
func NewActorResponse(actor domain.Actor) any {
	switch a := actor.(type) {
	case *domain.Admin:
		return NewAdminResponse(a)
	case *domain.User:
		return NewUserResponse(a)
	case *domain.Partner:
		return NewPartnerResponse(a)
	default:
		return nil
	}
}

// CreateAdminRequest payload for adding an admin.
type CreateAdminRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
}

// ToInput converts the payload; an empty role means a regular admin.
func (r CreateAdminRequest) ToInput() (service.CreateAdminInput, error) {
	role := domain.AdminRoleAdmin
	if r.Role != "" {
		parsed, err := domain.ParseAdminRole(r.Role)
		if err != nil {
			return service.CreateAdminInput{}, validation.Errors{"role": errors.New("is not included in the list")}
		}
		role = parsed
	}
	return service.CreateAdminInput{
		Name:                 r.Name,
		Email:                r.Email,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
		Role:                 role,
	}, nil
}

// UpdateAdminRoleRequest payload for promotions and demotions.
type UpdateAdminRoleRequest struct {
	Role string `json:"role"`
}

// Validate accepts the canonical role names only.
func (r UpdateAdminRoleRequest) Validate() error {
	return validation.Errors{
		"role": validation.Validate(r.Role, validation.Required, validation.In(
			domain.AdminRoleSuperAdmin.String(),
			domain.AdminRoleAdmin.String(),
		)),
	}.Filter()
}
