package dto

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/service"
)

// LoginRequest payload for every login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUserRequest payload for guest sign-up.
type RegisterUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ToInput converts the payload for the auth service.
func (r RegisterUserRequest) ToInput() service.RegisterUserInput {
	return service.RegisterUserInput{
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
	}
}

// RegisterPartnerRequest payload for partner sign-up.
type RegisterPartnerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	CompanyName          string `json:"company_name"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ToInput converts the payload for the auth service.
func (r RegisterPartnerRequest) ToInput() service.RegisterPartnerInput {
	return service.RegisterPartnerInput{
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		CompanyName:          r.CompanyName,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
	}
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate checks the email shape before any lookup.
func (r ForgotPasswordRequest) Validate() error {
	return validation.Errors{
		"email": validation.Validate(strings.TrimSpace(r.Email), validation.Required, is.Email),
	}.Filter()
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ChangePasswordRequest updates the password of the signed-in actor.
type ChangePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ToInput converts the payload for the auth service.
func (r ChangePasswordRequest) ToInput() service.ChangePasswordInput {
	return service.ChangePasswordInput{
		CurrentPassword:      r.CurrentPassword,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
	}
}

// TokenResponse describes an issued bearer token.
type TokenResponse struct {
	Token     string           `json:"token"`
	Type      domain.ActorKind `json:"type"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// NewTokenResponse wraps an issued token.
func NewTokenResponse(t domain.IssuedToken) TokenResponse {
	return TokenResponse{Token: t.Value, Type: t.Kind, ExpiresAt: t.ExpiresAt}
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}
