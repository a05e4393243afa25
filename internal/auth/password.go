package auth

import (
	"errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"

	"github.com/staybook/booking-service/internal/domain"
)

// MinPasswordLength applies to every actor kind.
const MinPasswordLength = 6

// MaxPasswordBytes is the most bcrypt will hash.
const MaxPasswordBytes = 72

var (
	ErrConfirmationMismatch = errors.New("doesn't match Password")
	ErrPasswordTooShort     = errors.New("is too short (minimum is 6 characters)")
	ErrPasswordTooLong      = errors.New("is too long (maximum is 72 bytes)")
	ErrWeakPassword         = errors.New("must include at least one lowercase letter, one uppercase letter, one digit, and one special character")
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// PasswordPolicy describes what a new password must satisfy.
type PasswordPolicy struct {
	MinLength      int
	RequireClasses bool
}

// PolicyFor returns the policy for kind. Partners only get the length rule.
func PolicyFor(kind domain.ActorKind) PasswordPolicy {
	if kind == domain.ActorKindPartner {
		return PasswordPolicy{MinLength: MinPasswordLength}
	}
	return PasswordPolicy{MinLength: MinPasswordLength, RequireClasses: true}
}

// Rules returns the policy as ozzo validation rules.
func (p PasswordPolicy) Rules() []validation.Rule {
	rules := []validation.Rule{
		validation.Required,
		validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if len([]rune(s)) < p.MinLength {
				return ErrPasswordTooShort
			}
			if len(s) > MaxPasswordBytes {
				return ErrPasswordTooLong
			}
			return nil
		}),
	}
	if p.RequireClasses {
		rules = append(rules, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if !hasAllClasses(s) {
				return ErrWeakPassword
			}
			return nil
		}))
	}
	return rules
}

// ValidateNewPassword checks password against kind's policy and its
// confirmation, reporting both fields at once.
func ValidateNewPassword(kind domain.ActorKind, password, confirmation string) error {
	return validation.Errors{
		"password": validation.Validate(password, PolicyFor(kind).Rules()...),
		"password_confirmation": validation.Validate(confirmation, validation.By(func(value interface{}) error {
			if s, _ := value.(string); s != password {
				return ErrConfirmationMismatch
			}
			return nil
		})),
	}.Filter()
}

func hasAllClasses(s string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
