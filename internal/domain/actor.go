package domain

import "time"

// ActorKind distinguishes the three kinds of authenticated principal.
type ActorKind string

const (
	ActorKindAdmin   ActorKind = "admin"
	ActorKindUser    ActorKind = "user"
	ActorKindPartner ActorKind = "partner"
)

// ActorKinds lists every kind in a stable order.
var ActorKinds = []ActorKind{ActorKindAdmin, ActorKindUser, ActorKindPartner}

// IDField is the token payload key carrying the subject id for this kind.
func (k ActorKind) IDField() string {
	return string(k) + "_id"
}

// Valid reports whether k is a known kind.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorKindAdmin, ActorKindUser, ActorKindPartner:
		return true
	}
	return false
}

// Actor is implemented by Admin, User and Partner.
type Actor interface {
	ActorID() int64
	Kind() ActorKind
	ActorEmail() string
	ActorName() string
	PasswordDigest() string
	TokenRole() string
	ResetState() ResetFields
}

// ResetFields are the reset-token columns every actor row carries.
type ResetFields struct {
	ResetPasswordToken  *string
	ResetPasswordSentAt *time.Time
}

// ResetState returns a copy of the reset columns.
func (r ResetFields) ResetState() ResetFields {
	return r
}

// ResetTokenValid reports whether the stored reset token is still inside its validity window.
func (r ResetFields) ResetTokenValid(now time.Time, ttl time.Duration) bool {
	if r.ResetPasswordToken == nil || *r.ResetPasswordToken == "" || r.ResetPasswordSentAt == nil {
		return false
	}
	return now.Sub(*r.ResetPasswordSentAt) <= ttl
}
