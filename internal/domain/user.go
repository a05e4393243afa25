package domain

import "time"

// User is a guest who books stays.
type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	ResetFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) ActorID() int64         { return u.ID }
func (u *User) Kind() ActorKind        { return ActorKindUser }
func (u *User) ActorName() string      { return u.Name }
func (u *User) PasswordDigest() string { return u.PasswordHash }
func (u *User) ActorEmail() string     { return u.Email }
func (u *User) TokenRole() string      { return string(ActorKindUser) }
