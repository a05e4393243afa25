package domain

import "time"

// Partner is a property owner listing rooms on the platform.
type Partner struct {
	ID           int64
	Name         string
	Email        string
	CompanyName  string
	Phone        string
	PasswordHash string
	ResetFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Partner) ActorID() int64         { return p.ID }
func (p *Partner) Kind() ActorKind        { return ActorKindPartner }
func (p *Partner) ActorName() string      { return p.Name }
func (p *Partner) PasswordDigest() string { return p.PasswordHash }
func (p *Partner) ActorEmail() string     { return p.Email }
func (p *Partner) TokenRole() string      { return string(ActorKindPartner) }
