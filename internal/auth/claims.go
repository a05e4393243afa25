package auth

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/staybook/booking-service/internal/domain"
)

// DefaultRole is stamped on tokens issued without an explicit role.
const DefaultRole = "user"

// Claims is the token payload. Exactly one of the *_id fields is set and it
// must agree with Type.
type Claims struct {
	AdminID   *int64           `json:"admin_id,omitempty"`
	UserID    *int64           `json:"user_id,omitempty"`
	PartnerID *int64           `json:"partner_id,omitempty"`
	Role      string           `json:"role"`
	Type      domain.ActorKind `json:"type"`
	jwt.RegisteredClaims
}

// ClaimsFor builds the payload describing actor.
func ClaimsFor(actor domain.Actor) Claims {
	id := actor.ActorID()
	claims := Claims{Role: actor.TokenRole(), Type: actor.Kind()}
	claims.setSubject(actor.Kind(), id)
	return claims
}

func (c *Claims) setSubject(kind domain.ActorKind, id int64) {
	switch kind {
	case domain.ActorKindAdmin:
		c.AdminID = &id
	case domain.ActorKindUser:
		c.UserID = &id
	case domain.ActorKindPartner:
		c.PartnerID = &id
	}
}

// SubjectID returns the id stored under kind's id field.
func (c *Claims) SubjectID(kind domain.ActorKind) (int64, bool) {
	var id *int64
	switch kind {
	case domain.ActorKindAdmin:
		id = c.AdminID
	case domain.ActorKindUser:
		id = c.UserID
	case domain.ActorKindPartner:
		id = c.PartnerID
	}
	if id == nil {
		return 0, false
	}
	return *id, true
}

// Validate is called by the jwt parser after the registered claims checks.
func (c Claims) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("unknown token type %q", c.Type)
	}
	present := 0
	for _, kind := range domain.ActorKinds {
		if _, ok := c.SubjectID(kind); ok {
			present++
		}
	}
	if present != 1 {
		return errors.New("token must carry exactly one subject id")
	}
	if _, ok := c.SubjectID(c.Type); !ok {
		return fmt.Errorf("token type %q does not match its subject id", c.Type)
	}
	return nil
}

func (c Claims) clone() Claims {
	out := c
	out.AdminID = cloneID(c.AdminID)
	out.UserID = cloneID(c.UserID)
	out.PartnerID = cloneID(c.PartnerID)
	if c.Audience != nil {
		out.Audience = append(jwt.ClaimStrings{}, c.Audience...)
	}
	return out
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
