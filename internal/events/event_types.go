package events

import (
	"time"

	"github.com/staybook/booking-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventActorRegistered        EventType = "actor_registered"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind  domain.ActorKind `json:"kind"`
	ID    int64            `json:"id"`
	Name  string           `json:"name"`
	Email string           `json:"email"`
}

// ActorFrom copies the identifying fields of a.
func ActorFrom(a domain.Actor) Actor {
	return Actor{Kind: a.Kind(), ID: a.ActorID(), Name: a.ActorName(), Email: a.ActorEmail()}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PasswordResetRequestedPayload carries the token to embed in the reset link.
type PasswordResetRequestedPayload struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
