package domain

import "time"

// IssuedToken describes a freshly signed bearer token.
type IssuedToken struct {
	Value     string
	ID        string
	Kind      ActorKind
	ExpiresAt time.Time
}
