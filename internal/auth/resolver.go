package auth

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/repository"
	apperrors "github.com/staybook/booking-service/pkg/util/errorutil"
)

// LookupFunc loads the actor of one kind by id.
type LookupFunc func(ctx context.Context, id int64) (domain.Actor, error)

// Resolver maps a verified payload onto the actor record it names.
type Resolver struct {
	lookups map[domain.ActorKind]LookupFunc
}

// NewResolver builds the kind table from the actor repositories.
func NewResolver(admins repository.AdminRepository, users repository.UserRepository, partners repository.PartnerRepository) *Resolver {
	return &Resolver{lookups: map[domain.ActorKind]LookupFunc{
		domain.ActorKindAdmin: func(ctx context.Context, id int64) (domain.Actor, error) {
			return admins.GetByID(ctx, id)
		},
		domain.ActorKindUser: func(ctx context.Context, id int64) (domain.Actor, error) {
			return users.GetByID(ctx, id)
		},
		domain.ActorKindPartner: func(ctx context.Context, id int64) (domain.Actor, error) {
			return partners.GetByID(ctx, id)
		},
	}}
}

// Resolve returns the actor of kind named by claims, or nil when the payload
// does not name one or the record no longer exists. Only store failures are
// returned as errors.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims, kind domain.ActorKind) (domain.Actor, error) {
	if claims == nil || claims.Type != kind {
		return nil, nil
	}
	id, ok := claims.SubjectID(kind)
	if !ok {
		return nil, nil
	}
	lookup, ok := r.lookups[kind]
	if !ok {
		return nil, nil
	}

	actor, err := lookup(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve %s %d: %w", kind, id, err)
	}
	return actor, nil
}

type resolved struct {
	actor domain.Actor
	err   error
}

func actorKey(kind domain.ActorKind) string {
	return "auth_actor_" + string(kind)
}

// ResolveRequest resolves kind for the current request, at most once per kind.
func (r *Resolver) ResolveRequest(c *fiber.Ctx, kind domain.ActorKind) (domain.Actor, error) {
	key := actorKey(kind)
	if cached, ok := c.Locals(key).(resolved); ok {
		return cached.actor, cached.err
	}

	claims, _ := ClaimsFromContext(c)
	actor, err := r.Resolve(c.UserContext(), claims, kind)
	c.Locals(key, resolved{actor: actor, err: err})
	return actor, err
}

// CurrentActor returns the actor of kind resolved for this request by a guard.
func CurrentActor(c *fiber.Ctx, kind domain.ActorKind) (domain.Actor, bool) {
	actor := cachedActor(c, kind)
	return actor, actor != nil
}

// CurrentAdmin returns the admin resolved for this request.
func CurrentAdmin(c *fiber.Ctx) (*domain.Admin, bool) {
	admin, ok := cachedActor(c, domain.ActorKindAdmin).(*domain.Admin)
	return admin, ok && admin != nil
}

// CurrentUser returns the user resolved for this request.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	user, ok := cachedActor(c, domain.ActorKindUser).(*domain.User)
	return user, ok && user != nil
}

// CurrentPartner returns the partner resolved for this request.
func CurrentPartner(c *fiber.Ctx) (*domain.Partner, bool) {
	partner, ok := cachedActor(c, domain.ActorKindPartner).(*domain.Partner)
	return partner, ok && partner != nil
}

func cachedActor(c *fiber.Ctx, kind domain.ActorKind) domain.Actor {
	cached, ok := c.Locals(actorKey(kind)).(resolved)
	if !ok {
		return nil
	}
	return cached.actor
}
