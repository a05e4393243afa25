package service

import (
	"context"
	"fmt"

	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/repository"
)

// actorStore is the per-kind access the auth flows need.
type actorStore struct {
	byEmail      func(ctx context.Context, email string) (domain.Actor, error)
	byResetToken func(ctx context.Context, token string) (domain.Actor, error)
	setPassword  func(ctx context.Context, actor domain.Actor, hash string) error
	resets       repository.ResetTokenStore
}

// ActorStores maps each actor kind onto its repository.
type ActorStores map[domain.ActorKind]actorStore

// NewActorStores builds the kind table once for all services.
func NewActorStores(admins repository.AdminRepository, users repository.UserRepository, partners repository.PartnerRepository) ActorStores {
	return ActorStores{
		domain.ActorKindAdmin: {
			byEmail: func(ctx context.Context, email string) (domain.Actor, error) {
				return admins.GetByEmail(ctx, email)
			},
			byResetToken: func(ctx context.Context, token string) (domain.Actor, error) {
				return admins.GetByResetToken(ctx, token)
			},
			setPassword: func(ctx context.Context, actor domain.Actor, hash string) error {
				admin, ok := actor.(*domain.Admin)
				if !ok {
					return fmt.Errorf("expected admin, got %T", actor)
				}
				admin.PasswordHash = hash
				return admins.Update(ctx, admin)
			},
			resets: admins,
		},
		domain.ActorKindUser: {
			byEmail: func(ctx context.Context, email string) (domain.Actor, error) {
				return users.GetByEmail(ctx, email)
			},
			byResetToken: func(ctx context.Context, token string) (domain.Actor, error) {
				return users.GetByResetToken(ctx, token)
			},
			setPassword: func(ctx context.Context, actor domain.Actor, hash string) error {
				user, ok := actor.(*domain.User)
				if !ok {
					return fmt.Errorf("expected user, got %T", actor)
				}
				user.PasswordHash = hash
				return users.Update(ctx, user)
			},
			resets: users,
		},
		domain.ActorKindPartner: {
			byEmail: func(ctx context.Context, email string) (domain.Actor, error) {
				return partners.GetByEmail(ctx, email)
			},
			byResetToken: func(ctx context.Context, token string) (domain.Actor, error) {
				return partners.GetByResetToken(ctx, token)
			},
			setPassword: func(ctx context.Context, actor domain.Actor, hash string) error {
				partner, ok := actor.(*domain.Partner)
				if !ok {
					return fmt.Errorf("expected partner, got %T", actor)
				}
				partner.PasswordHash = hash
				return partners.Update(ctx, partner)
			},
			resets: partners,
		},
	}
}

func (s ActorStores) get(kind domain.ActorKind) (actorStore, error) {
	store, ok := s[kind]
	if !ok {
		return actorStore{}, fmt.Errorf("unknown actor kind %q", kind)
	}
	return store, nil
}
