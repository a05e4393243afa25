package repotest

import (
	"context"
	"time"

	"github.com/staybook/booking-service/internal/domain"
	"github.com/staybook/booking-service/internal/repository"
)

// Admins is an in-memory repository.AdminRepository.
type Admins struct {
	t *table[domain.Admin]
}

var _ repository.AdminRepository = (*Admins)(nil)

// NewAdmins returns an empty admin table that enforces the single super admin index.
func NewAdmins() *Admins {
	t := newTable("admins", accessors[domain.Admin]{
		id:    func(a *domain.Admin) *int64 { return &a.ID },
		email: func(a *domain.Admin) string { return a.Email },
		hash:  func(a *domain.Admin) *string { return &a.PasswordHash },
		reset: func(a *domain.Admin) *domain.ResetFields { return &a.ResetFields },
		stamp: func(a *domain.Admin, now time.Time) { a.CreatedAt, a.UpdatedAt = now, now },
	})
	t.unique = func(existing, candidate *domain.Admin) string {
		if existing.IsSuperAdmin() && candidate.IsSuperAdmin() {
			return "admins_single_super_admin"
		}
		return ""
	}
	return &Admins{t: t}
}

func (r *Admins) Create(_ context.Context, admin *domain.Admin) error { return r.t.create(admin) }
func (r *Admins) Update(_ context.Context, admin *domain.Admin) error { return r.t.update(admin) }
func (r *Admins) Delete(_ context.Context, id int64) error            { return r.t.delete(id) }

func (r *Admins) GetByID(_ context.Context, id int64) (*domain.Admin, error) { return r.t.byID(id) }

func (r *Admins) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	return r.t.byEmail(email)
}

func (r *Admins) GetByResetToken(_ context.Context, token string) (*domain.Admin, error) {
	return r.t.byResetToken(token)
}

func (r *Admins) GetSuperAdmin(_ context.Context) (*domain.Admin, error) {
	return r.t.find(func(a *domain.Admin) bool { return a.IsSuperAdmin() })
}

func (r *Admins) List(_ context.Context, limit, offset int) ([]domain.Admin, error) {
	return r.t.list(limit, offset), nil
}

func (r *Admins) SetResetToken(_ context.Context, id int64, token string, sentAt time.Time) error {
	return r.t.setResetToken(id, token, sentAt)
}

func (r *Admins) CompleteReset(_ context.Context, id int64, token, hash string) error {
	return r.t.completeReset(id, token, hash)
}

// Users is an in-memory repository.UserRepository.
type Users struct {
	t *table[domain.User]
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers returns an empty user table.
func NewUsers() *Users {
	return &Users{t: newTable("users", accessors[domain.User]{
		id:    func(u *domain.User) *int64 { return &u.ID },
		email: func(u *domain.User) string { return u.Email },
		hash:  func(u *domain.User) *string { return &u.PasswordHash },
		reset: func(u *domain.User) *domain.ResetFields { return &u.ResetFields },
		stamp: func(u *domain.User, now time.Time) { u.CreatedAt, u.UpdatedAt = now, now },
	})}
}

func (r *Users) Create(_ context.Context, user *domain.User) error { return r.t.create(user) }
func (r *Users) Update(_ context.Context, user *domain.User) error { return r.t.update(user) }

func (r *Users) GetByID(_ context.Context, id int64) (*domain.User, error) { return r.t.byID(id) }

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.t.byEmail(email)
}

func (r *Users) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	return r.t.byResetToken(token)
}

func (r *Users) SetResetToken(_ context.Context, id int64, token string, sentAt time.Time) error {
	return r.t.setResetToken(id, token, sentAt)
}

func (r *Users) CompleteReset(_ context.Context, id int64, token, hash string) error {
	return r.t.completeReset(id, token, hash)
}

// Partners is an in-memory repository.PartnerRepository.
type Partners struct {
	t *table[domain.Partner]
}

var _ repository.PartnerRepository = (*Partners)(nil)

// NewPartners returns an empty partner table.
func NewPartners() *Partners {
	return &Partners{t: newTable("partners", accessors[domain.Partner]{
		id:    func(p *domain.Partner) *int64 { return &p.ID },
		email: func(p *domain.Partner) string { return p.Email },
		hash:  func(p *domain.Partner) *string { return &p.PasswordHash },
		reset: func(p *domain.Partner) *domain.ResetFields { return &p.ResetFields },
		stamp: func(p *domain.Partner, now time.Time) { p.CreatedAt, p.UpdatedAt = now, now },
	})}
}

func (r *Partners) Create(_ context.Context, partner *domain.Partner) error {
	return r.t.create(partner)
}

func (r *Partners) Update(_ context.Context, partner *domain.Partner) error {
	return r.t.update(partner)
}

func (r *Partners) GetByID(_ context.Context, id int64) (*domain.Partner, error) {
	return r.t.byID(id)
}

func (r *Partners) GetByEmail(_ context.Context, email string) (*domain.Partner, error) {
	return r.t.byEmail(email)
}

func (r *Partners) GetByResetToken(_ context.Context, token string) (*domain.Partner, error) {
	return r.t.byResetToken(token)
}

func (r *Partners) SetResetToken(_ context.Context, id int64, token string, sentAt time.Time) error {
	return r.t.setResetToken(id, token, sentAt)
}

func (r *Partners) CompleteReset(_ context.Context, id int64, token, hash string) error {
	return r.t.completeReset(id, token, hash)
}
