package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staybook/booking-service/internal/domain"
)

// PartnerRepository defines persistence access for partners.
type PartnerRepository interface {
	ResetTokenStore
	Create(ctx context.Context, partner *domain.Partner) error
	Update(ctx context.Context, partner *domain.Partner) error
	GetByID(ctx context.Context, id int64) (*domain.Partner, error)
	GetByEmail(ctx context.Context, email string) (*domain.Partner, error)
	GetByResetToken(ctx context.Context, token string) (*domain.Partner, error)
}

type partnerRepository struct {
	resetStore
	pool *pgxpool.Pool
}

// NewPartnerRepository returns a Postgres-backed implementation.
func NewPartnerRepository(pool *pgxpool.Pool) PartnerRepository {
	return &partnerRepository{resetStore: resetStore{pool: pool, table: "partners"}, pool: pool}
}

const partnerColumns = `id, name, email, company_name, phone, password_hash, reset_password_token, reset_password_sent_at, created_at, updated_at`

func (r *partnerRepository) Create(ctx context.Context, partner *domain.Partner) error {
	const query = `
        INSERT INTO partners (name, email, company_name, phone, password_hash)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		partner.Name,
		partner.Email,
		partner.CompanyName,
		partner.Phone,
		partner.PasswordHash,
	).Scan(&partner.ID, &partner.CreatedAt, &partner.UpdatedAt)
}

func (r *partnerRepository) Update(ctx context.Context, partner *domain.Partner) error {
	const query = `
        UPDATE partners SET name=$1, email=$2, company_name=$3, phone=$4, password_hash=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		partner.Name,
		partner.Email,
		partner.CompanyName,
		partner.Phone,
		partner.PasswordHash,
		partner.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *partnerRepository) GetByID(ctx context.Context, id int64) (*domain.Partner, error) {
	return scanPartner(r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id=$1`, id))
}

func (r *partnerRepository) GetByEmail(ctx context.Context, email string) (*domain.Partner, error) {
	return scanPartner(r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE lower(email)=lower($1)`, email))
}

func (r *partnerRepository) GetByResetToken(ctx context.Context, token string) (*domain.Partner, error) {
	return scanPartner(r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE reset_password_token=$1`, token))
}

func scanPartner(row pgx.Row) (*domain.Partner, error) {
	var partner domain.Partner
	if err := row.Scan(
		&partner.ID,
		&partner.Name,
		&partner.Email,
		&partner.CompanyName,
		&partner.Phone,
		&partner.PasswordHash,
		&partner.ResetPasswordToken,
		&partner.ResetPasswordSentAt,
		&partner.CreatedAt,
		&partner.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &partner, nil
}
