package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetTokenStore persists reset-token columns on an actor table.
type ResetTokenStore interface {
	SetResetToken(ctx context.Context, id int64, token string, sentAt time.Time) error
	// CompleteReset stores the new hash and clears both reset columns, but only
	// while the row still carries token.
	CompleteReset(ctx context.Context, id int64, token, passwordHash string) error
}

// resetStore implements ResetTokenStore for one of the actor tables.
type resetStore struct {
	pool  *pgxpool.Pool
	table string
}

func (s resetStore) SetResetToken(ctx context.Context, id int64, token string, sentAt time.Time) error {
	query := `
        UPDATE ` + s.table + `
        SET reset_password_token=$1, reset_password_sent_at=$2
        WHERE id=$3`

	cmd, err := s.pool.Exec(ctx, query, token, sentAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s resetStore) CompleteReset(ctx context.Context, id int64, token, passwordHash string) error {
	query := `
        UPDATE ` + s.table + `
        SET password_hash=$1, reset_password_token=NULL, reset_password_sent_at=NULL, updated_at=NOW()
        WHERE id=$2 AND reset_password_token=$3`

	cmd, err := s.pool.Exec(ctx, query, passwordHash, id, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
