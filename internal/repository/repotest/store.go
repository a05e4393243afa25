// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/staybook/booking-service/internal/domain"
)

// accessors tells a table how to reach the shared columns of a row type.
type accessors[T any] struct {
	id    func(*T) *int64
	email func(*T) string
	hash  func(*T) *string
	reset func(*T) *domain.ResetFields
	stamp func(*T, time.Time)
}

type table[T any] struct {
	mu     sync.Mutex
	name   string
	rows   map[int64]T
	nextID int64
	acc    accessors[T]
	unique func(existing, candidate *T) string
}

func newTable[T any](name string, acc accessors[T]) *table[T] {
	return &table[T]{name: name, rows: make(map[int64]T), acc: acc}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func (t *table[T]) conflict(candidate *T) error {
	id := *t.acc.id(candidate)
	for rowID, row := range t.rows {
		if rowID == id {
			continue
		}
		existing := row
		if strings.EqualFold(t.acc.email(&existing), t.acc.email(candidate)) {
			return uniqueViolation(t.name + "_email_key")
		}
		if t.unique != nil {
			if constraint := t.unique(&existing, candidate); constraint != "" {
				return uniqueViolation(constraint)
			}
		}
	}
	return nil
}

func (t *table[T]) create(row *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	*t.acc.id(row) = 0
	if err := t.conflict(row); err != nil {
		return err
	}
	t.nextID++
	*t.acc.id(row) = t.nextID
	now := time.Now().UTC()
	t.acc.stamp(row, now)
	t.rows[t.nextID] = *row
	return nil
}

func (t *table[T]) update(row *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := *t.acc.id(row)
	current, ok := t.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := t.conflict(row); err != nil {
		return err
	}
	// reset columns are only written through SetResetToken/CompleteReset
	*t.acc.reset(row) = *t.acc.reset(&current)
	t.rows[id] = *row
	return nil
}

func (t *table[T]) delete(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(t.rows, id)
	return nil
}

func (t *table[T]) find(match func(*T) bool) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.sortedIDs() {
		row := t.rows[id]
		if match(&row) {
			return &row, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (t *table[T]) list(limit, offset int) []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := t.sortedIDs()
	if offset > len(ids) {
		return nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) sortedIDs() []int64 {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *table[T]) byID(id int64) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (t *table[T]) byEmail(email string) (*T, error) {
	return t.find(func(row *T) bool { return strings.EqualFold(t.acc.email(row), email) })
}

func (t *table[T]) byResetToken(token string) (*T, error) {
	return t.find(func(row *T) bool {
		reset := t.acc.reset(row)
		return reset.ResetPasswordToken != nil && *reset.ResetPasswordToken == token
	})
}

func (t *table[T]) setResetToken(id int64, token string, sentAt time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	tok := token
	at := sentAt
	*t.acc.reset(&row) = domain.ResetFields{ResetPasswordToken: &tok, ResetPasswordSentAt: &at}
	t.rows[id] = row
	return nil
}

func (t *table[T]) completeReset(id int64, token, hash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	reset := t.acc.reset(&row)
	if reset.ResetPasswordToken == nil || *reset.ResetPasswordToken != token {
		return pgx.ErrNoRows
	}
	*reset = domain.ResetFields{}
	*t.acc.hash(&row) = hash
	t.rows[id] = row
	return nil
}
