// AngelaMos | 2026
// repository.go

package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/admin-console/internal/core"
)

// Record is a stored one-time code. Only the SHA-256 of the code is kept.
type Record struct {
	Email     string    `db:"email"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, email string) (*Record, error)
	Consume(ctx context.Context, email, codeHash string, now time.Time) error
	Delete(ctx context.Context, email string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO otps (email, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = EXCLUDED.created_at`

	_, err := r.db.ExecContext(ctx, query,
		rec.Email,
		rec.CodeHash,
		rec.ExpiresAt,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert otp: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, email string) (*Record, error) {
	query := `
		SELECT email, code_hash, expires_at, created_at
		FROM otps
		WHERE email = $1`

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get otp: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}

	return &rec, nil
}

// Consume deletes the code in the same statement that checks it, so two
// requests racing on one code cannot both succeed.
func (r *repository) Consume(
	ctx context.Context,
	email, codeHash string,
	now time.Time,
) error {
	query := `
		DELETE FROM otps
		WHERE email = $1 AND code_hash = $2 AND expires_at > $3
		RETURNING email`

	var consumed string
	err := r.db.GetContext(ctx, &consumed, query, email, codeHash, now)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("consume otp: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
