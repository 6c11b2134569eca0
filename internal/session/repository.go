// AngelaMos | 2026
// repository.go

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/admin-console/internal/core"
)

type Repository interface {
	LockUser(ctx context.Context, userID string) error
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	UpdateExpiry(ctx context.Context, id string, expiry int64) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpiredByUser(ctx context.Context, userID string, now int64) error
	ListActiveUserIDs(ctx context.Context, now int64) ([]string, error)
}

// Store is a Repository that can also run a group of calls in one
// transaction.
type Store interface {
	Repository
	Atomically(ctx context.Context, fn func(Repository) error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type store struct {
	Repository
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &store{Repository: NewRepository(db), db: db}
}

func (s *store) Atomically(
	ctx context.Context,
	fn func(Repository) error,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

// LockUser takes a row lock on the user so concurrent logins for the same
// account serialise. Only meaningful inside Atomically.
func (r *repository) LockUser(ctx context.Context, userID string) error {
	query := `SELECT id FROM users WHERE id = $1 FOR UPDATE`

	var id string
	err := r.db.GetContext(ctx, &id, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	return nil
}

func (r *repository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, expiry, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.Expiry,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, user_id, expiry, created_at
		FROM sessions
		WHERE id = $1`

	var s Session
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
) ([]Session, error) {
	query := `
		SELECT id, user_id, expiry, created_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`

	var sessions []Session
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

func (r *repository) UpdateExpiry(
	ctx context.Context,
	id string,
	expiry int64,
) error {
	query := `UPDATE sessions SET expiry = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, expiry)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("refresh session: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *repository) DeleteByUser(
	ctx context.Context,
	userID string,
) (int64, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}

	return rows, nil
}

func (r *repository) DeleteExpiredByUser(
	ctx context.Context,
	userID string,
	now int64,
) error {
	query := `DELETE FROM sessions WHERE user_id = $1 AND expiry < $2`

	if _, err := r.db.ExecContext(ctx, query, userID, now); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}

	return nil
}

func (r *repository) ListActiveUserIDs(
	ctx context.Context,
	now int64,
) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM sessions WHERE expiry >= $1`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, now); err != nil {
		return nil, fmt.Errorf("list active session users: %w", err)
	}

	return ids, nil
}
