// AngelaMos | 2026
// repository.go

package usertype

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/admin-console/internal/core"
)

type Repository interface {
	Create(ctx context.Context, ut *UserType) error
	GetByID(ctx context.Context, id string) (*UserType, error)
	GetByName(ctx context.Context, name string) (*UserType, error)
	FindOrCreate(ctx context.Context, name string) (*UserType, error)
	List(ctx context.Context) ([]UserType, error)
	Update(ctx context.Context, ut *UserType) error
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context, id string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const columns = `id, name, is_active, created_at, updated_at`

func (r *repository) Create(ctx context.Context, ut *UserType) error {
	query := `
		INSERT INTO user_types (id, name, is_active)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, ut.ID, ut.Name, ut.IsActive).
		Scan(&ut.CreatedAt, &ut.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user type: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user type: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*UserType, error) {
	query := `SELECT ` + columns + ` FROM user_types WHERE id = $1`

	var ut UserType
	err := r.db.GetContext(ctx, &ut, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user type: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user type: %w", err)
	}

	return &ut, nil
}

func (r *repository) GetByName(
	ctx context.Context,
	name string,
) (*UserType, error) {
	query := `SELECT ` + columns + ` FROM user_types WHERE name = $1`

	var ut UserType
	err := r.db.GetContext(ctx, &ut, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user type by name: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user type by name: %w", err)
	}

	return &ut, nil
}

// FindOrCreate returns the type called name, inserting it first if needed.
// The no-op update makes RETURNING yield the existing row on conflict.
func (r *repository) FindOrCreate(
	ctx context.Context,
	name string,
) (*UserType, error) {
	query := `
		INSERT INTO user_types (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + columns

	var ut UserType
	if err := r.db.GetContext(ctx, &ut, query, uuid.New().String(), name); err != nil {
		return nil, fmt.Errorf("find or create user type: %w", err)
	}

	return &ut, nil
}

func (r *repository) List(ctx context.Context) ([]UserType, error) {
	query := `SELECT ` + columns + ` FROM user_types ORDER BY created_at ASC`

	var types []UserType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list user types: %w", err)
	}

	return types, nil
}

func (r *repository) Update(ctx context.Context, ut *UserType) error {
	query := `
		UPDATE user_types
		SET name = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &ut.UpdatedAt, query, ut.ID, ut.Name, ut.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user type: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update user type: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user type: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_types WHERE id = $1`, id)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("delete user type: %w", core.ErrConflict)
		}
		return fmt.Errorf("delete user type: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user type: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete user type: %w", core.ErrNotFound)
	}

	return nil
}

// CountUsers counts every user row referencing the type, deleted or not.
func (r *repository) CountUsers(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM users WHERE user_type_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("count users of type: %w", err)
	}
	return n, nil
}
