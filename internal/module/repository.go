// AngelaMos | 2026
// repository.go

package module

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/admin-console/internal/core"
)

type Repository interface {
	Create(ctx context.Context, m *Module) error
	GetByID(ctx context.Context, id string) (*Module, error)
	GetBySlug(ctx context.Context, slug string) (*Module, error)
	ParentOf(ctx context.Context, id string) (*string, error)
	List(ctx context.Context) ([]Module, error)
	ListByIDs(ctx context.Context, ids []string) ([]Module, error)
	Update(ctx context.Context, m *Module) error
	SetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, id string) error
	CountActive(ctx context.Context, active bool) (int, error)

	CreateGrant(ctx context.Context, a *Access) error
	ActiveGrant(ctx context.Context, userID, moduleID string) (*Access, error)
	DeactivateGrant(ctx context.Context, id string) error
	GrantedModuleIDs(ctx context.Context, userID string, moduleIDs []string) ([]string, error)
	UserModules(ctx context.Context, userID string) ([]Module, error)
	CountActiveGrants(ctx context.Context) (int, error)
}

type Store interface {
	Repository
	Atomically(ctx context.Context, fn func(repo Repository) error) error
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
	fn func(repo Repository) error,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(NewRepository(tx))
	})
}

const columns = `id, name, parent_id, url_slug, tool_tip, description,
	is_active, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, m *Module) error {
	query := `
		INSERT INTO modules (id, name, parent_id, url_slug, tool_tip, description, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID,
		m.Name,
		m.ParentID,
		m.URLSlug,
		m.ToolTip,
		m.Description,
		m.IsActive,
		m.CreatedBy,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create module: %w", core.ErrDuplicateKey)
		}
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("create module: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create module: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Module, error) {
	query := `SELECT ` + columns + ` FROM modules WHERE id = $1`

	var m Module
	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get module: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}

	return &m, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Module, error) {
	query := `SELECT ` + columns + ` FROM modules WHERE url_slug = $1`

	var m Module
	err := r.db.GetContext(ctx, &m, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get module by slug: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get module by slug: %w", err)
	}

	return &m, nil
}

func (r *repository) ParentOf(ctx context.Context, id string) (*string, error) {
	var parent *string
	err := r.db.GetContext(ctx, &parent, `SELECT parent_id FROM modules WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get module parent: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get module parent: %w", err)
	}
	return parent, nil
}

func (r *repository) List(ctx context.Context) ([]Module, error) {
	query := `SELECT ` + columns + ` FROM modules ORDER BY created_at, name`

	var modules []Module
	if err := r.db.SelectContext(ctx, &modules, query); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []string) ([]Module, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+columns+` FROM modules WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list modules by id: %w", err)
	}

	var modules []Module
	if err := r.db.SelectContext(ctx, &modules, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("list modules by id: %w", err)
	}
	return modules, nil
}

func (r *repository) Update(ctx context.Context, m *Module) error {
	query := `
		UPDATE modules
		SET name = $2, parent_id = $3, url_slug = $4, tool_tip = $5,
			description = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID,
		m.Name,
		m.ParentID,
		m.URLSlug,
		m.ToolTip,
		m.Description,
		m.IsActive,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update module: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update module: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update module: %w", err)
	}

	return nil
}

func (r *repository) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(
		`UPDATE modules SET is_active = ?, updated_at = NOW() WHERE id IN (?)`,
		active, ids)
	if err != nil {
		return 0, fmt.Errorf("set modules active: %w", err)
	}

	result, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return 0, fmt.Errorf("set modules active: %w", err)
	}

	return result.RowsAffected()
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete module: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountActive(ctx context.Context, active bool) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM modules WHERE is_active = $1`, active)
	if err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	return n, nil
}

func (r *repository) CreateGrant(ctx context.Context, a *Access) error {
	query := `
		INSERT INTO user_access (id, user_id, module_id, is_active, created_by)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING is_active, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, a.ID, a.UserID, a.ModuleID, a.CreatedBy).
		Scan(&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create grant: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create grant: %w", err)
	}

	return nil
}

func (r *repository) ActiveGrant(ctx context.Context, userID, moduleID string) (*Access, error) {
	query := `
		SELECT id, user_id, module_id, is_active, created_by, created_at, updated_at
		FROM user_access
		WHERE user_id = $1 AND module_id = $2 AND is_active`

	var a Access
	err := r.db.GetContext(ctx, &a, query, userID, moduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get grant: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get grant: %w", err)
	}

	return &a, nil
}

// DeactivateGrant only matches an active grant so two concurrent revokes
// cannot both succeed.
func (r *repository) DeactivateGrant(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_access SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`,
		id)
	if err != nil {
		return fmt.Errorf("deactivate grant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate grant: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deactivate grant: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) GrantedModuleIDs(
	ctx context.Context,
	userID string,
	moduleIDs []string,
) ([]string, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT module_id FROM user_access WHERE user_id = ? AND is_active AND module_id IN (?)`,
		userID, moduleIDs)
	if err != nil {
		return nil, fmt.Errorf("list granted modules: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("list granted modules: %w", err)
	}
	return ids, nil
}

func (r *repository) UserModules(ctx context.Context, userID string) ([]Module, error) {
	query := `
		SELECT m.id, m.name, m.parent_id, m.url_slug, m.tool_tip, m.description,
			m.is_active, m.created_by, m.created_at, m.updated_at
		FROM modules m
		JOIN user_access ua ON ua.module_id = m.id
		WHERE ua.user_id = $1 AND ua.is_active
		ORDER BY m.created_at, m.name`

	var modules []Module
	if err := r.db.SelectContext(ctx, &modules, query, userID); err != nil {
		return nil, fmt.Errorf("list user modules: %w", err)
	}
	return modules, nil
}

func (r *repository) CountActiveGrants(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM user_access WHERE is_active`); err != nil {
		return 0, fmt.Errorf("count grants: %w", err)
	}
	return n, nil
}
