// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/usertype"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetDeleted(ctx context.Context, id string, deleted bool) error
	HardDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]User, int, error)
	Count(ctx context.Context) (int, error)
	LockRegistrations(ctx context.Context) error
}

// Tx is the set of repositories bound to one transaction.
type Tx struct {
	Users Repository
	Types usertype.Repository
}

type Store interface {
	Repository
	Atomically(ctx context.Context, fn func(tx Tx) error) error
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

func (s *store) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(Tx{
			Users: NewRepository(tx),
			Types: usertype.NewRepository(tx),
		})
	})
}

const selectUser = `
	SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name,
	       u.phone, u.address, u.picture, u.bank_name, u.bank_ifsc_code,
	       u.bank_account_number, u.bank_address, u.user_type_id,
	       u.root_dir_id, u.is_active, u.is_deleted, u.created_at, u.updated_at,
	       ut.id AS "user_type.id", ut.name AS "user_type.name",
	       ut.is_active AS "user_type.is_active",
	       ut.created_at AS "user_type.created_at",
	       ut.updated_at AS "user_type.updated_at"
	FROM users u
	JOIN user_types ut ON ut.id = u.user_type_id`

// registrationLockKey serialises first-user bootstrap across instances.
const registrationLockKey = 72_340_173

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone, address,
			picture, bank_name, bank_ifsc_code, bank_account_number,
			bank_address, user_type_id, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Address,
		user.Picture,
		user.BankName,
		user.BankIFSCCode,
		user.BankAccountNumber,
		user.BankAddress,
		user.UserTypeID,
		user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("create user: unknown user type: %w", core.ErrInvalidInput)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID returns the user whether or not it is soft deleted.
func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := selectUser + ` WHERE u.id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// GetByEmail prefers the live account; a soft-deleted one is returned only
// when no live account holds the address.
func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := selectUser + `
		WHERE u.email = $1
		ORDER BY u.is_deleted ASC, u.created_at DESC
		LIMIT 1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND NOT is_deleted)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, first_name = $4, last_name = $5,
		    phone = $6, address = $7, picture = $8, bank_name = $9,
		    bank_ifsc_code = $10, bank_account_number = $11,
		    bank_address = $12, user_type_id = $13, is_active = $14,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Address,
		user.Picture,
		user.BankName,
		user.BankIFSCCode,
		user.BankAccountNumber,
		user.BankAddress,
		user.UserTypeID,
		user.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("update user: unknown user type: %w", core.ErrInvalidInput)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) SetDeleted(
	ctx context.Context,
	id string,
	deleted bool,
) error {
	query := `
		UPDATE users
		SET is_deleted = $2, updated_at = NOW()
		WHERE id = $1`

	err := r.execOne(ctx, "set deleted", query, id, deleted)
	if err != nil && core.IsDuplicateKeyError(err) {
		return fmt.Errorf("set deleted: %w", core.ErrDuplicateKey)
	}
	return err
}

func (r *repository) HardDelete(ctx context.Context, id string) error {
	return r.execOne(ctx, "hard delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if !params.IncludeDeleted {
		conditions = append(conditions, "NOT u.is_deleted")
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(u.email ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.UserTypeID != "" {
		conditions = append(conditions, fmt.Sprintf("u.user_type_id = $%d", argIdx))
		args = append(args, params.UserTypeID)
		argIdx++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM users u WHERE " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`,
		selectUser, whereClause, argIdx, argIdx+1)

	args = append(args, params.Limit, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// LockRegistrations takes a transaction-scoped advisory lock. Only
// meaningful inside Atomically.
func (r *repository) LockRegistrations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey)
	if err != nil {
		return fmt.Errorf("lock registrations: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
