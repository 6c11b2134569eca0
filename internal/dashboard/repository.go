// AngelaMos | 2026
// repository.go

package dashboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/admin-console/internal/core"
)

type Counts struct {
	TotalUsers     int `db:"total_users"`
	TotalModules   int `db:"total_modules"`
	TotalUserTypes int `db:"total_user_types"`
	ActiveUsers    int `db:"active_users"`
}

type DetailCounts struct {
	DeletedUsers    int `db:"deleted_users"`
	InactiveModules int `db:"inactive_modules"`
	TotalUserAccess int `db:"total_user_access"`
}

type Repository interface {
	// Snapshot reads the counters from one consistent view. detail is nil
	// unless withDetail is set.
	Snapshot(ctx context.Context, withDetail bool) (*Counts, *DetailCounts, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const countsQuery = `
	SELECT
		(SELECT COUNT(*) FROM users WHERE NOT is_deleted) AS total_users,
		(SELECT COUNT(*) FROM modules WHERE is_active) AS total_modules,
		(SELECT COUNT(*) FROM user_types) AS total_user_types,
		(SELECT COUNT(*) FROM users WHERE NOT is_deleted AND is_active) AS active_users`

const detailQuery = `
	SELECT
		(SELECT COUNT(*) FROM users WHERE is_deleted) AS deleted_users,
		(SELECT COUNT(*) FROM modules WHERE NOT is_active) AS inactive_modules,
		(SELECT COUNT(*) FROM user_access WHERE is_active) AS total_user_access`

func (r *repository) Snapshot(
	ctx context.Context,
	withDetail bool,
) (*Counts, *DetailCounts, error) {
	var counts Counts
	var detail *DetailCounts

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := core.InTxWithOptions(ctx, r.db, opts, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &counts, countsQuery); err != nil {
			return fmt.Errorf("count totals: %w", err)
		}

		if !withDetail {
			return nil
		}

		detail = &DetailCounts{}
		if err := tx.GetContext(ctx, detail, detailQuery); err != nil {
			return fmt.Errorf("count details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &counts, detail, nil
}
