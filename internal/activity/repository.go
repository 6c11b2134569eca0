// AngelaMos | 2026
// repository.go

package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/admin-console/internal/core"
)

// Filter narrows a listing. A nil Types slice means every type; an empty
// non-nil slice matches nothing.
type Filter struct {
	Types  []Type
	UserID string
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, a *Activity) error
	List(ctx context.Context, f Filter) ([]Activity, error)
	Count(ctx context.Context, f Filter) (int, error)
	CountByTypesSince(ctx context.Context, types []Type, userID string, since time.Time) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if a.Metadata == nil {
		a.Metadata = Metadata{}
	}

	query := `
		INSERT INTO activities (id, type, description, user_id, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		string(a.Type),
		a.Description,
		a.UserID,
		a.Metadata,
		a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}

	return nil
}

func typeNames(types []Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func where(f Filter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if f.Types != nil {
		conditions = append(conditions, fmt.Sprintf("a.type = ANY($%d)", argIdx))
		args = append(args, typeNames(f.Types))
		argIdx++
	}

	if f.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", argIdx))
		args = append(args, f.UserID)
		argIdx++
	}

	if f.Start != nil {
		conditions = append(conditions, fmt.Sprintf("a.timestamp >= $%d", argIdx))
		args = append(args, *f.Start)
		argIdx++
	}

	if f.End != nil {
		conditions = append(conditions, fmt.Sprintf("a.timestamp <= $%d", argIdx))
		args = append(args, *f.End)
	}

	if len(conditions) == 0 {
		return "TRUE", args
	}
	return strings.Join(conditions, " AND "), args
}

func (r *repository) List(ctx context.Context, f Filter) ([]Activity, error) {
	whereClause, args := where(f)
	argIdx := len(args) + 1

	query := fmt.Sprintf(`
		SELECT a.id, a.type, a.description, a.user_id, a.metadata, a.timestamp,
			u.first_name AS "user.first_name",
			u.last_name AS "user.last_name",
			u.email AS "user.email"
		FROM activities a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE %s
		ORDER BY a.timestamp DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, f.Limit, f.Offset)

	var rows []Activity
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	for i := range rows {
		if u := rows[i].User; u != nil && u.Email == nil && u.FirstName == nil {
			rows[i].User = nil
		}
	}

	return rows, nil
}

func (r *repository) Count(ctx context.Context, f Filter) (int, error) {
	whereClause, args := where(f)

	var n int
	query := "SELECT COUNT(*) FROM activities a WHERE " + whereClause
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}

	return n, nil
}

func (r *repository) CountByTypesSince(
	ctx context.Context,
	types []Type,
	userID string,
	since time.Time,
) (int, error) {
	return r.Count(ctx, Filter{Types: types, UserID: userID, Start: &since})
}
