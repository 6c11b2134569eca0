// AngelaMos | 2026
// entity.go

package module

import (
	"time"
)

type Module struct {
	ID          string    `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	ParentID    *string   `db:"parent_id"   json:"parentId"`
	URLSlug     *string   `db:"url_slug"    json:"urlSlug"`
	ToolTip     *string   `db:"tool_tip"    json:"toolTip"`
	Description *string   `db:"description" json:"description"`
	IsActive    bool      `db:"is_active"   json:"isActive"`
	CreatedBy   *string   `db:"created_by"  json:"-"`
	CreatedAt   time.Time `db:"created_at"  json:"-"`
	UpdatedAt   time.Time `db:"updated_at"  json:"-"`
}

// Access is a grant of one module to one user. Revoking flips IsActive;
// rows are never removed by revocation.
type Access struct {
	ID        string    `db:"id"         json:"id"`
	UserID    string    `db:"user_id"    json:"userId"`
	ModuleID  string    `db:"module_id"  json:"moduleId"`
	IsActive  bool      `db:"is_active"  json:"isActive"`
	CreatedBy *string   `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
