// AngelaMos | 2026
// entity.go

package usertype

import (
	"time"
)

// UserType is a role record. Its name is the key into the role hierarchy.
type UserType struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	IsActive  bool      `db:"is_active"  json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
