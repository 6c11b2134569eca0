// AngelaMos | 2026
// entity.go

package activity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Type string

const (
	TypeUserCreated       Type = "user_created"
	TypeUserUpdated       Type = "user_updated"
	TypeUserDeleted       Type = "user_deleted"
	TypeLogin             Type = "login"
	TypeLogout            Type = "logout"
	TypePasswordChanged   Type = "password_changed"
	TypeModuleAssigned    Type = "module_assigned"
	TypeModuleUnassigned  Type = "module_unassigned"
	TypePermissionChanged Type = "permission_changed"
	TypeModuleCreated     Type = "module_created"
	TypeModuleUpdated     Type = "module_updated"
	TypeModuleDeactivated Type = "module_deactivated"
	TypeModuleDeleted     Type = "module_deleted"
)

var allTypes = []Type{
	TypeUserCreated,
	TypeUserUpdated,
	TypeUserDeleted,
	TypeLogin,
	TypeLogout,
	TypePasswordChanged,
	TypeModuleAssigned,
	TypeModuleUnassigned,
	TypePermissionChanged,
	TypeModuleCreated,
	TypeModuleUpdated,
	TypeModuleDeactivated,
	TypeModuleDeleted,
}

func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Metadata is stored as jsonb.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", src)
	}
	return json.Unmarshal(raw, m)
}

type Actor struct {
	FirstName *string `db:"first_name" json:"firstName"`
	LastName  *string `db:"last_name"  json:"lastName"`
	Email     *string `db:"email"      json:"email"`
}

// Activity is one append-only log record. UserID is not a foreign key so
// records outlive the users they mention.
type Activity struct {
	ID          string    `db:"id"          json:"id"`
	Type        Type      `db:"type"        json:"type"`
	Description string    `db:"description" json:"description"`
	UserID      *string   `db:"user_id"     json:"userId"`
	Metadata    Metadata  `db:"metadata"    json:"metadata"`
	Timestamp   time.Time `db:"timestamp"   json:"timestamp"`
	User        *Actor    `db:"user"        json:"user,omitempty"`
}

// Entry is what callers hand to a Recorder.
type Entry struct {
	Type        Type
	Description string
	UserID      string
	Metadata    Metadata
}
