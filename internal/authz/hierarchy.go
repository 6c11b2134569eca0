// AngelaMos | 2026
// hierarchy.go

package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/admin-console/internal/core"
)

type Action string

const (
	ActionLogout     Action = "logout"
	ActionSoftDelete Action = "soft_delete"
	ActionHardDelete Action = "hard_delete"
	ActionUpdate     Action = "update"
	ActionChangeRole Action = "change_role"
)

// Default role names, lowest first.
const (
	RoleUser       = "user"
	RoleManager    = "manager"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

var DefaultRoles = []string{RoleUser, RoleManager, RoleAdmin, RoleSuperadmin}

var (
	ErrSelfTarget   = errors.New("action cannot target yourself")
	ErrNotOutranked = errors.New("target is not below actor")
	ErrTopRole      = errors.New("top role cannot be assigned")
	ErrUnknownRole  = errors.New("unknown role")
)

// Subject is anyone an action is performed by or on.
type Subject struct {
	ID   string
	Role string
}

// Hierarchy is an immutable total order over role names. Rank starts at 1
// for the lowest role.
type Hierarchy struct {
	ranks map[string]int
	names []string
}

// NewHierarchy builds a hierarchy from role names listed lowest first.
func NewHierarchy(roles []string) (*Hierarchy, error) {
	if len(roles) < 2 {
		return nil, fmt.Errorf("hierarchy needs at least two roles")
	}

	h := &Hierarchy{
		ranks: make(map[string]int, len(roles)),
		names: make([]string, 0, len(roles)),
	}

	for i, raw := range roles {
		name := normalize(raw)
		if name == "" {
			return nil, fmt.Errorf("role at position %d is empty", i)
		}
		if _, dup := h.ranks[name]; dup {
			return nil, fmt.Errorf("role %q listed twice", name)
		}
		h.ranks[name] = i + 1
		h.names = append(h.names, name)
	}

	return h, nil
}

func MustHierarchy(roles []string) *Hierarchy {
	h, err := NewHierarchy(roles)
	if err != nil {
		panic(err)
	}
	return h
}

func normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Rank reports the numeric rank of a role. Unknown roles have no rank.
func (h *Hierarchy) Rank(role string) (int, bool) {
	r, ok := h.ranks[normalize(role)]
	return r, ok
}

func (h *Hierarchy) Known(role string) bool {
	_, ok := h.Rank(role)
	return ok
}

func (h *Hierarchy) Top() string {
	return h.names[len(h.names)-1]
}

func (h *Hierarchy) Bottom() string {
	return h.names[0]
}

func (h *Hierarchy) Roles() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// StrictlyOutranks is the one comparison every authorization decision goes
// through. Unknown roles on either side never outrank anything.
func (h *Hierarchy) StrictlyOutranks(actorRole, targetRole string) bool {
	a, ok := h.Rank(actorRole)
	if !ok {
		return false
	}
	t, ok := h.Rank(targetRole)
	if !ok {
		return false
	}
	return a > t
}

// AtLeast gates routes: the role must rank at or above minimum.
func (h *Hierarchy) AtLeast(role, minimum string) bool {
	r, ok := h.Rank(role)
	if !ok {
		return false
	}
	m, ok := h.Rank(minimum)
	if !ok {
		return false
	}
	return r >= m
}

// IsOwner matches the top role exactly.
func (h *Hierarchy) IsOwner(role string) bool {
	return h.Known(role) && normalize(role) == h.Top()
}

func (h *Hierarchy) Authorize(action Action, actor, target Subject) error {
	if actor.ID != "" && actor.ID == target.ID {
		return denied(action, ErrSelfTarget)
	}

	if !h.Known(actor.Role) || !h.Known(target.Role) {
		return denied(action, ErrUnknownRole)
	}

	if !h.StrictlyOutranks(actor.Role, target.Role) {
		return denied(action, ErrNotOutranked)
	}

	return nil
}

// AuthorizeRoleChange applies the change-role rule and never lets anyone
// hand out the top role.
func (h *Hierarchy) AuthorizeRoleChange(actor, target Subject, newRole string) error {
	if err := h.Authorize(ActionChangeRole, actor, target); err != nil {
		return err
	}

	return h.AuthorizeAssignment(actor, newRole)
}

// AuthorizeAssignment checks that actor may give newRole to someone. The
// assigned role must be known, below the actor, and never the top role.
func (h *Hierarchy) AuthorizeAssignment(actor Subject, newRole string) error {
	if !h.Known(newRole) {
		return denied(ActionChangeRole, ErrUnknownRole)
	}

	if normalize(newRole) == h.Top() {
		return denied(ActionChangeRole, ErrTopRole)
	}

	if !h.StrictlyOutranks(actor.Role, newRole) {
		return denied(ActionChangeRole, ErrNotOutranked)
	}

	return nil
}

type DeniedError struct {
	Action Action
	Reason error
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %v", e.Action, e.Reason)
}

func (e *DeniedError) Unwrap() []error {
	return []error{e.Reason, core.ErrForbidden}
}

func denied(action Action, reason error) error {
	return &DeniedError{Action: action, Reason: reason}
}
