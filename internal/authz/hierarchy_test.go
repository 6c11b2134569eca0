// AngelaMos | 2026
// hierarchy_test.go

package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/admin-console/internal/core"
)

var defaultRoles = []string{"user", "manager", "admin", "superadmin"}

func TestNewHierarchyRanks(t *testing.T) {
	h, err := NewHierarchy(defaultRoles)
	require.NoError(t, err)

	for role, want := range map[string]int{
		"user": 1, "manager": 2, "admin": 3, "superadmin": 4, " Admin ": 3,
	} {
		got, ok := h.Rank(role)
		require.True(t, ok, role)
		assert.Equal(t, want, got, role)
	}

	_, ok := h.Rank("guest")
	assert.False(t, ok)
	assert.Equal(t, "superadmin", h.Top())
	assert.Equal(t, "user", h.Bottom())
}

func TestNewHierarchyRejectsBadInput(t *testing.T) {
	_, err := NewHierarchy([]string{"user"})
	assert.Error(t, err)

	_, err = NewHierarchy([]string{"user", "User"})
	assert.Error(t, err)

	_, err = NewHierarchy([]string{"user", " "})
	assert.Error(t, err)
}

func TestRolesReturnsCopy(t *testing.T) {
	h := MustHierarchy(defaultRoles)
	roles := h.Roles()
	roles[0] = "mutated"

	assert.Equal(t, "user", h.Bottom())
}

func TestStrictlyOutranks(t *testing.T) {
	h := MustHierarchy(defaultRoles)

	assert.True(t, h.StrictlyOutranks("admin", "manager"))
	assert.False(t, h.StrictlyOutranks("admin", "admin"))
	assert.False(t, h.StrictlyOutranks("manager", "admin"))
	assert.False(t, h.StrictlyOutranks("ghost", "user"))
	assert.False(t, h.StrictlyOutranks("superadmin", "ghost"))
}

func TestAtLeastAndIsOwner(t *testing.T) {
	h := MustHierarchy(defaultRoles)

	assert.True(t, h.AtLeast("manager", "manager"))
	assert.True(t, h.AtLeast("superadmin", "admin"))
	assert.False(t, h.AtLeast("user", "manager"))
	assert.False(t, h.AtLeast("ghost", "user"))

	assert.True(t, h.IsOwner("superadmin"))
	assert.False(t, h.IsOwner("admin"))
	assert.False(t, h.IsOwner(""))
}

func TestAuthorize(t *testing.T) {
	h := MustHierarchy(defaultRoles)

	superadmin := Subject{ID: "u-1", Role: "superadmin"}
	admin := Subject{ID: "u-2", Role: "admin"}
	otherAdmin := Subject{ID: "u-3", Role: "admin"}
	manager := Subject{ID: "u-4", Role: "manager"}
	ghost := Subject{ID: "u-5", Role: "ghost"}

	tests := []struct {
		name    string
		action  Action
		actor   Subject
		target  Subject
		wantErr error
	}{
		{"admin deletes manager", ActionSoftDelete, admin, manager, nil},
		{"admin deletes peer admin", ActionSoftDelete, admin, otherAdmin, ErrNotOutranked},
		{"admin hard deletes peer admin", ActionHardDelete, admin, otherAdmin, ErrNotOutranked},
		{"manager logs out admin", ActionLogout, manager, admin, ErrNotOutranked},
		{"superadmin logs out admin", ActionLogout, superadmin, admin, nil},
		{"superadmin logs out self", ActionLogout, superadmin, superadmin, ErrSelfTarget},
		{"admin deletes self", ActionSoftDelete, admin, admin, ErrSelfTarget},
		{"admin updates peer", ActionUpdate, admin, otherAdmin, ErrNotOutranked},
		{"admin updates manager", ActionUpdate, admin, manager, nil},
		{"unknown target role", ActionSoftDelete, superadmin, ghost, ErrUnknownRole},
		{"unknown actor role", ActionSoftDelete, ghost, manager, ErrUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Authorize(tt.action, tt.actor, tt.target)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, core.ErrForbidden)

			var denied *DeniedError
			require.True(t, errors.As(err, &denied))
			assert.Equal(t, tt.action, denied.Action)
		})
	}
}

func TestAuthorizeRoleChange(t *testing.T) {
	h := MustHierarchy(defaultRoles)

	superadmin := Subject{ID: "u-1", Role: "superadmin"}
	admin := Subject{ID: "u-2", Role: "admin"}
	user := Subject{ID: "u-3", Role: "user"}
	manager := Subject{ID: "u-4", Role: "manager"}

	assert.NoError(t, h.AuthorizeRoleChange(superadmin, user, "admin"))
	assert.NoError(t, h.AuthorizeRoleChange(admin, user, "manager"))

	err := h.AuthorizeRoleChange(superadmin, user, "superadmin")
	assert.ErrorIs(t, err, ErrTopRole)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = h.AuthorizeRoleChange(admin, user, "admin")
	assert.ErrorIs(t, err, ErrNotOutranked)

	err = h.AuthorizeRoleChange(manager, admin, "user")
	assert.ErrorIs(t, err, ErrNotOutranked)

	err = h.AuthorizeRoleChange(superadmin, user, "emperor")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestCustomHierarchy(t *testing.T) {
	h := MustHierarchy([]string{"viewer", "editor", "owner"})

	assert.Equal(t, "owner", h.Top())
	assert.NoError(t, h.Authorize(
		ActionSoftDelete,
		Subject{ID: "a", Role: "owner"},
		Subject{ID: "b", Role: "editor"},
	))
	assert.ErrorIs(t, h.AuthorizeAssignment(Subject{Role: "owner"}, "owner"), ErrTopRole)
}
