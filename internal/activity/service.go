// AngelaMos | 2026
// service.go

package activity

import (
	"context"
	"slices"
	"time"

	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/core"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	adminVisible = []Type{
		TypeUserCreated,
		TypeUserUpdated,
		TypeUserDeleted,
		TypeModuleAssigned,
		TypePermissionChanged,
		TypeLogin,
		TypeLogout,
	}
	managerVisible = []Type{
		TypeUserCreated,
		TypeUserUpdated,
		TypeLogin,
		TypeLogout,
	}
	personalVisible = []Type{TypeLogin, TypeLogout}
)

// Scope is the slice of the log a viewer may read. Nil Types means every
// type; a non-empty UserID pins results to that user.
type Scope struct {
	Types  []Type
	UserID string
}

func ScopeFor(roles *authz.Hierarchy, viewer authz.Subject) Scope {
	switch {
	case roles.IsOwner(viewer.Role):
		return Scope{}
	case roles.AtLeast(viewer.Role, authz.RoleAdmin):
		return Scope{Types: adminVisible}
	case roles.AtLeast(viewer.Role, authz.RoleManager):
		return Scope{Types: managerVisible}
	default:
		return Scope{Types: personalVisible, UserID: viewer.ID}
	}
}

// Narrow applies requested filters inside the scope. A request outside the
// scope yields a filter that matches nothing.
func (s Scope) Narrow(typ Type, userID string) Filter {
	f := Filter{Types: s.Types, UserID: s.UserID}

	if typ != "" {
		if s.Types == nil || slices.Contains(s.Types, typ) {
			f.Types = []Type{typ}
		} else {
			f.Types = []Type{}
		}
	}

	if userID != "" {
		if s.UserID != "" && s.UserID != userID {
			f.Types = []Type{}
		}
		f.UserID = userID
	}

	return f
}

type Query struct {
	Page   int
	Limit  int
	Type   Type
	UserID string
	Start  *time.Time
	End    *time.Time
}

func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

type Page struct {
	Activities []Activity      `json:"activities"`
	Pagination core.Pagination `json:"pagination"`
}

type Service struct {
	repo  Repository
	roles *authz.Hierarchy
}

func NewService(repo Repository, roles *authz.Hierarchy) *Service {
	return &Service{repo: repo, roles: roles}
}

func (s *Service) List(
	ctx context.Context,
	viewer authz.Subject,
	q Query,
) (*Page, error) {
	q.Normalize()

	f := ScopeFor(s.roles, viewer).Narrow(q.Type, q.UserID)
	f.Start = q.Start
	f.End = q.End

	page := &Page{
		Activities: []Activity{},
		Pagination: core.Pagination{Page: q.Page, Limit: q.Limit},
	}
	if f.Types != nil && len(f.Types) == 0 {
		return page, nil
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, core.DatabaseError(err)
	}

	f.Limit = q.Limit
	f.Offset = (q.Page - 1) * q.Limit

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, core.DatabaseError(err)
	}
	if rows != nil {
		page.Activities = rows
	}

	page.Pagination.Total = total
	page.Pagination.TotalPages = (total + q.Limit - 1) / q.Limit

	return page, nil
}

// Recent returns the newest activities visible to viewer.
func (s *Service) Recent(
	ctx context.Context,
	viewer authz.Subject,
	limit int,
) ([]Activity, error) {
	q := Query{Limit: limit}
	q.Normalize()

	f := ScopeFor(s.roles, viewer).Narrow("", "")
	f.Limit = q.Limit

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, core.DatabaseError(err)
	}
	if rows == nil {
		rows = []Activity{}
	}

	return rows, nil
}

func (s *Service) CountSince(
	ctx context.Context,
	types []Type,
	userID string,
	since time.Time,
) (int, error) {
	n, err := s.repo.CountByTypesSince(ctx, types, userID, since)
	if err != nil {
		return 0, core.DatabaseError(err)
	}
	return n, nil
}
