// AngelaMos | 2026
// service.go

package usertype

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/admin-console/internal/core"
)

var (
	ErrNotFound = core.NewAppError(
		core.ErrNotFound,
		"UserType not found",
		http.StatusNotFound,
		core.CodeNotFound,
	)
	ErrNameTaken = core.NewAppError(
		core.ErrDuplicateKey,
		"UserType with this name already exists",
		http.StatusConflict,
		core.CodeConflict,
	)
	ErrInUse = core.NewAppError(
		core.ErrConflict,
		"Cannot delete UserType as users are assigned to it",
		http.StatusConflict,
		core.CodeConflict,
	)
	ErrBuiltInRename = core.NewAppError(
		core.ErrConflict,
		"Cannot rename a UserType that is part of the role hierarchy",
		http.StatusConflict,
		core.CodeConflict,
	)
)

// RoleSet reports whether a name is a ranked role.
type RoleSet interface {
	Known(role string) bool
}

type Service struct {
	repo  Repository
	roles RoleSet
}

func NewService(repo Repository, roles RoleSet) *Service {
	return &Service{repo: repo, roles: roles}
}

func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*UserType, error) {
	ut := &UserType{
		ID:       uuid.New().String(),
		Name:     NormalizeName(req.Name),
		IsActive: true,
	}
	if req.IsActive != nil {
		ut.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, ut); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	return ut, nil
}

func (s *Service) Get(ctx context.Context, id string) (*UserType, error) {
	ut, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrNotFound
	}
	return ut, err
}

func (s *Service) List(ctx context.Context) ([]UserType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []UserType{}
	}
	return types, nil
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateRequest,
) (*UserType, error) {
	ut, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := NormalizeName(*req.Name)
		if name != ut.Name && s.roles != nil && s.roles.Known(ut.Name) {
			return nil, ErrBuiltInRename
		}
		ut.Name = name
	}
	if req.IsActive != nil {
		ut.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, ut); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, ErrNameTaken
		case errors.Is(err, core.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	return ut, nil
}

// Delete refuses while any user, deleted or not, still references the type.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, core.ErrConflict):
			return ErrInUse
		case errors.Is(err, core.ErrNotFound):
			return ErrNotFound
		}
		return err
	}

	return nil
}
