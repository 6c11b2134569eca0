// AngelaMos | 2026
// service.go

package module

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/user"
)

// maxDepth bounds the ancestor walk of the cycle check.
const maxDepth = 64

var (
	ErrModuleNotFound = core.NewAppError(
		core.ErrNotFound,
		"Module not found",
		http.StatusNotFound,
		core.CodeNotFound,
	)
	ErrUserNotFound = core.NewAppError(
		core.ErrNotFound,
		"User not found",
		http.StatusNotFound,
		core.CodeNotFound,
	)
	ErrInvalidParent = core.NewAppError(
		core.ErrInvalidInput,
		"Invalid parentId",
		http.StatusBadRequest,
		core.CodeValidation,
	)
	ErrParentCycle = core.NewAppError(
		core.ErrInvalidInput,
		"A module cannot be moved under itself or one of its descendants",
		http.StatusBadRequest,
		core.CodeValidation,
	)
	ErrSlugTaken      = core.DuplicateError("urlSlug")
	ErrModulesMissing = core.NewAppError(
		core.ErrInvalidInput,
		"One or more modules not found",
		http.StatusBadRequest,
		core.CodeValidation,
	)
	ErrAlreadyAssigned = core.ConflictError("Module already assigned to user")
	ErrNotAssigned     = core.ConflictError("Module not assigned to user")
	ErrAllAssigned     = core.ConflictError("All modules already assigned to user")
)

type Users interface {
	GetLive(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	store    Store
	users    Users
	activity activity.Recorder
}

func NewService(store Store, users Users, recorder activity.Recorder) *Service {
	if recorder == nil {
		recorder = activity.Discard{}
	}
	return &Service{store: store, users: users, activity: recorder}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (*Module, error) {
	m := &Module{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		ParentID:    blankToNil(req.ParentID),
		URLSlug:     blankToNil(req.URLSlug),
		ToolTip:     req.ToolTip,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   &actorID,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if m.ParentID != nil {
		if _, err := s.get(ctx, *m.ParentID); err != nil {
			if errors.Is(err, ErrModuleNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, err
		}
	}

	if err := s.store.Create(ctx, m); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, ErrSlugTaken
		case errors.Is(err, core.ErrNotFound):
			return nil, ErrInvalidParent
		}
		return nil, core.DatabaseError(err)
	}

	s.activity.Record(ctx, activity.ModuleCreated(actorID, m.Name, m.URLSlug))
	return m, nil
}

func (s *Service) get(ctx context.Context, id string) (*Module, error) {
	m, err := s.store.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrModuleNotFound
	}
	if err != nil {
		return nil, core.DatabaseError(err)
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Module, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrModuleNotFound
	}
	return s.get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Module, error) {
	modules, err := s.store.List(ctx)
	if err != nil {
		return nil, core.DatabaseError(err)
	}
	if modules == nil {
		modules = []Module{}
	}
	return modules, nil
}

// Update applies the fields present in req. Moving a module checks that the
// new parent exists and is not the module itself or one of its descendants.
func (s *Service) Update(
	ctx context.Context,
	actorID, id string,
	req UpdateRequest,
) (*Module, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.URLSlug != nil {
		slug := blankToNil(req.URLSlug)
		if slug != nil && (m.URLSlug == nil || *slug != *m.URLSlug) {
			existing, err := s.store.GetBySlug(ctx, *slug)
			if err != nil && !errors.Is(err, core.ErrNotFound) {
				return nil, core.DatabaseError(err)
			}
			if existing != nil && existing.ID != m.ID {
				return nil, ErrSlugTaken
			}
		}
		m.URLSlug = slug
	}

	if req.ParentID != nil {
		parent := blankToNil(req.ParentID)
		if parent != nil && (m.ParentID == nil || *parent != *m.ParentID) {
			if err := s.checkParent(ctx, m.ID, *parent); err != nil {
				return nil, err
			}
		}
		m.ParentID = parent
	}

	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.ToolTip != nil {
		m.ToolTip = req.ToolTip
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.store.Update(ctx, m); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, ErrSlugTaken
		case errors.Is(err, core.ErrNotFound):
			return nil, ErrModuleNotFound
		}
		return nil, core.DatabaseError(err)
	}

	s.activity.Record(ctx, activity.ModuleUpdated(actorID, m.ID))
	return m, nil
}

func (s *Service) checkParent(ctx context.Context, id, parentID string) error {
	if _, err := uuid.Parse(parentID); err != nil {
		return ErrInvalidParent
	}
	if parentID == id {
		return ErrParentCycle
	}

	if _, err := s.get(ctx, parentID); err != nil {
		if errors.Is(err, ErrModuleNotFound) {
			return ErrInvalidParent
		}
		return err
	}

	cur := parentID
	for range maxDepth {
		next, err := s.store.ParentOf(ctx, cur)
		if errors.Is(err, core.ErrNotFound) || next == nil {
			return nil
		}
		if err != nil {
			return core.DatabaseError(err)
		}
		if *next == id {
			return ErrParentCycle
		}
		cur = *next
	}

	return ErrParentCycle
}

func (s *Service) Deactivate(ctx context.Context, actorID, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if _, err := s.store.SetActive(ctx, []string{id}, false); err != nil {
		return core.DatabaseError(err)
	}

	s.activity.Record(ctx, activity.ModuleDeactivated(actorID, id))
	return nil
}

// Delete removes the module for good. Children are re-parented to the top
// level and grants cascade.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrModuleNotFound
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrModuleNotFound
		}
		return core.DatabaseError(err)
	}

	s.activity.Record(ctx, activity.ModuleDeleted(actorID, id))
	return nil
}

// BulkSetActive switches every listed module on or off. Either all ids
// exist and all are updated, or nothing changes.
func (s *Service) BulkSetActive(
	ctx context.Context,
	actorID string,
	req BulkUpdateRequest,
) (int64, error) {
	ids := dedupe(req.ModuleIDs)

	var n int64
	err := s.store.Atomically(ctx, func(repo Repository) error {
		found, err := repo.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return ErrModulesMissing
		}

		n, err = repo.SetActive(ctx, ids, *req.IsActive)
		return err
	})
	if err != nil {
		if core.IsAppError(err) {
			return 0, err
		}
		return 0, core.DatabaseError(err)
	}

	for _, id := range ids {
		if *req.IsActive {
			s.activity.Record(ctx, activity.ModuleUpdated(actorID, id))
		} else {
			s.activity.Record(ctx, activity.ModuleDeactivated(actorID, id))
		}
	}

	return n, nil
}

func (s *Service) liveUser(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrUserNotFound
	}
	if _, err := s.users.GetLive(ctx, id); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Grant(
	ctx context.Context,
	actorID, userID, moduleID string,
) (*Access, error) {
	userID, moduleID = canonicalID(userID), canonicalID(moduleID)
	if err := s.liveUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, moduleID); err != nil {
		return nil, err
	}

	_, err := s.store.ActiveGrant(ctx, userID, moduleID)
	if err == nil {
		return nil, ErrAlreadyAssigned
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, core.DatabaseError(err)
	}

	a := &Access{
		ID:        uuid.New().String(),
		UserID:    userID,
		ModuleID:  moduleID,
		CreatedBy: &actorID,
	}
	if err := s.store.CreateGrant(ctx, a); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrAlreadyAssigned
		}
		return nil, core.DatabaseError(err)
	}

	s.activity.Record(ctx, activity.ModuleAssigned(actorID, userID, moduleID))
	return a, nil
}

func (s *Service) Revoke(ctx context.Context, actorID, userID, moduleID string) error {
	userID, moduleID = canonicalID(userID), canonicalID(moduleID)
	if err := s.liveUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, moduleID); err != nil {
		return err
	}

	a, err := s.store.ActiveGrant(ctx, userID, moduleID)
	if errors.Is(err, core.ErrNotFound) {
		return ErrNotAssigned
	}
	if err != nil {
		return core.DatabaseError(err)
	}

	if err := s.store.DeactivateGrant(ctx, a.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrNotAssigned
		}
		return core.DatabaseError(err)
	}

	s.activity.Record(ctx, activity.ModuleUnassigned(actorID, userID, moduleID))
	return nil
}

// BulkGrant grants every listed module the user does not already hold.
// It fails only when nothing is left to grant.
func (s *Service) BulkGrant(
	ctx context.Context,
	actorID, userID string,
	moduleIDs []string,
) ([]Access, error) {
	userID = canonicalID(userID)
	if err := s.liveUser(ctx, userID); err != nil {
		return nil, err
	}

	ids := dedupe(moduleIDs)
	var granted []Access

	err := s.store.Atomically(ctx, func(repo Repository) error {
		found, err := repo.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return ErrModulesMissing
		}

		held, err := repo.GrantedModuleIDs(ctx, userID, ids)
		if err != nil {
			return err
		}
		already := make(map[string]struct{}, len(held))
		for _, id := range held {
			already[id] = struct{}{}
		}

		for _, id := range ids {
			if _, ok := already[id]; ok {
				continue
			}
			a := Access{
				ID:        uuid.New().String(),
				UserID:    userID,
				ModuleID:  id,
				CreatedBy: &actorID,
			}
			if err := repo.CreateGrant(ctx, &a); err != nil {
				return err
			}
			granted = append(granted, a)
		}

		if len(granted) == 0 {
			return ErrAllAssigned
		}
		return nil
	})
	if err != nil {
		if core.IsAppError(err) {
			return nil, err
		}
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrAlreadyAssigned
		}
		return nil, core.DatabaseError(err)
	}

	for _, a := range granted {
		s.activity.Record(ctx, activity.ModuleAssigned(actorID, userID, a.ModuleID))
	}

	return granted, nil
}

func (s *Service) UserModules(ctx context.Context, userID string) ([]Module, error) {
	if err := s.liveUser(ctx, userID); err != nil {
		return nil, err
	}

	modules, err := s.store.UserModules(ctx, userID)
	if err != nil {
		return nil, core.DatabaseError(err)
	}
	if modules == nil {
		modules = []Module{}
	}
	return modules, nil
}

// canonicalID lowercases an id so it compares equal to the form Postgres
// returns for uuid columns.
func canonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = canonicalID(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
