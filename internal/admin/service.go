// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/user"
	"github.com/carterperez-dev/admin-console/internal/usertype"
)

var (
	ErrLogoutSelf     = core.ForbiddenError("You can not logout yourself!")
	ErrLogoutSuperior = core.ForbiddenError("You can only logout users lower than you in hierarchy!")
	ErrDeleteSelf     = core.ForbiddenError("You can not delete yourself!")
	ErrDeleteSuperior = core.ForbiddenError("You can not delete your superior or yourself!")
	ErrRoleChange     = core.ForbiddenError("Unauthorized change is tried to perform!")
	ErrTopRoleAssign  = core.ForbiddenError("You can not set superadmin user type!")
	ErrUpdateDenied   = core.ForbiddenError("Unauthorized to update this user")
	ErrCreateDenied   = core.ForbiddenError("You can not create a user with this user type!")
)

// Users is the slice of the credential store admin operations need.
type Users interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetLive(ctx context.Context, id string) (*user.User, error)
	Create(ctx context.Context, req user.CreateUserRequest) (*user.User, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (*user.User, error)
	ChangeUserType(ctx context.Context, u *user.User, ut *usertype.UserType) error
	ResolveType(ctx context.Context, id string) (*usertype.UserType, error)
	SetDeleted(ctx context.Context, id string, deleted bool) error
	HardDelete(ctx context.Context, id string) error
	List(ctx context.Context, params user.ListParams) ([]user.User, int, error)
}

type Types interface {
	GetByName(ctx context.Context, name string) (*usertype.UserType, error)
}

type Sessions interface {
	DestroyAll(ctx context.Context, userID string) (int64, error)
	LoggedInUsers(ctx context.Context) (map[string]struct{}, error)
}

type Service struct {
	users    Users
	types    Types
	sessions Sessions
	roles    *authz.Hierarchy
	activity activity.Recorder
	logger   *slog.Logger
}

func NewService(
	users Users,
	types Types,
	sessions Sessions,
	roles *authz.Hierarchy,
	recorder activity.Recorder,
) *Service {
	if recorder == nil {
		recorder = activity.Discard{}
	}
	return &Service{
		users:    users,
		types:    types,
		sessions: sessions,
		roles:    roles,
		activity: recorder,
		logger:   slog.Default(),
	}
}

func subjectOf(u *user.User) authz.Subject {
	return authz.Subject{ID: u.ID, Role: u.Role()}
}

// target loads the user an operation acts on. Soft-deleted users only
// count when live is false.
func (s *Service) target(ctx context.Context, id string, live bool) (*user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, user.ErrUserNotFound
	}
	if live {
		return s.users.GetLive(ctx, id)
	}
	return s.users.GetByID(ctx, id)
}

// LogoutUser ends every session of a user ranked below the actor.
func (s *Service) LogoutUser(ctx context.Context, actor authz.Subject, id string) error {
	target, err := s.target(ctx, id, false)
	if err != nil {
		return err
	}

	if err := s.roles.Authorize(authz.ActionLogout, actor, subjectOf(target)); err != nil {
		if errors.Is(err, authz.ErrSelfTarget) {
			return ErrLogoutSelf
		}
		return ErrLogoutSuperior
	}

	n, err := s.sessions.DestroyAll(ctx, target.ID)
	if err != nil {
		return err
	}

	s.logger.Info("sessions revoked by admin",
		"actor_id", actor.ID,
		"user_id", target.ID,
		"sessions", n,
	)
	return nil
}

func (s *Service) authorizeDelete(
	ctx context.Context,
	action authz.Action,
	actor authz.Subject,
	id string,
) (*user.User, error) {
	if actor.ID == id {
		return nil, ErrDeleteSelf
	}

	target, err := s.target(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if err := s.roles.Authorize(action, actor, subjectOf(target)); err != nil {
		if errors.Is(err, authz.ErrSelfTarget) {
			return nil, ErrDeleteSelf
		}
		return nil, ErrDeleteSuperior
	}

	return target, nil
}

// SoftDelete flags the user deleted and signs them out everywhere.
func (s *Service) SoftDelete(ctx context.Context, actor authz.Subject, id string) error {
	target, err := s.authorizeDelete(ctx, authz.ActionSoftDelete, actor, id)
	if err != nil {
		return err
	}

	if err := s.users.SetDeleted(ctx, target.ID, true); err != nil {
		return err
	}

	if _, err := s.sessions.DestroyAll(ctx, target.ID); err != nil {
		return err
	}

	s.activity.Record(ctx, activity.UserDeleted(actor.ID, target.ID))
	return nil
}

// HardDelete removes the user row. Sessions and module grants go with it.
func (s *Service) HardDelete(ctx context.Context, actor authz.Subject, id string) error {
	target, err := s.authorizeDelete(ctx, authz.ActionHardDelete, actor, id)
	if err != nil {
		return err
	}

	if _, err := s.sessions.DestroyAll(ctx, target.ID); err != nil {
		return err
	}

	if err := s.users.HardDelete(ctx, target.ID); err != nil {
		return err
	}

	s.activity.Record(ctx, activity.UserDeleted(actor.ID, target.ID))
	return nil
}

// Recover clears the deleted flag. Owner gating happens at the route.
func (s *Service) Recover(ctx context.Context, actor authz.Subject, id string) error {
	target, err := s.target(ctx, id, false)
	if err != nil {
		return err
	}
	if !target.IsDeleted {
		return nil
	}

	if err := s.users.SetDeleted(ctx, target.ID, false); err != nil {
		return err
	}

	s.activity.Record(ctx, activity.UserUpdated(actor.ID, target.ID))
	return nil
}

// ChangeUserType moves a user to another role. The actor must outrank both
// the user's current role and the new one, and the top role is never
// handed out.
func (s *Service) ChangeUserType(
	ctx context.Context,
	actor authz.Subject,
	id, typeName string,
) (*user.User, error) {
	target, err := s.target(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.roles.Authorize(authz.ActionChangeRole, actor, subjectOf(target)); err != nil {
		return nil, ErrRoleChange
	}

	if s.roles.IsOwner(typeName) {
		return nil, ErrTopRoleAssign
	}

	ut, err := s.types.GetByName(ctx, usertype.NormalizeName(typeName))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, user.ErrInvalidUserType
		}
		return nil, err
	}

	if err := s.roles.AuthorizeAssignment(actor, ut.Name); err != nil {
		if errors.Is(err, authz.ErrUnknownRole) {
			return nil, user.ErrInvalidUserType
		}
		return nil, ErrRoleChange
	}

	if err := s.users.ChangeUserType(ctx, target, ut); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.PermissionChanged(actor.ID, target.ID))
	return target, nil
}

// CreateUser adds an account with an explicit role, which must sit below
// the actor's own.
func (s *Service) CreateUser(
	ctx context.Context,
	actor authz.Subject,
	req user.CreateUserRequest,
) (*user.User, error) {
	ut, err := s.users.ResolveType(ctx, req.UserTypeID)
	if err != nil {
		return nil, err
	}

	if err := s.roles.AuthorizeAssignment(actor, ut.Name); err != nil {
		return nil, ErrCreateDenied
	}

	u, err := s.users.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.UserCreated(actor.ID, u.FirstName, u.LastName, u.Email))
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.target(ctx, id, true)
}

// UpdateUser applies a partial update to a user ranked below the actor.
// Moving the user to another role is held to the assignment rule.
func (s *Service) UpdateUser(
	ctx context.Context,
	actor authz.Subject,
	id string,
	req user.UpdateUserRequest,
) (*user.User, error) {
	target, err := s.target(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if err := s.roles.Authorize(authz.ActionUpdate, actor, subjectOf(target)); err != nil {
		return nil, ErrUpdateDenied
	}

	if req.UserTypeID != nil && *req.UserTypeID != target.UserTypeID {
		ut, err := s.users.ResolveType(ctx, *req.UserTypeID)
		if err != nil {
			return nil, err
		}
		if err := s.roles.AuthorizeAssignment(actor, ut.Name); err != nil {
			return nil, ErrUpdateDenied
		}
	}

	u, err := s.users.Update(ctx, target.ID, req)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.UserUpdated(actor.ID, u.ID))
	return u, nil
}

// ListUsers returns a page of users with a flag for those holding a live
// session.
func (s *Service) ListUsers(
	ctx context.Context,
	params user.ListParams,
) ([]user.SummaryResponse, int, error) {
	params.Normalize()

	users, total, err := s.users.List(ctx, params)
	if err != nil {
		return nil, 0, core.DatabaseError(err)
	}

	online, err := s.sessions.LoggedInUsers(ctx)
	if err != nil {
		s.logger.Warn("could not load live sessions", "error", err)
		online = map[string]struct{}{}
	}

	return user.ToSummaryList(users, online), total, nil
}
