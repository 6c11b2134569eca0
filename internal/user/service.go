// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/session"
	"github.com/carterperez-dev/admin-console/internal/usertype"
)

var (
	ErrUserNotFound = core.NewAppError(
		core.ErrNotFound,
		"User not found!",
		http.StatusNotFound,
		core.CodeNotFound,
	)
	ErrEmailTaken = core.NewAppError(
		core.ErrDuplicateKey,
		"Email already in use",
		http.StatusConflict,
		core.CodeConflict,
	)
	ErrInvalidCredentials = core.NewAppError(
		core.ErrUnauthorized,
		"Invalid email or password!",
		http.StatusUnauthorized,
		core.CodeAuthentication,
	)
	ErrAccountInactive = core.NewAppError(
		core.ErrForbidden,
		"Your account is inactive. Contact your application Admin!",
		http.StatusForbidden,
		core.CodeAuthorization,
	)
	ErrSamePassword = core.NewAppError(
		core.ErrInvalidInput,
		"New Password is same as current password!",
		http.StatusBadRequest,
		core.CodeValidation,
	)
	ErrInvalidUserType = core.NewAppError(
		core.ErrInvalidInput,
		"Invalid user type!",
		http.StatusBadRequest,
		core.CodeValidation,
	)
)

// Service is the credential store.
type Service struct {
	store  Store
	types  usertype.Repository
	roles  *authz.Hierarchy
	logger *slog.Logger
}

func NewService(
	store Store,
	types usertype.Repository,
	roles *authz.Hierarchy,
) *Service {
	return &Service{
		store:  store,
		types:  types,
		roles:  roles,
		logger: slog.Default(),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity implements session.IdentityProvider.
func (s *Service) Identity(
	ctx context.Context,
	userID string,
) (*session.Identity, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetLive is GetByID that also treats a soft-deleted user as missing.
func (s *Service) GetLive(ctx context.Context, id string) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Register creates a self-service account. The very first account gets
// the top role; every later one the lowest. Both role records are created
// on demand, and the whole decision runs under an advisory lock so two
// concurrent first signups cannot both become the owner.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	hash, err := core.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        in.Phone,
		Address:      in.Address,
		Picture:      in.Picture,
		IsActive:     true,
	}

	err = s.store.Atomically(ctx, func(tx Tx) error {
		if err := tx.Users.LockRegistrations(ctx); err != nil {
			return err
		}

		taken, err := tx.Users.ExistsByEmail(ctx, u.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		n, err := tx.Users.Count(ctx)
		if err != nil {
			return err
		}

		role := s.roles.Bottom()
		if n == 0 {
			role = s.roles.Top()
		}

		ut, err := tx.Types.FindOrCreate(ctx, role)
		if err != nil {
			return err
		}

		u.UserTypeID = ut.ID
		u.UserType = *ut

		return tx.Users.Create(ctx, u)
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if u.Role() == s.roles.Top() {
		s.logger.Info("bootstrapped first user as owner", "user_id", u.ID)
	}

	return u, nil
}

// Authenticate checks a password login. The password is verified before
// the account state so a wrong password never reveals whether an account
// was deleted.
func (s *Service) Authenticate(
	ctx context.Context,
	email, password string,
) (*User, error) {
	u, err := s.store.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention
			_, _, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if u.IsDeleted {
		return nil, session.ErrAccountDeleted
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}

	if newHash != "" {
		if err := s.store.UpdatePassword(ctx, u.ID, newHash); err != nil {
			s.logger.Warn("password rehash failed", "user_id", u.ID, "error", err)
		} else {
			u.PasswordHash = newHash
		}
	}

	return u, nil
}

// ResetPassword replaces the password of the live account for email.
func (s *Service) ResetPassword(
	ctx context.Context,
	email, newPassword string,
) (*User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, session.ErrAccountDeleted
	}

	same, err := core.VerifyPassword(newPassword, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if same {
		return nil, ErrSamePassword
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	return u, nil
}

// Create adds a user with an explicit type. Whether the caller may assign
// that type is decided before this is called.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	ut, err := s.ResolveType(ctx, req.UserTypeID)
	if err != nil {
		return nil, err
	}

	email := NormalizeEmail(req.Email)
	taken, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:                uuid.New().String(),
		Email:             email,
		PasswordHash:      hash,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Phone:             req.Phone,
		Address:           req.Address,
		BankName:          req.BankName,
		BankIFSCCode:      req.BankIFSCCode,
		BankAccountNumber: req.BankAccountNumber,
		BankAddress:       req.BankAddress,
		UserTypeID:        ut.ID,
		UserType:          *ut,
		IsActive:          true,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return u, nil
}

// ResolveType loads a user type by id, reporting an unknown id as a bad
// request.
func (s *Service) ResolveType(ctx context.Context, id string) (*usertype.UserType, error) {
	ut, err := s.types.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidUserType
	}
	return ut, err
}

// Update applies a partial update to a live user.
func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	u, err := s.GetLive(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email != u.Email {
			taken, err := s.store.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken
			}
			u.Email = email
		}
	}

	if req.Password != nil {
		hash, err := core.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	if req.UserTypeID != nil && *req.UserTypeID != u.UserTypeID {
		ut, err := s.ResolveType(ctx, *req.UserTypeID)
		if err != nil {
			return nil, err
		}
		u.UserTypeID = ut.ID
		u.UserType = *ut
	}

	setIf(&u.FirstName, req.FirstName)
	setIf(&u.LastName, req.LastName)
	setIf(&u.Phone, req.Phone)
	setIf(&u.Address, req.Address)
	setIf(&u.BankName, req.BankName)
	setIf(&u.BankIFSCCode, req.BankIFSCCode)
	setIf(&u.BankAccountNumber, req.BankAccountNumber)
	setIf(&u.BankAddress, req.BankAddress)
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.store.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			return nil, ErrEmailTaken
		case errors.Is(err, core.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return u, nil
}

// ChangeUserType moves a user to the named role.
func (s *Service) ChangeUserType(
	ctx context.Context,
	u *User,
	ut *usertype.UserType,
) error {
	u.UserTypeID = ut.ID
	u.UserType = *ut

	if err := s.store.Update(ctx, u); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *Service) SetDeleted(ctx context.Context, id string, deleted bool) error {
	err := s.store.SetDeleted(ctx, id, deleted)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, core.ErrDuplicateKey):
		return ErrEmailTaken
	}
	return err
}

func (s *Service) HardDelete(ctx context.Context, id string) error {
	err := s.store.HardDelete(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *Service) List(ctx context.Context, params ListParams) ([]User, int, error) {
	return s.store.List(ctx, params)
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

var _ session.IdentityProvider = (*Service)(nil)
