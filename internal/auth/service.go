// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/otp"
	"github.com/carterperez-dev/admin-console/internal/session"
	"github.com/carterperez-dev/admin-console/internal/user"
)

// ErrOTPNotFound is what the standalone verify check reports.
var ErrOTPNotFound = core.NewAppError(
	core.ErrNotFound,
	"Invalid or Expired OTP",
	http.StatusNotFound,
	core.CodeNotFound,
)

type Users interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	ResetPassword(ctx context.Context, email, newPassword string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type Sessions interface {
	Create(ctx context.Context, userID string) (*session.Session, error)
	Lookup(ctx context.Context, id string) (*session.Session, error)
	Destroy(ctx context.Context, id string) error
	DestroyAll(ctx context.Context, userID string) (int64, error)
}

type OTPs interface {
	Issue(ctx context.Context, email string) error
	Peek(ctx context.Context, email, code string) error
	ConsumeAndVerify(ctx context.Context, email, code string) error
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

type Service struct {
	users    Users
	sessions Sessions
	otps     OTPs
	google   IDTokenVerifier
	activity activity.Recorder
	logger   *slog.Logger
}

func NewService(
	users Users,
	sessions Sessions,
	otps OTPs,
	google IDTokenVerifier,
	recorder activity.Recorder,
) *Service {
	if recorder == nil {
		recorder = activity.Discard{}
	}
	return &Service{
		users:    users,
		sessions: sessions,
		otps:     otps,
		google:   google,
		activity: recorder,
		logger:   slog.Default(),
	}
}

// Register consumes the OTP and creates the account. The OTP is spent
// even if the account cannot be created.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	if err := s.otps.ConsumeAndVerify(ctx, req.Email, req.OTP); err != nil {
		return nil, err
	}

	return s.users.Register(ctx, user.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	if err := s.otps.ConsumeAndVerify(ctx, req.Email, req.OTP); err != nil {
		return nil, err
	}

	u, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, u, false)
}

// GoogleLogin signs in the account matching the token's email, creating it
// on first use.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*Result, error) {
	id, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if u.IsDeleted {
			return nil, session.ErrAccountDeleted
		}
		if !u.IsActive {
			return nil, user.ErrAccountInactive
		}
		return s.startSession(ctx, u, false)

	case errors.Is(err, user.ErrUserNotFound):
		return s.provisionGoogleUser(ctx, id)

	default:
		return nil, err
	}
}

func (s *Service) provisionGoogleUser(ctx context.Context, id *GoogleIdentity) (*Result, error) {
	password, err := core.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	first, last := id.SplitName()
	u, err := s.users.Register(ctx, user.RegisterInput{
		Email:     id.Email,
		Password:  password,
		FirstName: first,
		LastName:  last,
		Picture:   id.Picture,
	})
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(first + " " + last)
	s.activity.Record(ctx, activity.Entry{
		Type:        activity.TypeUserCreated,
		Description: fmt.Sprintf("User %s was created", name),
		UserID:      u.ID,
		Metadata:    activity.Metadata{"email": u.Email},
	})

	return s.startSession(ctx, u, true)
}

func (s *Service) startSession(ctx context.Context, u *user.User, created bool) (*Result, error) {
	sess, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.activity.Record(ctx, activity.Login(u.ID, u.Email))

	return &Result{User: u, Session: sess, Created: created}, nil
}

// ForgotPassword resets the password with an OTP and signs the account out
// everywhere.
func (s *Service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	if err := s.otps.ConsumeAndVerify(ctx, req.Email, req.OTP); err != nil {
		return err
	}

	u, err := s.users.ResetPassword(ctx, req.Email, req.NewPassword)
	if err != nil {
		return err
	}

	if n, err := s.sessions.DestroyAll(ctx, u.ID); err != nil {
		s.logger.Warn("failed to end sessions after password reset",
			"user_id", u.ID,
			"error", err,
		)
	} else if n > 0 {
		s.logger.Info("ended sessions after password reset",
			"user_id", u.ID,
			"count", n,
		)
	}

	s.activity.Record(ctx, activity.PasswordChanged(u.ID))
	return nil
}

// Logout ends one session. Unknown or empty ids are not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	sess, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}

	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}

	if sess != nil {
		s.activity.Record(ctx, activity.Logout(sess.UserID))
	}
	return nil
}

// LogoutAll ends every session of the user owning sessionID.
func (s *Service) LogoutAll(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	sess, err := s.sessions.Lookup(ctx, sessionID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.sessions.DestroyAll(ctx, sess.UserID); err != nil {
		return err
	}

	s.activity.Record(ctx, activity.Logout(sess.UserID))
	return nil
}

func (s *Service) SendOTP(ctx context.Context, email string) error {
	return s.otps.Issue(ctx, email)
}

func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	if err := s.otps.Peek(ctx, email, code); err != nil {
		if errors.Is(err, otp.ErrInvalidOTP) {
			return ErrOTPNotFound
		}
		return err
	}
	return nil
}
