// AngelaMos | 2026
// dto.go

package auth

import (
	"github.com/carterperez-dev/admin-console/internal/session"
	"github.com/carterperez-dev/admin-console/internal/user"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName"  validate:"required,min=1,max=100"`
	Email     string `json:"email"     validate:"required,email,max=255"`
	Password  string `json:"password"  validate:"required,min=8,max=128"`
	Phone     string `json:"phone"     validate:"omitempty,max=32"`
	Address   string `json:"address"   validate:"omitempty,max=500"`
	OTP       string `json:"otp"       validate:"required,numeric"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
	OTP      string `json:"otp"      validate:"required,numeric"`
}

type ForgotPasswordRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
	OTP         string `json:"otp"         validate:"required,numeric"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	OTP   string `json:"otp"   validate:"required,numeric"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type LoginResponse struct {
	User    user.UserResponse `json:"user"`
	Session *session.Session  `json:"session"`
}

// Result is a completed sign-in: the user and the session to put in the
// cookie.
type Result struct {
	User    *user.User
	Session *session.Session
	Created bool
}

func (r *Result) Response() LoginResponse {
	return LoginResponse{
		User:    user.ToUserResponse(r.User),
		Session: r.Session,
	}
}
