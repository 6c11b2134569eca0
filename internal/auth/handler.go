// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/admin-console/internal/core"
)

type Cookies interface {
	Set(w http.ResponseWriter, sessionID string) error
	Read(r *http.Request) (string, error)
	Clear(w http.ResponseWriter)
}

type Handler struct {
	service   *Service
	cookies   Cookies
	validator *validator.Validate
}

func NewHandler(service *Service, cookies Cookies) *Handler {
	return &Handler{
		service:   service,
		cookies:   cookies,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the sign-in flows relative to the /user prefix.
// Credential and OTP endpoints sit behind the auth limiter.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(limiter)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/send-otp", h.SendOTP)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/google/login", h.GoogleLogin)
		r.Post("/forgot/password", h.ForgotPassword)
	})

	r.Post("/logout", h.Logout)
	r.Post("/logout/all", h.LogoutAll)
}

// decode reads and validates a JSON body, writing the 400 itself.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.service.Register(r.Context(), req); err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusCreated, "User created successfully.")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	if err := h.cookies.Set(w, res.Session.ID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, res.Response())
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	if err := h.cookies.Set(w, res.Session.ID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	if res.Created {
		core.Success(w, http.StatusCreated, "User created successfully.", res.Response())
		return
	}
	core.Success(w, http.StatusOK, "Login successfully!", res.Response())
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req); err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	h.cookies.Clear(w)
	core.Message(w, http.StatusCreated, "Password reset successfully!")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	//nolint:errcheck // a missing or forged cookie still logs out
	id, _ := h.cookies.Read(r)

	if err := h.service.Logout(r.Context(), id); err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	h.cookies.Clear(w)
	core.Message(w, http.StatusOK, "Logged out!")
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	//nolint:errcheck
	id, _ := h.cookies.Read(r)

	if err := h.service.LogoutAll(r.Context(), id); err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	h.cookies.Clear(w)
	core.Message(w, http.StatusOK, "Logged out!")
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.SendOTP(r.Context(), req.Email); err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusCreated, "OTP sent successfully")
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusCreated, "OTP verification successful")
}
