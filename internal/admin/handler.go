// AngelaMos | 2026
// handler.go

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/middleware"
	"github.com/carterperez-dev/admin-console/internal/user"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Gates are the role checks each route group sits behind.
type Gates struct {
	AdminOrManager func(http.Handler) http.Handler
	Admin          func(http.Handler) http.Handler
	Owner          func(http.Handler) http.Handler
}

func (h *Handler) RegisterRoutes(r chi.Router, g Gates) {
	r.With(g.AdminOrManager).Get("/users", h.ListUsers)
	r.With(g.AdminOrManager).Get("/admin/users/all", h.ListUsers)
	r.With(g.AdminOrManager).Post("/admin/logout/user/{id}", h.LogoutUser)
	r.With(g.Admin).Delete("/admin/delete/user/{id}", h.SoftDelete)
	r.With(g.Admin).Delete("/admin/hard/delete/user/{id}", h.HardDelete)
	r.With(g.Owner).Patch("/admin/recover/user/{id}", h.Recover)
	r.With(g.AdminOrManager).Patch("/admin/change/usertype/user/{id}", h.ChangeUserType)
	r.With(g.Admin).Post("/admin/users", h.CreateUser)
	r.With(g.AdminOrManager).Get("/admin/users/{id}", h.GetUser)
	r.With(g.Admin).Put("/admin/users/{id}", h.UpdateUser)
}

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

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Paginated(w, users, params.Page, params.Limit, total)
}

func (h *Handler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	err := h.service.LogoutUser(
		r.Context(),
		middleware.Subject(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "User logged out successfully!")
}

func (h *Handler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.SoftDelete(
		r.Context(),
		middleware.Subject(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "User deleted successfully!")
}

func (h *Handler) HardDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.HardDelete(
		r.Context(),
		middleware.Subject(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "User deleted successfully!")
}

func (h *Handler) Recover(w http.ResponseWriter, r *http.Request) {
	err := h.service.Recover(
		r.Context(),
		middleware.Subject(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusCreated, "User recovered successfully!")
}

func (h *Handler) ChangeUserType(w http.ResponseWriter, r *http.Request) {
	var req ChangeUserTypeRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.service.ChangeUserType(
		r.Context(),
		middleware.Subject(r.Context()),
		chi.URLParam(r, "id"),
		req.UserTypeName,
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusCreated, "User type changed successfully!")
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.CreateUser(r.Context(), middleware.Subject(r.Context()), req)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.JSON(w, http.StatusCreated, userResponse{
		Message: "User created successfully",
		User:    user.ToDetailResponse(u),
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, user.ToDetailResponse(u))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req user.UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.UpdateUser(
		r.Context(),
		middleware.Subject(r.Context()),
		chi.URLParam(r, "id"),
		req,
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, userResponse{Message: "User updated successfully", User: user.ToDetailResponse(u)})
}
