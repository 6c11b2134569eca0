// AngelaMos | 2026
// handler.go

package module

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/middleware"
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

// RegisterRoutes mounts module management under /admin. Reads need
// admin-or-manager, writes need admin.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	adminOrManager func(http.Handler) http.Handler,
	admin func(http.Handler) http.Handler,
) {
	r.Route("/admin/modules", func(r chi.Router) {
		r.With(adminOrManager).Get("/", h.List)
		r.With(admin).Post("/", h.Create)
		r.With(admin).Post("/bulk-update", h.BulkUpdate)
		r.With(adminOrManager).Get("/{id}", h.Get)
		r.With(admin).Put("/{id}", h.Update)
		r.With(admin).Delete("/{id}", h.Delete)
		r.With(admin).Patch("/{id}/deactivate", h.Deactivate)
	})

	r.With(adminOrManager).Get("/admin/users/{id}/modules", h.UserModules)
	r.With(admin).Post("/admin/assign/module", h.Assign)
	r.With(admin).Post("/admin/unassign/module", h.Unassign)
	r.With(admin).Post("/admin/bulk/assign/modules", h.BulkAssign)
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

type moduleResponse struct {
	Message string  `json:"message"`
	Module  *Module `json:"module"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.JSON(w, http.StatusCreated, moduleResponse{
		Message: "Module created successfully",
		Module:  m,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	modules, err := h.service.List(r.Context())
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, modules)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, m)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
		req,
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, moduleResponse{Message: "Module updated successfully", Module: m})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	err := h.service.Deactivate(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "Module deactivated successfully")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "Module deleted successfully")
}

func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	n, err := h.service.BulkSetActive(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, map[string]any{
		"message": fmt.Sprintf("%d modules updated successfully", n),
		"count":   n,
	})
}

func (h *Handler) UserModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.service.UserModules(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, modules)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.service.Grant(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.UserID,
		req.ModuleID,
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.JSON(w, http.StatusCreated, map[string]any{
		"message": "Module assigned to user successfully",
		"access":  a,
	})
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.Revoke(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.UserID,
		req.ModuleID,
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "Module unassigned from user successfully")
}

func (h *Handler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req BulkGrantRequest
	if !h.decode(w, r, &req) {
		return
	}

	granted, err := h.service.BulkGrant(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req.UserID,
		req.ModuleIDs,
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.JSON(w, http.StatusCreated, map[string]any{
		"message":  fmt.Sprintf("%d modules assigned to user successfully", len(granted)),
		"count":    len(granted),
		"accesses": granted,
	})
}
