// AngelaMos | 2026
// handler.go

package usertype

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/admin-console/internal/core"
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

// RegisterRoutes mounts user type management. Every route is owner only.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	ownerOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/user-types", func(r chi.Router) {
		r.Use(ownerOnly)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ut, err := h.service.Create(r.Context(), req)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusCreated, "UserType created successfully", ut)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.List(r.Context())
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, "", types)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ut, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, "", ut)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ut, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, "UserType updated successfully", ut)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Message(w, http.StatusOK, "UserType deleted successfully")
}
