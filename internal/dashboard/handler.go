// AngelaMos | 2026
// handler.go

package dashboard

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the dashboard. Every route needs a session; what
// each returns depends on the viewer's role.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/metrics", h.Metrics)
		r.Get("/activities", h.Activities)
		r.Get("/user-stats", h.UserStats)
	})
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Metrics(r.Context(), middleware.Subject(r.Context()))
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, "Dashboard metrics retrieved successfully", m)
}

func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = activity.DefaultLimit
	}

	rows, err := h.service.Activities(r.Context(), middleware.Subject(r.Context()), limit)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, "Dashboard activities retrieved successfully", rows)
}

func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.UserStats(
		r.Context(),
		middleware.Subject(r.Context()),
		r.URL.Query().Get("period"),
	)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, "User stats retrieved successfully", stats)
}
