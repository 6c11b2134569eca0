// AngelaMos | 2026
// handler.go

package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the signed-in user's own endpoints. Paths are
// relative to the /user prefix.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Get("/data", h.GetData)
}

func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "Not logged in!")
		return
	}

	u, err := h.service.GetLive(r.Context(), userID)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.OK(w, ToProfileResponse(u))
}
