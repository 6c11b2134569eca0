// AngelaMos | 2026
// handler.go

package activity

import (
	"net/http"
	"strconv"
	"time"

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	adminOrManager func(http.Handler) http.Handler,
) {
	r.With(adminOrManager).Get("/activities", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	page, err := h.service.List(r.Context(), middleware.Subject(r.Context()), q)
	if err != nil {
		core.JSONErrorCtx(w, r, err)
		return
	}

	core.Success(w, http.StatusOK, "", page)
}

// ParseQuery reads page, limit, type, userId, startDate and endDate.
func ParseQuery(r *http.Request) (Query, error) {
	v := r.URL.Query()

	q := Query{
		Page:   atoiDefault(v.Get("page"), 1),
		Limit:  atoiDefault(v.Get("limit"), DefaultLimit),
		UserID: v.Get("userId"),
	}

	if t := v.Get("type"); t != "" {
		q.Type = Type(t)
		if !q.Type.Valid() {
			return q, core.ValidationError("Invalid activity type")
		}
	}

	var err error
	if q.Start, err = parseDate(v.Get("startDate"), false); err != nil {
		return q, core.ValidationError("Invalid startDate")
	}
	if q.End, err = parseDate(v.Get("endDate"), true); err != nil {
		return q, core.ValidationError("Invalid endDate")
	}

	q.Normalize()
	return q, nil
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// parseDate accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
