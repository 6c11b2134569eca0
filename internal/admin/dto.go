// AngelaMos | 2026
// dto.go

package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/carterperez-dev/admin-console/internal/user"
)

type ChangeUserTypeRequest struct {
	UserTypeName string `json:"userTypeName" validate:"required,min=1,max=50"`
}

type userResponse struct {
	Message string              `json:"message"`
	User    user.DetailResponse `json:"user"`
}

// listParams reads page, limit, search, userTypeId and includeDeleted.
// Deleted users are listed unless includeDeleted=false.
func listParams(r *http.Request) user.ListParams {
	q := r.URL.Query()

	p := user.ListParams{
		Search:         strings.TrimSpace(q.Get("search")),
		UserTypeID:     q.Get("userTypeId"),
		IncludeDeleted: true,
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.Limit, _ = strconv.Atoi(q.Get("limit"))
	if v, err := strconv.ParseBool(q.Get("includeDeleted")); err == nil {
		p.IncludeDeleted = v
	}

	p.Normalize()
	return p
}
