// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/core"
	"github.com/carterperez-dev/admin-console/internal/session"
)

type contextKey string

const PrincipalKey contextKey = "principal"

const (
	MsgManageUsersGate = "You do not have an access to manage users!"
	MsgAdminGate       = "You do not have access to manage users!"
	MsgOwnerGate       = "You do not have access to perform owner operations!"
)

type SessionValidator interface {
	Validate(ctx context.Context, id string) (*session.Principal, error)
}

type SessionCookies interface {
	Read(r *http.Request) (string, error)
	Clear(w http.ResponseWriter)
}

// Authenticator resolves the session cookie into a Principal. Requests
// without a usable session are rejected and the stale cookie is cleared.
func Authenticator(
	cookies SessionCookies,
	sessions SessionValidator,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cookies.Read(r)
			if err != nil {
				cookies.Clear(w)
				core.JSONErrorCtx(w, r, session.ErrUnauthenticated)
				return
			}

			principal, err := sessions.Validate(r.Context(), id)
			if err != nil {
				if errors.Is(err, session.ErrExpired) ||
					errors.Is(err, session.ErrUnauthenticated) {
					cookies.Clear(w)
				}
				core.JSONErrorCtx(w, r, err)
				return
			}

			core.SetSpanUser(r.Context(), principal.User.ID, principal.User.Role)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// Gate builds role checks against the configured hierarchy. The role always
// comes from the authenticated principal.
type Gate struct {
	hierarchy *authz.Hierarchy
}

func NewGate(hierarchy *authz.Hierarchy) *Gate {
	return &Gate{hierarchy: hierarchy}
}

func (g *Gate) AtLeast(minimum, message string) func(http.Handler) http.Handler {
	return g.require(func(role string) bool {
		return g.hierarchy.AtLeast(role, minimum)
	}, message)
}

func (g *Gate) Owner(message string) func(http.Handler) http.Handler {
	return g.require(g.hierarchy.IsOwner, message)
}

func (g *Gate) require(
	allowed func(role string) bool,
	message string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				core.JSONErrorCtx(w, r, session.ErrUnauthenticated)
				return
			}

			if !allowed(p.User.Role) {
				core.Forbidden(w, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p *session.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func GetPrincipal(ctx context.Context) *session.Principal {
	if p, ok := ctx.Value(PrincipalKey).(*session.Principal); ok && p.User != nil {
		return p
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.User.ID
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.User.Role
	}
	return ""
}

// Subject is the acting user as seen by the authorizer.
func Subject(ctx context.Context) authz.Subject {
	if p := GetPrincipal(ctx); p != nil {
		return authz.Subject{ID: p.User.ID, Role: p.User.Role}
	}
	return authz.Subject{}
}
