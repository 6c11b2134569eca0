// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/config"
	"github.com/carterperez-dev/admin-console/internal/session"
)

type stubCookies struct {
	id      string
	err     error
	cleared bool
}

func (c *stubCookies) Read(r *http.Request) (string, error) {
	return c.id, c.err
}

func (c *stubCookies) Clear(w http.ResponseWriter) {
	c.cleared = true
}

type stubSessions struct {
	principal *session.Principal
	err       error
}

func (s *stubSessions) Validate(ctx context.Context, id string) (*session.Principal, error) {
	return s.principal, s.err
}

func principal(id, role string) *session.Principal {
	return &session.Principal{
		Session: &session.Session{ID: "s-" + id, UserID: id},
		User:    &session.Identity{ID: id, Role: role, IsActive: true},
	}
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticatorAttachesPrincipal(t *testing.T) {
	cookies := &stubCookies{id: "abc"}
	sessions := &stubSessions{principal: principal("u1", authz.RoleAdmin)}

	var seen string
	h := Authenticator(cookies, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		assert.Equal(t, authz.RoleAdmin, GetUserRole(r.Context()))
		assert.Equal(t, authz.Subject{ID: "u1", Role: authz.RoleAdmin}, Subject(r.Context()))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", seen)
	assert.False(t, cookies.cleared)
}

func TestAuthenticatorRejectsMissingCookie(t *testing.T) {
	cookies := &stubCookies{err: session.ErrNoCookie}

	rec := httptest.NewRecorder()
	Authenticator(cookies, &stubSessions{})(http.HandlerFunc(okHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not logged in!")
	assert.True(t, cookies.cleared)
}

func TestAuthenticatorClearsExpiredSession(t *testing.T) {
	cookies := &stubCookies{id: "abc"}

	rec := httptest.NewRecorder()
	Authenticator(cookies, &stubSessions{err: session.ErrExpired})(http.HandlerFunc(okHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged out!")
	assert.True(t, cookies.cleared)
}

func TestAuthenticatorKeepsCookieOnDeletedAccount(t *testing.T) {
	cookies := &stubCookies{id: "abc"}

	rec := httptest.NewRecorder()
	Authenticator(cookies, &stubSessions{err: session.ErrAccountDeleted})(http.HandlerFunc(okHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, cookies.cleared)
}

func TestGate(t *testing.T) {
	gate := NewGate(authz.MustHierarchy(authz.DefaultRoles))

	tests := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		role   string
		status int
	}{
		{"manager passes manager gate", gate.AtLeast(authz.RoleManager, MsgManageUsersGate), authz.RoleManager, http.StatusOK},
		{"owner passes manager gate", gate.AtLeast(authz.RoleManager, MsgManageUsersGate), authz.RoleSuperadmin, http.StatusOK},
		{"user fails manager gate", gate.AtLeast(authz.RoleManager, MsgManageUsersGate), authz.RoleUser, http.StatusForbidden},
		{"manager fails admin gate", gate.AtLeast(authz.RoleAdmin, MsgAdminGate), authz.RoleManager, http.StatusForbidden},
		{"admin fails owner gate", gate.Owner(MsgOwnerGate), authz.RoleAdmin, http.StatusForbidden},
		{"owner passes owner gate", gate.Owner(MsgOwnerGate), authz.RoleSuperadmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithPrincipal(req.Context(), principal("u", tt.role)))

			rec := httptest.NewRecorder()
			tt.mw(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGateMessage(t *testing.T) {
	gate := NewGate(authz.MustHierarchy(authz.DefaultRoles))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), principal("u", authz.RoleUser)))

	rec := httptest.NewRecorder()
	gate.AtLeast(authz.RoleManager, MsgManageUsersGate)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), MsgManageUsersGate)
}

func TestGateWithoutPrincipal(t *testing.T) {
	gate := NewGate(authz.MustHierarchy(authz.DefaultRoles))

	rec := httptest.NewRecorder()
	gate.Owner(MsgOwnerGate)(http.HandlerFunc(okHandler)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDGeneratedOrEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, strings.Repeat("x", 200), seen)
}

func TestRecovererReturns500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"http://app.example.com/"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiterFallsBackToLocalLimiter(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Name:  "auth",
		Limit: Per(2, time.Minute, 2),
	})
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "Too many requests")
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterKeysAreSeparatedByName(t *testing.T) {
	rdb := unreachableRedis(t)
	limit := Per(1, time.Minute, 1)

	first := NewRateLimiter(rdb, RateLimitConfig{Name: "auth", Limit: limit}).
		Handler(http.HandlerFunc(okHandler))
	second := NewRateLimiter(rdb, RateLimitConfig{Name: "admin", Limit: limit}).
		Handler(http.HandlerFunc(okHandler))

	for _, h := range []http.Handler{first, second} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.11:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyByUserPrefersPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.12:1234"
	assert.Equal(t, "ratelimit:ip:192.0.2.12", KeyByUser(req))

	req = req.WithContext(WithPrincipal(req.Context(), principal("u9", authz.RoleUser)))
	assert.Equal(t, "ratelimit:user:u9", KeyByUser(req))
}

func TestLimitFrom(t *testing.T) {
	l := LimitFrom(config.LimitConfig{Requests: 10, Window: 15 * time.Minute})
	require.Equal(t, 10, l.Rate)
	assert.Equal(t, 10, l.Burst)
	assert.Equal(t, 15*time.Minute, l.Period)
}
