// AngelaMos | 2026
// cookie_test.go

package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCookies(t *testing.T, secret string) *Cookies {
	t.Helper()
	c, err := NewCookies(CookieConfig{
		Name:   "sid",
		Secret: []byte(secret),
		Secure: true,
		MaxAge: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return c
}

func roundTrip(t *testing.T, c *Cookies, sessionID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, c.Set(rec, sessionID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestCookieSetAndRead(t *testing.T) {
	c := newTestCookies(t, strings.Repeat("a", 32))
	cookie := roundTrip(t, c, "session-123")

	assert.Equal(t, "sid", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)
	assert.NotContains(t, cookie.Value, "session-123")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	id, err := c.Read(req)
	require.NoError(t, err)
	assert.Equal(t, "session-123", id)
}

func TestCookieReadMissing(t *testing.T) {
	c := newTestCookies(t, strings.Repeat("a", 32))

	_, err := c.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoCookie)
}

func TestCookieRejectsTampering(t *testing.T) {
	c := newTestCookies(t, strings.Repeat("a", 32))
	cookie := roundTrip(t, c, "session-123")

	parts := strings.Split(cookie.Value, ".")
	require.Len(t, parts, 3)
	parts[1] = "c2Vzc2lvbi05OTk"
	cookie.Value = strings.Join(parts, ".")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err := c.Read(req)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestCookieRejectsOtherSecret(t *testing.T) {
	signer := newTestCookies(t, strings.Repeat("a", 32))
	reader := newTestCookies(t, strings.Repeat("b", 32))
	cookie := roundTrip(t, signer, "session-123")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err := reader.Read(req)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestCookieClear(t *testing.T) {
	c := newTestCookies(t, strings.Repeat("a", 32))
	rec := httptest.NewRecorder()
	c.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestNewCookiesRequiresSecret(t *testing.T) {
	_, err := NewCookies(CookieConfig{Name: "sid"})
	assert.Error(t, err)
}
