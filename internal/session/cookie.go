// AngelaMos | 2026
// cookie.go

package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

var (
	ErrNoCookie      = errors.New("session cookie missing")
	ErrInvalidCookie = errors.New("session cookie signature invalid")
)

type CookieConfig struct {
	Name   string
	Secret []byte
	Secure bool
	MaxAge time.Duration
}

// Cookies reads and writes the session cookie. The value is a compact JWS
// (HS256) whose payload is the session id.
type Cookies struct {
	cfg CookieConfig
	key jwk.Key
}

func NewCookies(cfg CookieConfig) (*Cookies, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("cookie secret is empty")
	}
	if cfg.Name == "" {
		cfg.Name = "sid"
	}

	key, err := jwk.Import(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("import cookie key: %w", err)
	}

	return &Cookies{cfg: cfg, key: key}, nil
}

func (c *Cookies) Name() string {
	return c.cfg.Name
}

func (c *Cookies) Set(w http.ResponseWriter, sessionID string) error {
	signed, err := jws.Sign([]byte(sessionID), jws.WithKey(jwa.HS256(), c.key))
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.Name,
		Value:    string(signed),
		Path:     "/",
		MaxAge:   int(c.cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the verified session id carried by the request.
func (c *Cookies) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil || cookie.Value == "" {
		return "", ErrNoCookie
	}

	payload, err := jws.Verify([]byte(cookie.Value), jws.WithKey(jwa.HS256(), c.key))
	if err != nil {
		return "", ErrInvalidCookie
	}

	return string(payload), nil
}
