// AngelaMos | 2026
// google.go

package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/admin-console/internal/config"
	"github.com/carterperez-dev/admin-console/internal/core"
)

var ErrInvalidGoogleToken = core.NewAppError(
	core.ErrUnauthorized,
	"Invalid Google token!",
	http.StatusUnauthorized,
	core.CodeAuthentication,
)

// GoogleIdentity is the subset of ID token claims used for sign-in.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	Picture       string
}

// SplitName returns the first and last name, preferring the explicit
// claims over splitting the display name on the first space.
func (g *GoogleIdentity) SplitName() (string, string) {
	if g.GivenName != "" {
		return g.GivenName, g.FamilyName
	}
	first, last, _ := strings.Cut(strings.TrimSpace(g.Name), " ")
	return first, strings.TrimSpace(last)
}

type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// RemoteKeys fetches a JWKS document and keeps it for ttl.
type RemoteKeys struct {
	url string
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	set     jwk.Set
	fetched time.Time
}

func NewRemoteKeys(url string, ttl time.Duration) *RemoteKeys {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RemoteKeys{url: url, ttl: ttl, now: time.Now}
}

func (k *RemoteKeys) Keys(ctx context.Context) (jwk.Set, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.set != nil && k.now().Sub(k.fetched) < k.ttl {
		return k.set, nil
	}

	set, err := jwk.Fetch(ctx, k.url)
	if err != nil {
		if k.set != nil {
			return k.set, nil
		}
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	k.set = set
	k.fetched = k.now()
	return set, nil
}

type GoogleVerifier struct {
	clientID string
	issuers  []string
	keys     KeySource
	now      func() time.Time
}

func NewGoogleVerifier(cfg config.GoogleConfig) *GoogleVerifier {
	return NewGoogleVerifierWithKeys(cfg, NewRemoteKeys(cfg.JWKSURL, cfg.CacheTTL))
}

func NewGoogleVerifierWithKeys(cfg config.GoogleConfig, keys KeySource) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: cfg.ClientID,
		issuers:  cfg.Issuers,
		keys:     keys,
		now:      time.Now,
	}
}

// Verify checks signature, expiry, audience and issuer of an ID token.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, core.NewAppError(
			core.ErrUnauthorized,
			"Google sign-in is not configured",
			http.StatusServiceUnavailable,
			core.CodeUnknown,
		)
	}

	set, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(
		[]byte(idToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithAudience(v.clientID),
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(time.Minute),
	)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}

	iss, _ := token.Issuer()
	if !slices.Contains(v.issuers, iss) {
		return nil, ErrInvalidGoogleToken
	}

	id := &GoogleIdentity{}
	id.Subject, _ = token.Subject()

	//nolint:errcheck // optional claims stay empty when absent
	_ = token.Get("email", &id.Email)
	//nolint:errcheck
	_ = token.Get("email_verified", &id.EmailVerified)
	//nolint:errcheck
	_ = token.Get("name", &id.Name)
	//nolint:errcheck
	_ = token.Get("given_name", &id.GivenName)
	//nolint:errcheck
	_ = token.Get("family_name", &id.FamilyName)
	//nolint:errcheck
	_ = token.Get("picture", &id.Picture)

	if id.Email == "" || !id.EmailVerified {
		return nil, ErrInvalidGoogleToken
	}

	return id, nil
}
