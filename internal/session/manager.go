// AngelaMos | 2026
// manager.go

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/admin-console/internal/core"
)

var (
	ErrUnauthenticated = core.NewAppError(
		core.ErrUnauthorized,
		"Not logged in!",
		http.StatusUnauthorized,
		core.CodeAuthentication,
	)
	ErrExpired = core.NewAppError(
		core.ErrSessionExpired,
		"Logged out!",
		http.StatusUnauthorized,
		core.CodeAuthentication,
	)
	ErrAccountDeleted = core.NewAppError(
		core.ErrForbidden,
		"Your account has been deleted. Contact your application Admin to recover your account!",
		http.StatusForbidden,
		core.CodeAuthorization,
	)
)

// IdentityProvider resolves the user behind a session. It returns an error
// wrapping core.ErrNotFound when the user no longer exists.
type IdentityProvider interface {
	Identity(ctx context.Context, userID string) (*Identity, error)
}

type Config struct {
	TTL           time.Duration
	RefreshWindow time.Duration
	MaxPerUser    int
}

type Manager struct {
	store      Store
	identities IdentityProvider
	cfg        Config
	now        func() time.Time
	tracer     trace.Tracer
	logger     *slog.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

func NewManager(
	store Store,
	identities IdentityProvider,
	cfg Config,
	opts ...Option,
) *Manager {
	if cfg.MaxPerUser < 1 {
		cfg.MaxPerUser = 1
	}

	m := &Manager{
		store:      store,
		identities: identities,
		cfg:        cfg,
		now:        time.Now,
		tracer:     core.Tracer("session"),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Create starts a session for userID. Expired sessions of the user are
// dropped and the oldest live ones evicted so that at most MaxPerUser
// remain afterwards. The whole sequence runs in one transaction holding a
// lock on the user row.
func (m *Manager) Create(ctx context.Context, userID string) (*Session, error) {
	ctx, span := m.tracer.Start(ctx, "session.create")
	defer span.End()

	id, err := core.GenerateSessionID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &Session{
		ID:        id,
		UserID:    userID,
		Expiry:    now.Add(m.cfg.TTL).Unix(),
		CreatedAt: now.UTC(),
	}

	var evicted int
	err = m.store.Atomically(ctx, func(repo Repository) error {
		if err := repo.LockUser(ctx, userID); err != nil {
			return err
		}

		if err := repo.DeleteExpiredByUser(ctx, userID, now.Unix()); err != nil {
			return err
		}

		live, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		for i := 0; len(live)-i >= m.cfg.MaxPerUser; i++ {
			if err := repo.Delete(ctx, live[i].ID); err != nil {
				return err
			}
			evicted++
		}

		return repo.Create(ctx, sess)
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	if evicted > 0 {
		core.AddSpanEvent(ctx, "session.evicted", attribute.Int("count", evicted))
		m.logger.Debug("evicted sessions over cap",
			"user_id", userID,
			"evicted", evicted,
		)
	}

	return sess, nil
}

// Validate resolves a session id to a Principal. A session within
// RefreshWindow of its expiry is extended to a full TTL, so this read may
// write.
func (m *Manager) Validate(ctx context.Context, id string) (*Principal, error) {
	ctx, span := m.tracer.Start(ctx, "session.validate")
	defer span.End()

	if id == "" {
		return nil, ErrUnauthenticated
	}

	sess, err := m.store.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	if sess.UserID == "" {
		return nil, ErrUnauthenticated
	}

	now := m.now()
	if sess.Expired(now) {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			m.logger.Warn("failed to delete expired session",
				"user_id", sess.UserID,
				"error", err,
			)
		}
		core.AddSpanEvent(ctx, "session.expired")
		return nil, ErrExpired
	}

	if sess.Expiry-now.Unix() <= int64(m.cfg.RefreshWindow/time.Second) {
		expiry := now.Add(m.cfg.TTL).Unix()
		if err := m.store.UpdateExpiry(ctx, sess.ID, expiry); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, ErrUnauthenticated
			}
			return nil, err
		}
		sess.Expiry = expiry
		core.AddSpanEvent(ctx, "session.refreshed", attribute.Int64("expiry", expiry))
	}

	ident, err := m.identities.Identity(ctx, sess.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	if ident.IsDeleted {
		return nil, ErrAccountDeleted
	}

	return &Principal{Session: sess, User: ident}, nil
}

// Lookup reads a session without refreshing or validating it.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("lookup session: %w", core.ErrNotFound)
	}
	return m.store.GetByID(ctx, id)
}

// Destroy is idempotent.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

func (m *Manager) DestroyAll(ctx context.Context, userID string) (int64, error) {
	return m.store.DeleteByUser(ctx, userID)
}

// LoggedInUsers returns the ids of users holding at least one live session.
func (m *Manager) LoggedInUsers(ctx context.Context) (map[string]struct{}, error) {
	ids, err := m.store.ListActiveUserIDs(ctx, m.now().Unix())
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set, nil
}
