// AngelaMos | 2026
// service_test.go

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/admin-console/internal/activity"
	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/middleware"
	"github.com/carterperez-dev/admin-console/internal/session"
)

type fakeRepo struct {
	detailAsked bool
	err         error
}

func (f *fakeRepo) Snapshot(ctx context.Context, withDetail bool) (*Counts, *DetailCounts, error) {
	f.detailAsked = withDetail
	if f.err != nil {
		return nil, nil, f.err
	}
	c := &Counts{TotalUsers: 12, TotalModules: 5, TotalUserTypes: 4, ActiveUsers: 10}
	if !withDetail {
		return c, nil, nil
	}
	return c, &DetailCounts{DeletedUsers: 2, InactiveModules: 1, TotalUserAccess: 9}, nil
}

type countCall struct {
	types  []activity.Type
	userID string
	since  time.Time
}

type fakeActivities struct {
	calls  []countCall
	limit  int
	viewer authz.Subject
}

func (f *fakeActivities) Recent(ctx context.Context, viewer authz.Subject, limit int) ([]activity.Activity, error) {
	f.viewer = viewer
	f.limit = limit
	return []activity.Activity{{ID: "a1", Type: activity.TypeLogin}}, nil
}

func (f *fakeActivities) CountSince(
	ctx context.Context,
	types []activity.Type,
	userID string,
	since time.Time,
) (int, error) {
	f.calls = append(f.calls, countCall{types: types, userID: userID, since: since})
	return len(f.calls), nil
}

var (
	roles = authz.MustHierarchy(authz.DefaultRoles)
	now   = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
)

func newTestService() (*Service, *fakeRepo, *fakeActivities) {
	repo := &fakeRepo{}
	acts := &fakeActivities{}
	svc := NewService(repo, acts, roles)
	svc.now = func() time.Time { return now }
	return svc, repo, acts
}

func TestMetricsDetailOnlyForAdmins(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	m, err := svc.Metrics(ctx, authz.Subject{ID: "m", Role: authz.RoleManager})
	require.NoError(t, err)
	assert.False(t, repo.detailAsked)
	assert.Equal(t, 12, m.TotalUsers)
	assert.Nil(t, m.DeletedUsers)

	for _, role := range []string{authz.RoleAdmin, authz.RoleSuperadmin} {
		m, err = svc.Metrics(ctx, authz.Subject{ID: "x", Role: role})
		require.NoError(t, err)
		require.NotNil(t, m.DeletedUsers)
		assert.Equal(t, 2, *m.DeletedUsers)
		assert.Equal(t, 1, *m.InactiveModules)
		assert.Equal(t, 9, *m.TotalUserAccess)
	}
}

func TestMetricsStoreFailure(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = errors.New("boom")

	_, err := svc.Metrics(context.Background(), authz.Subject{Role: authz.RoleAdmin})
	assert.Error(t, err)
}

func TestUserStatsOwnerCounts(t *testing.T) {
	svc, _, acts := newTestService()

	stats, err := svc.UserStats(context.Background(),
		authz.Subject{ID: "o", Role: authz.RoleSuperadmin}, "week")
	require.NoError(t, err)

	assert.Equal(t, PeriodWeek, stats.Period)
	require.Len(t, acts.calls, 3)
	assert.Equal(t, []activity.Type{activity.TypeUserCreated}, acts.calls[0].types)
	assert.Equal(t, now.Add(-7*24*time.Hour), acts.calls[0].since)
	assert.Equal(t, 1, *stats.UserRegistrations)
	assert.Equal(t, 2, *stats.PermissionChanges)
	assert.Equal(t, 3, *stats.ModuleAssignments)
	assert.Nil(t, stats.UserActivities)
}

func TestUserStatsManagementCounts(t *testing.T) {
	for _, role := range []string{authz.RoleAdmin, authz.RoleManager} {
		svc, _, acts := newTestService()

		stats, err := svc.UserStats(context.Background(), authz.Subject{ID: "m", Role: role}, "year")
		require.NoError(t, err)

		require.Len(t, acts.calls, 2)
		assert.Len(t, acts.calls[0].types, 3)
		assert.Empty(t, acts.calls[0].userID)
		assert.Equal(t, now.Add(-365*24*time.Hour), acts.calls[1].since)
		assert.NotNil(t, stats.UserActivities)
		assert.NotNil(t, stats.PermissionActivities)
		assert.Nil(t, stats.UserRegistrations)
	}
}

func TestUserStatsPersonalCounts(t *testing.T) {
	svc, _, acts := newTestService()

	stats, err := svc.UserStats(context.Background(), authz.Subject{ID: "u1", Role: authz.RoleUser}, "")
	require.NoError(t, err)

	assert.Equal(t, PeriodMonth, stats.Period)
	require.Len(t, acts.calls, 2)
	assert.Nil(t, acts.calls[0].types)
	assert.Equal(t, "u1", acts.calls[0].userID)
	assert.Equal(t, []activity.Type{activity.TypeLogin}, acts.calls[1].types)
	assert.Equal(t, now.Add(-30*24*time.Hour), acts.calls[1].since)
	assert.NotNil(t, stats.PersonalActivities)
	assert.NotNil(t, stats.LoginActivities)
}

func TestNormalizePeriod(t *testing.T) {
	assert.Equal(t, PeriodWeek, NormalizePeriod(" Week "))
	assert.Equal(t, PeriodYear, NormalizePeriod("year"))
	assert.Equal(t, PeriodMonth, NormalizePeriod("decade"))
}

func TestHandlerUsesSessionRole(t *testing.T) {
	svc, _, acts := newTestService()

	r := chi.NewRouter()
	withViewer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithPrincipal(r.Context(), &session.Principal{
				Session: &session.Session{ID: "s", UserID: "u1"},
				User:    &session.Identity{ID: "u1", Role: authz.RoleUser},
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	NewHandler(svc).RegisterRoutes(r, withViewer)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/dashboard/user-stats?period=week&userRole=superadmin", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool      `json:"success"`
		Message string    `json:"message"`
		Data    UserStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "User stats retrieved successfully", body.Message)
	assert.NotNil(t, body.Data.PersonalActivities)
	assert.Nil(t, body.Data.UserRegistrations)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/activities?limit=abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, activity.DefaultLimit, acts.limit)
	assert.Equal(t, "u1", acts.viewer.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deletedUsers")
}
