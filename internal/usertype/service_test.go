// AngelaMos | 2026
// service_test.go

package usertype

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/admin-console/internal/authz"
	"github.com/carterperez-dev/admin-console/internal/core"
)

type memRepo struct {
	mu    sync.Mutex
	types map[string]*UserType
	users map[string]int
}

func newMemRepo() *memRepo {
	return &memRepo{types: map[string]*UserType{}, users: map[string]int{}}
}

func (m *memRepo) byName(name string) *UserType {
	for _, ut := range m.types {
		if ut.Name == name {
			return ut
		}
	}
	return nil
}

func (m *memRepo) Create(ctx context.Context, ut *UserType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byName(ut.Name) != nil {
		return fmt.Errorf("create user type: %w", core.ErrDuplicateKey)
	}
	ut.CreatedAt = time.Now()
	ut.UpdatedAt = ut.CreatedAt
	cp := *ut
	m.types[ut.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*UserType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ut, ok := m.types[id]
	if !ok {
		return nil, fmt.Errorf("get user type: %w", core.ErrNotFound)
	}
	cp := *ut
	return &cp, nil
}

func (m *memRepo) GetByName(ctx context.Context, name string) (*UserType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ut := m.byName(name); ut != nil {
		cp := *ut
		return &cp, nil
	}
	return nil, fmt.Errorf("get user type by name: %w", core.ErrNotFound)
}

func (m *memRepo) FindOrCreate(ctx context.Context, name string) (*UserType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ut := m.byName(name); ut != nil {
		cp := *ut
		return &cp, nil
	}
	ut := &UserType{ID: uuid.New().String(), Name: name, IsActive: true}
	m.types[ut.ID] = ut
	cp := *ut
	return &cp, nil
}

func (m *memRepo) List(ctx context.Context) ([]UserType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []UserType
	for _, ut := range m.types {
		out = append(out, *ut)
	}
	return out, nil
}

func (m *memRepo) Update(ctx context.Context, ut *UserType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[ut.ID]; !ok {
		return fmt.Errorf("update user type: %w", core.ErrNotFound)
	}
	if other := m.byName(ut.Name); other != nil && other.ID != ut.ID {
		return fmt.Errorf("update user type: %w", core.ErrDuplicateKey)
	}
	cp := *ut
	m.types[ut.ID] = &cp
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.types[id]; !ok {
		return fmt.Errorf("delete user type: %w", core.ErrNotFound)
	}
	delete(m.types, id)
	return nil
}

func (m *memRepo) CountUsers(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	roles := authz.MustHierarchy([]string{"user", "manager", "admin", "superadmin"})
	return NewService(repo, roles), repo
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ut, err := svc.Create(ctx, CreateRequest{Name: "  Auditor "})
	require.NoError(t, err)
	assert.Equal(t, "auditor", ut.Name)
	assert.True(t, ut.IsActive)

	_, err = svc.Create(ctx, CreateRequest{Name: "AUDITOR"})
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ut, err := svc.Create(ctx, CreateRequest{Name: "auditor"})
	require.NoError(t, err)

	repo.users[ut.ID] = 1
	assert.ErrorIs(t, svc.Delete(ctx, ut.ID), ErrInUse)

	repo.users[ut.ID] = 0
	require.NoError(t, svc.Delete(ctx, ut.ID))

	_, err = svc.Get(ctx, ut.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnknown(t *testing.T) {
	svc, _ := newTestService()
	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New().String()), ErrNotFound)
}

func TestUpdateRefusesRenamingRankedRole(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	admin, err := repo.FindOrCreate(ctx, "admin")
	require.NoError(t, err)

	name := "owner"
	_, err = svc.Update(ctx, admin.ID, UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrBuiltInRename)

	inactive := false
	updated, err := svc.Update(ctx, admin.ID, UpdateRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "admin", updated.Name)
}

func TestUpdateRenameClash(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Name: "auditor"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, CreateRequest{Name: "viewer"})
	require.NoError(t, err)

	name := "auditor"
	_, err = svc.Update(ctx, other.ID, UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestListNeverNil(t *testing.T) {
	svc, _ := newTestService()
	types, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, types)
	assert.Empty(t, types)
}

func passThrough(next http.Handler) http.Handler { return next }

func TestHandlerCreateAndConflict(t *testing.T) {
	svc, _ := newTestService()
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, passThrough)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/user-types/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"name":"auditor"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var env struct {
		Success bool     `json:"success"`
		Data    UserType `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, "auditor", env.Data.Name)

	rec = post(`{"name":"auditor"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "UserType with this name already exists")

	rec = post(`{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(`not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGateApplies(t *testing.T) {
	svc, _ := newTestService()
	r := chi.NewRouter()
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			core.Forbidden(w, "nope")
		})
	}
	NewHandler(svc).RegisterRoutes(r, deny)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/user-types/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
