package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/internal/auth/jwt"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/handler"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/service"
	"github.com/lumigente/lumigente-backend/pkg/config"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/testutil"
)

type memoryStore struct {
	employees map[string]*domain.EmployeeRecord
	nodes     map[string]*domain.HierarchyNode
	members   []domain.Member
	accounts  map[int64]*domain.UserAccount
	filter    domain.Filter
}

func (m *memoryStore) Latest(ctx context.Context, registration, nationalID string) (*domain.EmployeeRecord, error) {
	return m.employees[registration], nil
}

func (m *memoryStore) ActiveDepartments(ctx context.Context, codes []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, e := range m.employees {
		out[e.DepartmentCode] = true
	}
	return out, nil
}

func (m *memoryStore) ResponsibleNode(ctx context.Context, registration, nationalID string) (*domain.HierarchyNode, error) {
	for _, n := range m.nodes {
		if n.ResponsibleRegistration == registration {
			return n, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) NodeForDepartment(ctx context.Context, department string) (*domain.HierarchyNode, error) {
	return m.nodes[department], nil
}

func (m *memoryStore) IsResponsible(ctx context.Context, registration, branch string) (bool, error) {
	n, _ := m.ResponsibleNode(ctx, registration, "")
	return n != nil, nil
}

func (m *memoryStore) Subordinates(ctx context.Context, registration, branch string) ([]domain.Member, error) {
	return append([]domain.Member(nil), m.members...), nil
}

func (m *memoryStore) Superiors(ctx context.Context, registration, department string) ([]domain.Member, error) {
	return nil, nil
}

func (m *memoryStore) GetByID(ctx context.Context, id int64) (*domain.UserAccount, error) {
	return m.accounts[id], nil
}

func (m *memoryStore) UpdatePath(ctx context.Context, id int64, path string) (bool, error) {
	acct := m.accounts[id]
	if acct.HierarchyPath == path {
		return false, nil
	}
	acct.HierarchyPath = path
	return true, nil
}

func (m *memoryStore) ActiveIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (m *memoryStore) ListScoped(ctx context.Context, filter domain.Filter, department string, selfID int64) ([]domain.UserAccount, error) {
	m.filter = filter
	var out []domain.UserAccount
	for _, a := range m.accounts {
		if department == "" || a.DepartmentCode == department || a.ID == selfID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memoryStore) Stats(ctx context.Context) ([]domain.DepartmentCount, error) {
	return []domain.DepartmentCount{{DepartmentCode: "B", Users: 2}}, nil
}

func newStore() *memoryStore {
	return &memoryStore{
		employees: map[string]*domain.EmployeeRecord{
			"M1": {RegistrationNumber: "M1", Name: "Marta", DepartmentCode: "B", Status: domain.StatusActive},
			"E2": {RegistrationNumber: "E2", Name: "Edu", DepartmentCode: "C", Status: domain.StatusActive},
		},
		nodes: map[string]*domain.HierarchyNode{
			"B": {DepartmentCode: "B", FullPath: "A > B", ResponsibleRegistration: "M1"},
			"C": {DepartmentCode: "C", FullPath: "A > B > C"},
		},
		members: []domain.Member{
			{UserAccount: domain.UserAccount{ID: 2, RegistrationNumber: "E2", FullName: "Edu", DepartmentCode: "C", HierarchyPath: "A > B > C", IsActive: true}},
		},
		accounts: map[int64]*domain.UserAccount{
			1: {ID: 1, RegistrationNumber: "M1", FullName: "Marta", DepartmentCode: "B", HierarchyPath: "A > B", IsActive: true},
			2: {ID: 2, RegistrationNumber: "E2", FullName: "Edu", DepartmentCode: "C", HierarchyPath: "C", IsActive: true},
		},
	}
}

func newRouter(store *memoryStore) http.Handler {
	log := logger.Nop()
	access := config.AccessConfig{AdminRoles: []string{"Administrador"}, PrivilegedLabels: []string{"RECURSOS HUMANOS"}}
	directory := service.NewDirectory(service.DirectoryConfig{
		Resolver:  service.NewPathResolver(store, store, log),
		Scopes:    service.NewScopeResolver(service.NewPrivilegePolicy(access), store, store, nil, log),
		Employees: store,
		Ledger:    store,
		Users:     store,
		Logger:    log,
	})
	h := handler.NewHierarchyHandler(directory, log)

	r := chi.NewRouter()
	r.Get("/hierarchy/me", h.Me)
	r.Get("/hierarchy/subordinates", h.Subordinates)
	r.Get("/hierarchy/superiors", h.Superiors)
	r.Get("/hierarchy/accessible-users", h.AccessibleUsers)
	r.Get("/hierarchy/stats", h.Stats)
	r.Get("/hierarchy/permissions", h.Permissions)
	r.Post("/hierarchy/sync", h.Sync)
	return r
}

func asUser(req *http.Request, claims *jwt.Claims) *http.Request {
	return req.WithContext(jwt.WithClaims(req.Context(), claims))
}

func TestMe(t *testing.T) {
	router := newRouter(newStore())
	req := asUser(testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/me", nil), &jwt.Claims{UserID: 1, RegistrationNumber: "M1"})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got handler.MeResponse
	testutil.DecodeData(t, rr, &got)
	assert.Equal(t, int64(1), got.UserID)
	assert.Equal(t, "A > B", got.Path)
	assert.Equal(t, domain.LevelSupervisor, got.Level)
	assert.Equal(t, "Supervisor", got.Role)
}

func TestMe_RequiresClaims(t *testing.T) {
	router := newRouter(newStore())

	rr := testutil.ExecuteRequest(router, testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/me", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", testutil.ErrorCode(t, rr))
}

func TestSubordinates(t *testing.T) {
	router := newRouter(newStore())
	req := asUser(testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/subordinates", nil), &jwt.Claims{UserID: 1})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got []domain.Member
	testutil.DecodeData(t, rr, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "E2", got[0].RegistrationNumber)
	assert.Equal(t, domain.LevelEmployee, got[0].Level)
}

func TestSubordinates_NoRegistration(t *testing.T) {
	router := newRouter(newStore())
	req := asUser(testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/subordinates", nil), &jwt.Claims{UserID: 99})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"data":[]`)
}

func TestSuperiors_Empty(t *testing.T) {
	router := newRouter(newStore())
	req := asUser(testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/superiors", nil), &jwt.Claims{UserID: 1})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, `"data":[]`)
}

func TestAccessibleUsers(t *testing.T) {
	store := newStore()
	router := newRouter(store)
	req := asUser(testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/accessible-users?department=C", nil), &jwt.Claims{UserID: 1})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got []domain.UserAccount
	testutil.DecodeData(t, rr, &got)
	assert.Len(t, got, 2)
	assert.Equal(t, "u.id IN (?, ?)", store.filter.Clause)
	assert.NotContains(t, rr.Body.String(), "national_id")
}

func TestStats(t *testing.T) {
	router := newRouter(newStore())
	req := asUser(testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/stats", nil), &jwt.Claims{UserID: 1})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got []domain.DepartmentCount
	testutil.DecodeData(t, rr, &got)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Users)
}

func TestPermissions(t *testing.T) {
	router := newRouter(newStore())
	req := asUser(testutil.NewHTTPRequest(http.MethodGet, "/hierarchy/permissions", nil), &jwt.Claims{UserID: 1})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got domain.Permissions
	testutil.DecodeData(t, rr, &got)
	assert.True(t, got.IsManager)
	assert.True(t, got.Team)
	assert.False(t, got.FullAccess)
	assert.Equal(t, domain.ManagerTypeManager, got.ManagerType)
}

func TestSync(t *testing.T) {
	store := newStore()
	router := newRouter(store)
	req := asUser(testutil.NewHTTPRequest(http.MethodPost, "/hierarchy/sync", nil), &jwt.Claims{UserID: 2})

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got handler.SyncResponse
	testutil.DecodeData(t, rr, &got)
	assert.True(t, got.Changed)
	assert.Equal(t, "A > B > C", got.Path)
	assert.Equal(t, "A > B > C", store.accounts[2].HierarchyPath)
}
