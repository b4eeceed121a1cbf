package service

import (
	"context"
	"sync"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/config"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
)

type fakeEmployees struct {
	records   map[string]*domain.EmployeeRecord
	active    map[string]bool
	err       error
	activeErr error
}

func (f *fakeEmployees) Latest(ctx context.Context, registration, nationalID string) (*domain.EmployeeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[registration], nil
}

func (f *fakeEmployees) ActiveDepartments(ctx context.Context, codes []string) (map[string]bool, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	out := make(map[string]bool)
	for _, c := range codes {
		if f.active[c] {
			out[c] = true
		}
	}
	return out, nil
}

type fakeLedger struct {
	responsibleNodes map[string]*domain.HierarchyNode
	departmentNodes  map[string]*domain.HierarchyNode
	responsible      map[string]bool
	responsibleErr   error
	subordinates     map[string][]domain.Member
	subordinatesErr  error
	superiors        map[string][]domain.Member
}

func (f *fakeLedger) ResponsibleNode(ctx context.Context, registration, nationalID string) (*domain.HierarchyNode, error) {
	return f.responsibleNodes[registration], nil
}

func (f *fakeLedger) NodeForDepartment(ctx context.Context, department string) (*domain.HierarchyNode, error) {
	return f.departmentNodes[department], nil
}

func (f *fakeLedger) IsResponsible(ctx context.Context, registration, branch string) (bool, error) {
	if f.responsibleErr != nil {
		return false, f.responsibleErr
	}
	return f.responsible[registration], nil
}

func (f *fakeLedger) Subordinates(ctx context.Context, registration, branch string) ([]domain.Member, error) {
	if f.subordinatesErr != nil {
		return nil, f.subordinatesErr
	}
	return append([]domain.Member(nil), f.subordinates[registration]...), nil
}

func (f *fakeLedger) Superiors(ctx context.Context, registration, department string) ([]domain.Member, error) {
	return append([]domain.Member(nil), f.superiors[registration]...), nil
}

type fakeUsers struct {
	mu         sync.Mutex
	accounts   map[int64]*domain.UserAccount
	getErr     error
	updated    map[int64]string
	lastFilter domain.Filter
	lastDept   string
	listed     []domain.UserAccount
	stats      []domain.DepartmentCount
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*domain.UserAccount, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.accounts[id], nil
}

func (f *fakeUsers) UpdatePath(ctx context.Context, id int64, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[int64]string)
	}
	current := f.accounts[id].HierarchyPath
	if prev, ok := f.updated[id]; ok {
		current = prev
	}
	if current == path {
		return false, nil
	}
	f.updated[id] = path
	return true, nil
}

func (f *fakeUsers) ActiveIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(f.accounts))
	for id := range f.accounts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsers) ListScoped(ctx context.Context, filter domain.Filter, department string, selfID int64) ([]domain.UserAccount, error) {
	f.lastFilter = filter
	f.lastDept = department
	return f.listed, nil
}

func (f *fakeUsers) Stats(ctx context.Context) ([]domain.DepartmentCount, error) {
	return f.stats, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.PathSyncedEvent
}

func (p *recordingPublisher) PublishPathSynced(ctx context.Context, evt messaging.PathSyncedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func testAccessConfig() config.AccessConfig {
	return config.AccessConfig{
		AdminRoles: []string{"Administrador"},
		PrivilegedLabels: []string{
			"RECURSOS HUMANOS",
			"DEPARTAMENTO RH",
			"DEPARTAMENTO ADM/RH/SESMT",
			"COORDENACAO ADM/RH/SESMT",
			"DEPARTAMENTO TREINAM&DESENVOLV",
			"TREINAMENTO E DESENVOLVIMENTO",
		},
		PrivilegedCodes:  []string{"122134101"},
		ExcludedBranches: []string{"MANAUS"},
	}
}
