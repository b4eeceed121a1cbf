package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
)

var errStore = errors.New("store down")

type storeCall struct {
	method     string
	filter     hdomain.Filter
	department string
	since      time.Time
	limit      int
}

// fakeStore returns canned results; fail lists methods that error
type fakeStore struct {
	mu    sync.Mutex
	calls []storeCall
	fail  map[string]bool

	performance  domain.Performance
	topUsers     []domain.RankedUser
	gamification []domain.GamificationEntry
	departments  []domain.DepartmentStats
	daily        []domain.DailyTrend
	weekly       []domain.WeeklyTrend
	satisfaction domain.Satisfaction
	available    []string
	exportRows   []domain.ExportRow

	teamMetrics domain.TeamMetrics
	teamMembers []domain.TeamMember
	lastIDs     []int64
	lastStatus  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{fail: map[string]bool{}}
}

func (f *fakeStore) record(c storeCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.fail[c.method] {
		return errStore
	}
	return nil
}

func (f *fakeStore) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.method == method {
			n++
		}
	}
	return n
}

func (f *fakeStore) call(method string) (storeCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.method == method {
			return c, true
		}
	}
	return storeCall{}, false
}

func (f *fakeStore) Performance(ctx context.Context, filter hdomain.Filter, department string, since time.Time) (*domain.Performance, error) {
	if err := f.record(storeCall{method: "Performance", filter: filter, department: department, since: since}); err != nil {
		return nil, err
	}
	p := f.performance
	return &p, nil
}

func (f *fakeStore) TopUsers(ctx context.Context, filter hdomain.Filter, department string, since time.Time, limit int) ([]domain.RankedUser, error) {
	if err := f.record(storeCall{method: "TopUsers", filter: filter, department: department, since: since, limit: limit}); err != nil {
		return nil, err
	}
	return f.topUsers, nil
}

func (f *fakeStore) Gamification(ctx context.Context, filter hdomain.Filter, department string, limit int) ([]domain.GamificationEntry, error) {
	if err := f.record(storeCall{method: "Gamification", filter: filter, department: department, limit: limit}); err != nil {
		return nil, err
	}
	return f.gamification, nil
}

func (f *fakeStore) Departments(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.DepartmentStats, error) {
	if err := f.record(storeCall{method: "Departments", filter: filter, department: department, since: since}); err != nil {
		return nil, err
	}
	return f.departments, nil
}

func (f *fakeStore) DailyTrend(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.DailyTrend, error) {
	if err := f.record(storeCall{method: "DailyTrend", filter: filter, department: department, since: since}); err != nil {
		return nil, err
	}
	return f.daily, nil
}

func (f *fakeStore) WeeklyTrend(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.WeeklyTrend, error) {
	if err := f.record(storeCall{method: "WeeklyTrend", filter: filter, department: department, since: since}); err != nil {
		return nil, err
	}
	return f.weekly, nil
}

func (f *fakeStore) Satisfaction(ctx context.Context, filter hdomain.Filter, department string, since time.Time) (domain.Satisfaction, error) {
	if err := f.record(storeCall{method: "Satisfaction", filter: filter, department: department, since: since}); err != nil {
		return domain.Satisfaction{}, err
	}
	return f.satisfaction, nil
}

func (f *fakeStore) UserMetrics(ctx context.Context, userID int64, since time.Time) (*domain.UserMetrics, error) {
	if err := f.record(storeCall{method: "UserMetrics", since: since}); err != nil {
		return nil, err
	}
	return &domain.UserMetrics{UserID: userID, FeedbacksSent: 2}, nil
}

func (f *fakeStore) AvailableDepartments(ctx context.Context, filter hdomain.Filter) ([]string, error) {
	if err := f.record(storeCall{method: "AvailableDepartments", filter: filter}); err != nil {
		return nil, err
	}
	return f.available, nil
}

func (f *fakeStore) ExportRows(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.ExportRow, error) {
	if err := f.record(storeCall{method: "ExportRows", filter: filter, department: department, since: since}); err != nil {
		return nil, err
	}
	return f.exportRows, nil
}

func (f *fakeStore) TeamMetrics(ctx context.Context, memberIDs []int64, since time.Time) (*domain.TeamMetrics, error) {
	f.mu.Lock()
	f.lastIDs = memberIDs
	f.mu.Unlock()
	if err := f.record(storeCall{method: "TeamMetrics", since: since}); err != nil {
		return nil, err
	}
	m := f.teamMetrics
	return &m, nil
}

func (f *fakeStore) TeamMembers(ctx context.Context, memberIDs []int64, status, department string, since time.Time) ([]domain.TeamMember, error) {
	f.mu.Lock()
	f.lastIDs = memberIDs
	f.lastStatus = status
	f.mu.Unlock()
	if err := f.record(storeCall{method: "TeamMembers", department: department, since: since}); err != nil {
		return nil, err
	}
	return f.teamMembers, nil
}

// fakeScopes maps user ids to scopes; direct maps them for direct-report requests
type fakeScopes struct {
	mu     sync.Mutex
	scopes map[int64]hdomain.AccessScope
	direct map[int64]hdomain.AccessScope
	opts   []hdomain.ScopeOptions
}

func newFakeScopes() *fakeScopes {
	return &fakeScopes{
		scopes: map[int64]hdomain.AccessScope{},
		direct: map[int64]hdomain.AccessScope{},
	}
}

func (f *fakeScopes) Resolve(ctx context.Context, s hdomain.Subject, opts hdomain.ScopeOptions) hdomain.AccessScope {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if opts.DirectReportsOnly {
		if scope, ok := f.direct[s.UserID]; ok {
			return scope
		}
	} else if scope, ok := f.scopes[s.UserID]; ok {
		return scope
	}
	return hdomain.SelfScope(s.UserID)
}
