package service

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumigente/lumigente-backend/internal/analytics/cache"
	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	"github.com/lumigente/lumigente-backend/internal/analytics/repository"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/metrics"
)

// Dashboard sections, also used as metric labels and cache key sections
const (
	SectionDashboard    = "dashboard"
	SectionPerformance  = "performance"
	SectionTopUsers     = "top_users"
	SectionGamification = "gamification"
	SectionDepartments  = "departments"
	SectionDailyTrend   = "daily_trend"
	SectionWeeklyTrend  = "weekly_trend"
	SectionSatisfaction = "satisfaction"
	SectionUserMetrics  = "user_metrics"
	SectionRankings     = "rankings"
	SectionTrends       = "trends"
	SectionAvailable    = "available_departments"
)

// Engine aggregates analytics under the requester's access scope
type Engine struct {
	store       Store
	scopes      ScopeResolver
	cache       *cache.Cache
	limits      domain.Limits
	concurrency int
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time
}

// EngineConfig wires an Engine
type EngineConfig struct {
	Store          Store
	Scopes         ScopeResolver
	Cache          *cache.Cache
	Limits         domain.Limits
	MaxConcurrency int
	Metrics        *metrics.Metrics
	Logger         *logger.Logger
}

// NewEngine creates a new aggregation engine
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New(cache.DefaultOptions(), cfg.Metrics)
	}
	return &Engine{
		store:       cfg.Store,
		scopes:      cfg.Scopes,
		cache:       cfg.Cache,
		limits:      cfg.Limits,
		concurrency: cfg.MaxConcurrency,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.WithComponent("analytics_engine"),
		now:         time.Now,
	}
}

// WithClock replaces the time source, for tests
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// partialDashboard carries a dashboard with fallback sections out of the
// cache so it is returned but never stored.
type partialDashboard struct {
	dashboard *domain.Dashboard
	failed    int32
}

func (p *partialDashboard) Error() string {
	return "dashboard computed with fallback sections"
}

// Dashboard computes every section under the requester's scope.
// Section failures never fail the call; only a missing identity does.
func (e *Engine) Dashboard(ctx context.Context, s hdomain.Subject, q domain.Query) (*domain.Dashboard, bool, error) {
	if s.UserID <= 0 {
		return nil, false, errors.Unauthorized("missing user identity")
	}
	q = q.Normalize(e.limits)
	scope := e.scopes.Resolve(ctx, s, hdomain.ScopeOptions{})

	v, cached, err := e.cache.GetOrCompute(ctx, e.key(SectionDashboard, s, scope, q), func(ctx context.Context) (interface{}, error) {
		d, failed := e.computeDashboard(ctx, scope, q)
		if failed > 0 {
			return nil, &partialDashboard{dashboard: d, failed: failed}
		}
		return d, nil
	})
	if err != nil {
		var partial *partialDashboard
		if errors.As(err, &partial) {
			e.logger.Warn().
				Int64("user_id", s.UserID).
				Int32("failed_sections", partial.failed).
				Msg("dashboard served with fallback sections, not cached")
			return partial.dashboard, false, nil
		}
		return nil, false, errors.Unavailable("dashboard computation failed", err)
	}
	return v.(*domain.Dashboard), cached, nil
}

func (e *Engine) computeDashboard(ctx context.Context, scope hdomain.AccessScope, q domain.Query) (*domain.Dashboard, int32) {
	filter := hdomain.BuildScopeFilter(scope, repository.ScopeColumn)
	since := q.Since(e.now())

	d := &domain.Dashboard{
		Rankings: domain.Rankings{
			TopUsers:     []domain.RankedUser{},
			Gamification: []domain.GamificationEntry{},
		},
		Departments: []domain.DepartmentStats{},
		Trends: domain.Trends{
			Daily:  []domain.DailyTrend{},
			Weekly: []domain.WeeklyTrend{},
		},
		PeriodDays: q.PeriodDays,
		Department: q.DepartmentLabel(),
	}

	var failed int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	g.Go(e.section(gctx, SectionPerformance, &failed, func(ctx context.Context) error {
		p, err := e.store.Performance(ctx, filter, q.Department, since)
		if err == nil {
			d.Performance = *p
		}
		return err
	}))
	g.Go(e.section(gctx, SectionTopUsers, &failed, func(ctx context.Context) error {
		users, err := e.store.TopUsers(ctx, filter, q.Department, since, q.Top)
		if err == nil && users != nil {
			d.Rankings.TopUsers = users
		}
		return err
	}))
	g.Go(e.section(gctx, SectionGamification, &failed, func(ctx context.Context) error {
		entries, err := e.store.Gamification(ctx, filter, q.Department, q.Top)
		if err == nil && entries != nil {
			d.Rankings.Gamification = entries
		}
		return err
	}))
	g.Go(e.section(gctx, SectionDepartments, &failed, func(ctx context.Context) error {
		stats, err := e.store.Departments(ctx, filter, q.Department, since)
		if err == nil && stats != nil {
			d.Departments = stats
		}
		return err
	}))
	g.Go(e.section(gctx, SectionDailyTrend, &failed, func(ctx context.Context) error {
		days, err := e.store.DailyTrend(ctx, filter, q.Department, since)
		if err == nil && days != nil {
			d.Trends.Daily = days
		}
		return err
	}))
	g.Go(e.section(gctx, SectionWeeklyTrend, &failed, func(ctx context.Context) error {
		weeks, err := e.store.WeeklyTrend(ctx, filter, q.Department, since)
		if err == nil && weeks != nil {
			d.Trends.Weekly = weeks
		}
		return err
	}))
	g.Go(e.section(gctx, SectionSatisfaction, &failed, func(ctx context.Context) error {
		sat, err := e.store.Satisfaction(ctx, filter, q.Department, since)
		if err == nil {
			d.Satisfaction = sat
		}
		return err
	}))
	if q.TargetUserID > 0 && scope.Contains(q.TargetUserID) {
		g.Go(e.section(gctx, SectionUserMetrics, &failed, func(ctx context.Context) error {
			m, err := e.store.UserMetrics(ctx, q.TargetUserID, since)
			if err == nil {
				d.UserMetrics = m
			}
			return err
		}))
	}

	_ = g.Wait()
	d.GeneratedAt = e.now().UTC()
	return d, atomic.LoadInt32(&failed)
}

// section runs fn, recording its duration. A failure is logged and counted;
// fn must leave its slot untouched when it fails.
func (e *Engine) section(ctx context.Context, name string, failed *int32, fn func(ctx context.Context) error) func() error {
	return func() error {
		start := time.Now()
		err := fn(ctx)
		e.metrics.ObserveSection(name, time.Since(start))
		if err != nil {
			atomic.AddInt32(failed, 1)
			e.metrics.SectionFailed(name)
			e.logger.Warn().Err(err).Str("section", name).Msg("analytics section failed, using fallback")
		}
		return nil
	}
}

// Rankings returns the engagement ranking and the points leaderboard
func (e *Engine) Rankings(ctx context.Context, s hdomain.Subject, q domain.Query) (*domain.Rankings, bool, error) {
	v, cached, err := e.single(ctx, SectionRankings, s, q, func(ctx context.Context, filter hdomain.Filter, q domain.Query, since time.Time) (interface{}, error) {
		users, err := e.store.TopUsers(ctx, filter, q.Department, since, q.Top)
		if err != nil {
			return nil, err
		}
		entries, err := e.store.Gamification(ctx, filter, q.Department, q.Top)
		if err != nil {
			return nil, err
		}
		return &domain.Rankings{TopUsers: nonNil(users), Gamification: nonNil(entries)}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.Rankings), cached, nil
}

// Gamification returns the points leaderboard
func (e *Engine) Gamification(ctx context.Context, s hdomain.Subject, q domain.Query) ([]domain.GamificationEntry, bool, error) {
	v, cached, err := e.single(ctx, SectionGamification, s, q, func(ctx context.Context, filter hdomain.Filter, q domain.Query, _ time.Time) (interface{}, error) {
		entries, err := e.store.Gamification(ctx, filter, q.Department, q.Top)
		return nonNil(entries), err
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]domain.GamificationEntry), cached, nil
}

// Departments returns the per-department aggregation
func (e *Engine) Departments(ctx context.Context, s hdomain.Subject, q domain.Query) ([]domain.DepartmentStats, bool, error) {
	v, cached, err := e.single(ctx, SectionDepartments, s, q, func(ctx context.Context, filter hdomain.Filter, q domain.Query, since time.Time) (interface{}, error) {
		stats, err := e.store.Departments(ctx, filter, q.Department, since)
		return nonNil(stats), err
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]domain.DepartmentStats), cached, nil
}

// Trends returns the daily and weekly mood series
func (e *Engine) Trends(ctx context.Context, s hdomain.Subject, q domain.Query) (*domain.Trends, bool, error) {
	v, cached, err := e.single(ctx, SectionTrends, s, q, func(ctx context.Context, filter hdomain.Filter, q domain.Query, since time.Time) (interface{}, error) {
		var t domain.Trends
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			days, err := e.store.DailyTrend(gctx, filter, q.Department, since)
			t.Daily = nonNil(days)
			return err
		})
		g.Go(func() error {
			weeks, err := e.store.WeeklyTrend(gctx, filter, q.Department, since)
			t.Weekly = nonNil(weeks)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &t, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.Trends), cached, nil
}

// Satisfaction returns the mood satisfaction summary
func (e *Engine) Satisfaction(ctx context.Context, s hdomain.Subject, q domain.Query) (*domain.Satisfaction, bool, error) {
	v, cached, err := e.single(ctx, SectionSatisfaction, s, q, func(ctx context.Context, filter hdomain.Filter, q domain.Query, since time.Time) (interface{}, error) {
		sat, err := e.store.Satisfaction(ctx, filter, q.Department, since)
		if err != nil {
			return nil, err
		}
		return &sat, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.Satisfaction), cached, nil
}

// AvailableDepartments lists the department filters the requester may use
func (e *Engine) AvailableDepartments(ctx context.Context, s hdomain.Subject) (*domain.AvailableDepartments, error) {
	if s.UserID <= 0 {
		return nil, errors.Unauthorized("missing user identity")
	}
	scope := e.scopes.Resolve(ctx, s, hdomain.ScopeOptions{})

	departments, err := e.store.AvailableDepartments(ctx, hdomain.BuildScopeFilter(scope, repository.ScopeColumn))
	if err != nil {
		return nil, errors.Unavailable("available departments lookup failed", err)
	}
	return &domain.AvailableDepartments{
		Departments: nonNil(departments),
		CanViewAll:  scope.Privileged,
	}, nil
}

// CanAdminister reports whether the subject resolves to an organization-wide scope
func (e *Engine) CanAdminister(ctx context.Context, s hdomain.Subject) bool {
	if s.UserID <= 0 {
		return false
	}
	return e.scopes.Resolve(ctx, s, hdomain.ScopeOptions{}).Privileged
}

// ClearCache drops every cached result
func (e *Engine) ClearCache() {
	e.cache.Clear()
	e.logger.Info().Msg("analytics cache cleared")
}

// CacheStats reports the cache counters
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

type sectionFunc func(ctx context.Context, filter hdomain.Filter, q domain.Query, since time.Time) (interface{}, error)

// single serves one cached section. Unlike the dashboard, a store failure is
// returned to the caller.
func (e *Engine) single(ctx context.Context, section string, s hdomain.Subject, q domain.Query, fn sectionFunc) (interface{}, bool, error) {
	if s.UserID <= 0 {
		return nil, false, errors.Unauthorized("missing user identity")
	}
	q = q.Normalize(e.limits)
	scope := e.scopes.Resolve(ctx, s, hdomain.ScopeOptions{})
	filter := hdomain.BuildScopeFilter(scope, repository.ScopeColumn)

	v, cached, err := e.cache.GetOrCompute(ctx, e.key(section, s, scope, q), func(ctx context.Context) (interface{}, error) {
		start := time.Now()
		v, err := fn(ctx, filter, q, q.Since(e.now()))
		e.metrics.ObserveSection(section, time.Since(start))
		return v, err
	})
	if err != nil {
		e.metrics.SectionFailed(section)
		e.logger.Error().Err(err).Str("section", section).Int64("user_id", s.UserID).Msg("analytics query failed")
		return nil, false, errors.Unavailable(section+" computation failed", err)
	}
	return v, cached, nil
}

func (e *Engine) key(section string, s hdomain.Subject, scope hdomain.AccessScope, q domain.Query) cache.Key {
	return cache.Key{
		Section:      section,
		RequesterID:  s.UserID,
		Scope:        scope.Fingerprint(),
		PeriodDays:   q.PeriodDays,
		Department:   q.Department,
		TargetUserID: q.TargetUserID,
		Top:          q.Top,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
