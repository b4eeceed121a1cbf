// Package service computes scope-aware analytics for a requester.
package service

import (
	"context"
	"time"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
)

// Store runs the windowed aggregations. Filters are built on column u.id.
type Store interface {
	Performance(ctx context.Context, filter hdomain.Filter, department string, since time.Time) (*domain.Performance, error)
	TopUsers(ctx context.Context, filter hdomain.Filter, department string, since time.Time, limit int) ([]domain.RankedUser, error)
	Gamification(ctx context.Context, filter hdomain.Filter, department string, limit int) ([]domain.GamificationEntry, error)
	Departments(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.DepartmentStats, error)
	DailyTrend(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.DailyTrend, error)
	WeeklyTrend(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.WeeklyTrend, error)
	Satisfaction(ctx context.Context, filter hdomain.Filter, department string, since time.Time) (domain.Satisfaction, error)
	UserMetrics(ctx context.Context, userID int64, since time.Time) (*domain.UserMetrics, error)
	AvailableDepartments(ctx context.Context, filter hdomain.Filter) ([]string, error)
	ExportRows(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.ExportRow, error)
}

// TeamStore aggregates an explicit member list
type TeamStore interface {
	TeamMetrics(ctx context.Context, memberIDs []int64, since time.Time) (*domain.TeamMetrics, error)
	TeamMembers(ctx context.Context, memberIDs []int64, status, department string, since time.Time) ([]domain.TeamMember, error)
}

// ScopeResolver computes the users a subject may see. It never fails.
type ScopeResolver interface {
	Resolve(ctx context.Context, s hdomain.Subject, opts hdomain.ScopeOptions) hdomain.AccessScope
}
