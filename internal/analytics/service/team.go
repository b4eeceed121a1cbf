package service

import (
	"context"
	"strings"
	"time"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

// Team serves the manager views over the requester's direct reports.
// The manager is never counted as a member of their own team.
type Team struct {
	store  TeamStore
	scopes ScopeResolver
	logger *logger.Logger
	now    func() time.Time
}

// NewTeam creates the team views
func NewTeam(store TeamStore, scopes ScopeResolver, log *logger.Logger) *Team {
	return &Team{
		store:  store,
		scopes: scopes,
		logger: log.WithComponent("team"),
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests
func (t *Team) WithClock(now func() time.Time) *Team {
	t.now = now
	return t
}

// Metrics aggregates the direct reports over the last 30 days
func (t *Team) Metrics(ctx context.Context, s hdomain.Subject) (*domain.TeamMetrics, error) {
	ids, err := t.members(ctx, s)
	if err != nil {
		return nil, err
	}

	m, err := t.store.TeamMetrics(ctx, ids, t.since())
	if err != nil {
		t.logger.Error().Err(err).Int64("user_id", s.UserID).Msg("team metrics failed")
		return nil, errors.Unavailable("team metrics failed", err)
	}
	return m, nil
}

// Status counts direct reports by presence and activation
func (t *Team) Status(ctx context.Context, s hdomain.Subject) (*domain.TeamStatus, error) {
	ids, err := t.members(ctx, s)
	if err != nil {
		return nil, err
	}

	members, err := t.store.TeamMembers(ctx, ids, "", "", t.since())
	if err != nil {
		t.logger.Error().Err(err).Int64("user_id", s.UserID).Msg("team status failed")
		return nil, errors.Unavailable("team status failed", err)
	}
	status := domain.CountStatus(members, t.now())
	return &status, nil
}

// Management lists direct reports with their recent activity.
// status is "", "ativo" or "inativo"; department narrows the list.
func (t *Team) Management(ctx context.Context, s hdomain.Subject, status, department string) ([]domain.TeamMember, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.ValidStatusFilter(status) {
		return nil, errors.BadRequest("status must be ativo or inativo")
	}
	department = strings.TrimSpace(department)
	if strings.EqualFold(department, domain.AllDepartments) {
		department = ""
	}

	ids, err := t.members(ctx, s)
	if err != nil {
		return nil, err
	}

	members, err := t.store.TeamMembers(ctx, ids, status, department, t.since())
	if err != nil {
		t.logger.Error().Err(err).Int64("user_id", s.UserID).Msg("team management failed")
		return nil, errors.Unavailable("team management failed", err)
	}
	if members == nil {
		members = []domain.TeamMember{}
	}
	return members, nil
}

// members resolves the direct reports without the manager
func (t *Team) members(ctx context.Context, s hdomain.Subject) ([]int64, error) {
	if s.UserID <= 0 {
		return nil, errors.Unauthorized("missing user identity")
	}
	scope := t.scopes.Resolve(ctx, s, hdomain.ScopeOptions{DirectReportsOnly: true})

	ids := make([]int64, 0, scope.Len())
	for _, id := range scope.IDs() {
		if id != s.UserID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *Team) since() time.Time {
	return t.now().AddDate(0, 0, -domain.TeamWindowDays)
}
