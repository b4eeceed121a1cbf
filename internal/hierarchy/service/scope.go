package service

import (
	"context"
	"strings"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/metrics"
)

// ScopeResolver computes the set of users a subject may see.
// It never returns an error: any store failure narrows the scope to the subject alone.
type ScopeResolver struct {
	policy  *PrivilegePolicy
	ledger  LedgerStore
	users   UserStore
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewScopeResolver creates a new scope resolver. m may be nil.
func NewScopeResolver(policy *PrivilegePolicy, ledger LedgerStore, users UserStore, m *metrics.Metrics, log *logger.Logger) *ScopeResolver {
	return &ScopeResolver{
		policy:  policy,
		ledger:  ledger,
		users:   users,
		metrics: m,
		logger:  log.WithComponent("scope_resolver"),
	}
}

// Policy returns the privilege policy in use
func (r *ScopeResolver) Policy() *PrivilegePolicy {
	return r.policy
}

// Resolve computes the subject's access scope
func (r *ScopeResolver) Resolve(ctx context.Context, s domain.Subject, opts domain.ScopeOptions) domain.AccessScope {
	if r.policy.IsPrivileged(s) && !opts.DirectReportsOnly {
		r.metrics.ScopeResolved(metrics.ScopePrivileged)
		return domain.PrivilegedScope()
	}

	if s.RegistrationNumber == "" {
		r.metrics.ScopeResolved(metrics.ScopeSelfOnly)
		return domain.SelfScope(s.UserID)
	}

	responsible, err := r.ledger.IsResponsible(ctx, s.RegistrationNumber, s.Branch)
	if err != nil {
		return r.failClosed(s, err, "responsibility lookup failed")
	}
	if !responsible {
		r.metrics.ScopeResolved(metrics.ScopeSelfOnly)
		return domain.SelfScope(s.UserID)
	}

	members, err := r.ledger.Subordinates(ctx, s.RegistrationNumber, s.Branch)
	if err != nil {
		return r.failClosed(s, err, "subordinate lookup failed")
	}

	if opts.DirectReportsOnly {
		members = DirectReports(members, r.managerDepartment(ctx, s), s.UserID)
	}

	ids := make([]int64, 0, len(members)+1)
	ids = append(ids, s.UserID)
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	r.metrics.ScopeResolved(metrics.ScopeTeam)
	return domain.NewScope(ids...)
}

// managerDepartment prefers the stored account over the token snapshot
func (r *ScopeResolver) managerDepartment(ctx context.Context, s domain.Subject) string {
	acct, err := r.users.GetByID(ctx, s.UserID)
	if err != nil {
		r.logger.Debug().Err(err).Int64("user_id", s.UserID).Msg("manager account lookup failed, using descriptor")
	}
	if acct != nil && strings.TrimSpace(acct.DepartmentCode) != "" {
		return strings.TrimSpace(acct.DepartmentCode)
	}
	return strings.TrimSpace(s.DepartmentCode)
}

func (r *ScopeResolver) failClosed(s domain.Subject, err error, msg string) domain.AccessScope {
	r.logger.Warn().Err(err).
		Int64("user_id", s.UserID).
		Str("registration", s.RegistrationNumber).
		Msg(msg + ", narrowing scope to self")
	r.metrics.ScopeResolved(metrics.ScopeFailClosed)
	return domain.SelfScope(s.UserID)
}

// DirectReports keeps the members whose immediate parent department equals
// the manager's department. selfID always passes.
// Only each member's single cached path is considered.
func DirectReports(members []domain.Member, managerDept string, selfID int64) []domain.Member {
	out := make([]domain.Member, 0, len(members))
	for _, m := range members {
		if m.ID == selfID {
			out = append(out, m)
			continue
		}
		if managerDept == "" {
			continue
		}
		if domain.ParentDepartment(m.HierarchyPath, strings.TrimSpace(m.DepartmentCode)) == managerDept {
			out = append(out, m)
		}
	}
	return out
}
