package service

import (
	"context"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
	"github.com/lumigente/lumigente-backend/pkg/metrics"
)

// AccessOptions narrow AccessibleUsers
type AccessOptions struct {
	DirectReportsOnly bool
	Department        string
}

// SyncReport summarizes a SyncAll run
type SyncReport struct {
	Total   int64 `json:"total"`
	Changed int64 `json:"changed"`
	Failed  int64 `json:"failed"`
}

// Directory answers hierarchy questions about accounts
type Directory struct {
	resolver    *PathResolver
	scopes      *ScopeResolver
	employees   EmployeeStore
	ledger      LedgerStore
	users       UserStore
	publisher   PathSyncPublisher
	metrics     *metrics.Metrics
	logger      *logger.Logger
	concurrency int
}

// DirectoryConfig wires a Directory
type DirectoryConfig struct {
	Resolver    *PathResolver
	Scopes      *ScopeResolver
	Employees   EmployeeStore
	Ledger      LedgerStore
	Users       UserStore
	Publisher   PathSyncPublisher
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	Concurrency int
}

// NewDirectory creates a new directory
func NewDirectory(cfg DirectoryConfig) *Directory {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Directory{
		resolver:    cfg.Resolver,
		scopes:      cfg.Scopes,
		employees:   cfg.Employees,
		ledger:      cfg.Ledger,
		users:       cfg.Users,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.WithComponent("directory"),
		concurrency: cfg.Concurrency,
	}
}

// Identify reloads the requester's account so scope decisions use current
// data. The token snapshot is used when the account row does not exist.
func (d *Directory) Identify(ctx context.Context, fallback domain.Subject) (domain.Subject, error) {
	if fallback.UserID <= 0 {
		return domain.Subject{}, errors.Unauthorized("missing user identity")
	}

	acct, err := d.users.GetByID(ctx, fallback.UserID)
	if err != nil {
		return domain.Subject{}, errors.Unavailable("identity lookup failed", err)
	}
	if acct == nil {
		return fallback, nil
	}
	if !acct.IsActive {
		return domain.Subject{}, errors.Forbidden("account is inactive")
	}

	s := domain.SubjectFromAccount(acct)
	if s.NationalID == "" {
		s.NationalID = fallback.NationalID
	}
	if s.RegistrationNumber == "" {
		s.RegistrationNumber = fallback.RegistrationNumber
	}
	if s.Branch == "" {
		s.Branch = fallback.Branch
	}
	return s, nil
}

// Me resolves the subject's own position
func (d *Directory) Me(ctx context.Context, s domain.Subject) (domain.Info, error) {
	if s.RegistrationNumber == "" {
		return domain.Info{
			Department: s.DepartmentCode,
			Branch:     s.Branch,
			Name:       s.Name,
			Level:      domain.LevelEmployee,
			Role:       domain.RoleForLevel(domain.LevelEmployee),
		}, nil
	}
	return d.resolver.Resolve(ctx, s.RegistrationNumber, s.NationalID)
}

// Subordinates lists the active accounts under the employee's nodes, self excluded
func (d *Directory) Subordinates(ctx context.Context, registration, nationalID string) ([]domain.Member, error) {
	rec, err := d.employees.Latest(ctx, registration, nationalID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []domain.Member{}, nil
	}

	members, err := d.ledger.Subordinates(ctx, registration, rec.Branch)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Member, 0, len(members))
	for _, m := range members {
		if m.RegistrationNumber != registration {
			out = append(out, m)
		}
	}
	return rankMembers(out), nil
}

// Superiors lists the accounts responsible above the employee
func (d *Directory) Superiors(ctx context.Context, registration, nationalID string) ([]domain.Member, error) {
	rec, err := d.employees.Latest(ctx, registration, nationalID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []domain.Member{}, nil
	}

	members, err := d.ledger.Superiors(ctx, registration, rec.DepartmentCode)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []domain.Member{}
	}
	return rankMembers(members), nil
}

// Stats counts active users per department
func (d *Directory) Stats(ctx context.Context) ([]domain.DepartmentCount, error) {
	return d.users.Stats(ctx)
}

// AccessibleUsers lists the accounts visible to the subject
func (d *Directory) AccessibleUsers(ctx context.Context, s domain.Subject, opts AccessOptions) ([]domain.UserAccount, error) {
	scope := d.scopes.Resolve(ctx, s, domain.ScopeOptions{DirectReportsOnly: opts.DirectReportsOnly})
	filter := domain.BuildScopeFilter(scope, "u.id")
	return d.users.ListScoped(ctx, filter, opts.Department, s.UserID)
}

// Permissions derives the subject's feature flags for the given level
func (d *Directory) Permissions(s domain.Subject, level int) domain.Permissions {
	return domain.BuildPermissions(level, d.scopes.Policy().Evaluate(s))
}

// SyncUserPath re-resolves the account's path and stores it when it changed
func (d *Directory) SyncUserPath(ctx context.Context, userID int64) (domain.Info, bool, error) {
	acct, err := d.users.GetByID(ctx, userID)
	if err != nil {
		d.metrics.PathSynced(false, err)
		return domain.Info{}, false, err
	}
	if acct == nil {
		return domain.Info{}, false, errors.NotFound("user")
	}
	if acct.RegistrationNumber == "" {
		return domain.Info{}, false, nil
	}

	info, err := d.resolver.Resolve(ctx, acct.RegistrationNumber, acct.NationalID)
	if err != nil {
		d.metrics.PathSynced(false, err)
		return domain.Info{}, false, err
	}
	if !info.Found || info.Path == "" {
		d.metrics.PathSynced(false, nil)
		return info, false, nil
	}

	changed, err := d.users.UpdatePath(ctx, userID, info.Path)
	d.metrics.PathSynced(changed, err)
	if err != nil {
		return info, false, err
	}

	if changed {
		d.logger.Info().
			Int64("user_id", userID).
			Str("old_path", acct.HierarchyPath).
			Str("new_path", info.Path).
			Msg("hierarchy path updated")

		if d.publisher != nil {
			d.publisher.PublishPathSynced(ctx, messaging.PathSyncedEvent{
				UserID:  userID,
				OldPath: acct.HierarchyPath,
				NewPath: info.Path,
				Level:   info.Level,
			})
		}
	}

	return info, changed, nil
}

// SyncAll resyncs every active account with bounded concurrency.
// Individual failures are counted and logged; only listing or cancellation aborts.
func (d *Directory) SyncAll(ctx context.Context) (SyncReport, error) {
	ids, err := d.users.ActiveIDs(ctx)
	if err != nil {
		return SyncReport{}, err
	}

	var changed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, id := range ids {
		id := id
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, ok, err := d.SyncUserPath(gctx, id)
			if err != nil {
				failed.Add(1)
				d.logger.Warn().Err(err).Int64("user_id", id).Msg("path sync failed")
				return nil
			}
			if ok {
				changed.Add(1)
			}
			return nil
		})
	}

	_ = g.Wait()
	report := SyncReport{Total: int64(len(ids)), Changed: changed.Load(), Failed: failed.Load()}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	d.logger.Info().
		Int64("total", report.Total).
		Int64("changed", report.Changed).
		Int64("failed", report.Failed).
		Msg("hierarchy path sync finished")

	return report, nil
}

// rankMembers assigns levels and orders by level desc, then name
func rankMembers(members []domain.Member) []domain.Member {
	for i := range members {
		m := &members[i]
		m.Level = domain.ClassifyConfirmed(m.HierarchyPath, m.DepartmentCode, m.Responsible)
		m.RoleName = domain.RoleForLevel(m.Level)
	}

	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Level != members[j].Level {
			return members[i].Level > members[j].Level
		}
		return col.CompareString(members[i].FullName, members[j].FullName) < 0
	})
	return members
}
