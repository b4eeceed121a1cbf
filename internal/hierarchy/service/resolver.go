package service

import (
	"context"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

// PathResolver computes an employee's sanitized hierarchy path and level
type PathResolver struct {
	employees EmployeeStore
	ledger    LedgerStore
	logger    *logger.Logger
}

// NewPathResolver creates a new path resolver
func NewPathResolver(employees EmployeeStore, ledger LedgerStore, log *logger.Logger) *PathResolver {
	return &PathResolver{
		employees: employees,
		ledger:    ledger,
		logger:    log.WithComponent("path_resolver"),
	}
}

// Resolve looks up the employee, the ledger node that places them and
// sanitizes its path. An unknown employee yields Info{Found: false}.
func (r *PathResolver) Resolve(ctx context.Context, registration, nationalID string) (domain.Info, error) {
	rec, err := r.employees.Latest(ctx, registration, nationalID)
	if err != nil {
		return domain.Info{}, err
	}
	if rec == nil {
		return domain.Info{Level: domain.LevelEmployee, Role: domain.RoleForLevel(domain.LevelEmployee)}, nil
	}

	node, err := r.ledger.ResponsibleNode(ctx, registration, nationalID)
	if err != nil {
		return domain.Info{}, err
	}
	responsible := node != nil

	if node == nil && rec.DepartmentCode != "" {
		node, err = r.ledger.NodeForDepartment(ctx, rec.DepartmentCode)
		if err != nil {
			return domain.Info{}, err
		}
	}

	var raw string
	if node != nil {
		raw = node.FullPath
	}

	path, err := domain.Sanitize(ctx, raw, rec.DepartmentCode, r.employees)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("registration", registration).
			Str("path", raw).
			Msg("path sanitization failed, keeping ledger path")
	}

	level, heuristic, differ := domain.Discrepancy(path, rec.DepartmentCode, responsible)
	if differ {
		r.logger.Debug().
			Str("registration", registration).
			Str("path", path).
			Int("level", level).
			Int("heuristic_level", heuristic).
			Msg("level classifiers disagree")
	}

	return domain.Info{
		Path:        path,
		Department:  rec.DepartmentCode,
		Branch:      rec.Branch,
		Name:        rec.Name,
		Level:       level,
		Role:        domain.RoleForLevel(level),
		Responsible: responsible,
		Found:       true,
	}, nil
}
