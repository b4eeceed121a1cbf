package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/database"
)

const nodeColumns = `
	TRIM(h.department_code) AS department_code,
	COALESCE(h.description, '') AS description,
	h.full_path,
	COALESCE(h.responsible_registration, '') AS responsible_registration,
	COALESCE(h.branch, '') AS branch`

const memberColumns = `
	u.id,
	COALESCE(u.registration_number, '') AS registration_number,
	COALESCE(u.national_id, '') AS national_id,
	u.full_name,
	COALESCE(u.department_code, '') AS department_code,
	COALESCE(u.department_description, '') AS department_description,
	COALESCE(u.hierarchy_path, '') AS hierarchy_path,
	u.role,
	COALESCE(u.branch, '') AS branch,
	u.is_active,
	u.last_login`

// responsibleAnyLevel matches a registration against every responsible column of h
const responsibleAnyLevel = `$1 IN (h.responsible_registration, h.level1_registration,
	h.level2_registration, h.level3_registration, h.level4_registration)`

// branchMatches treats an empty branch parameter as "nodes without branch"
const branchMatches = `(h.branch = $2 OR ($2 = '' AND h.branch IS NULL))`

// LedgerRepository reads hierarchy_cc
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ResponsibleNode returns the deepest node the employee is the current
// responsible party of. Returns nil when there is none.
func (r *LedgerRepository) ResponsibleNode(ctx context.Context, registration, nationalID string) (*domain.HierarchyNode, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM hierarchy_cc h
		WHERE h.responsible_registration = $1
		  AND (h.responsible_national_id = $2 OR h.responsible_national_id IS NULL)
		ORDER BY LENGTH(h.full_path) DESC
		LIMIT 1
	`
	return r.getNode(ctx, query, registration, nationalID)
}

// NodeForDepartment returns the deepest node of a department. Returns nil when there is none.
func (r *LedgerRepository) NodeForDepartment(ctx context.Context, department string) (*domain.HierarchyNode, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM hierarchy_cc h
		WHERE TRIM(h.department_code) = TRIM($1)
		ORDER BY LENGTH(h.full_path) DESC
		LIMIT 1
	`
	return r.getNode(ctx, query, department)
}

func (r *LedgerRepository) getNode(ctx context.Context, query string, args ...interface{}) (*domain.HierarchyNode, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	var node domain.HierarchyNode
	err := r.db.GetContext(ctx, &node, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load hierarchy node: %w", err)
	}
	return &node, nil
}

// IsResponsible reports whether the registration is responsible for any node
// at any level within the branch.
func (r *LedgerRepository) IsResponsible(ctx context.Context, registration, branch string) (bool, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT COUNT(*)
		FROM hierarchy_cc h
		WHERE ` + responsibleAnyLevel + `
		  AND ` + branchMatches

	var count int64
	if err := r.db.GetContext(ctx, &count, query, registration, branch); err != nil {
		return false, fmt.Errorf("check responsibility for %s: %w", registration, err)
	}
	return count > 0, nil
}

// Subordinates returns the active accounts whose active employee record sits
// in a department the registration is responsible for, at any level.
// The responsible party of each node is included.
func (r *LedgerRepository) Subordinates(ctx context.Context, registration, branch string) ([]domain.Member, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT DISTINCT ` + memberColumns + `,
		       EXISTS (
		           SELECT 1 FROM hierarchy_cc rh
		           WHERE rh.responsible_registration = u.registration_number
		       ) AS responsible
		FROM users u
		JOIN employee_history s
		  ON s.registration_number = u.registration_number
		 AND s.national_id = u.national_id
		JOIN hierarchy_cc h
		  ON ` + responsibleAnyLevel + `
		WHERE u.is_active = TRUE
		  AND s.status = 'ATIVO'
		  AND (TRIM(s.department_code) = TRIM(h.department_code)
		       OR s.registration_number = h.responsible_registration)
		  AND ` + branchMatches + `
		ORDER BY u.full_name
	`

	var members []domain.Member
	if err := r.db.SelectContext(ctx, &members, query, registration, branch); err != nil {
		return nil, fmt.Errorf("list subordinates of %s: %w", registration, err)
	}
	return members, nil
}

// Superiors returns the active accounts recorded as responsible, at any
// level, for the employee's home department or for a node the employee
// currently runs. The employee is excluded.
func (r *LedgerRepository) Superiors(ctx context.Context, registration, department string) ([]domain.Member, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT DISTINCT ` + memberColumns + `,
		       EXISTS (
		           SELECT 1 FROM hierarchy_cc rh
		           WHERE rh.responsible_registration = u.registration_number
		       ) AS responsible
		FROM hierarchy_cc h
		JOIN users u
		  ON u.registration_number IN (h.level1_registration, h.level2_registration,
		                               h.level3_registration, h.level4_registration,
		                               h.responsible_registration)
		WHERE (h.responsible_registration = $1 OR TRIM(h.department_code) = TRIM($2))
		  AND u.is_active = TRUE
		  AND u.registration_number <> $1
		ORDER BY u.full_name
	`

	var members []domain.Member
	if err := r.db.SelectContext(ctx, &members, query, registration, department); err != nil {
		return nil, fmt.Errorf("list superiors of %s: %w", registration, err)
	}
	return members, nil
}
