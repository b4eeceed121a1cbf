// Package repository reads the employee history, the hierarchy ledger and
// user accounts from PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/database"
)

// EmployeeRepository reads employee_history
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Latest returns the authoritative record for an employee: active rows first,
// then the most recent admission. An empty national id matches any.
// Returns nil when the employee is unknown.
func (r *EmployeeRepository) Latest(ctx context.Context, registration, nationalID string) (*domain.EmployeeRecord, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT registration_number, national_id, name,
		       TRIM(department_code) AS department_code,
		       COALESCE(branch, '') AS branch,
		       status, admission_date
		FROM employee_history
		WHERE registration_number = $1
		  AND ($2 = '' OR national_id = $2)
		ORDER BY CASE WHEN status = 'ATIVO' THEN 0 ELSE 1 END,
		         admission_date DESC NULLS LAST
		LIMIT 1
	`

	var rec domain.EmployeeRecord
	err := r.db.GetContext(ctx, &rec, query, registration, nationalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load employee %s: %w", registration, err)
	}

	return &rec, nil
}

// ActiveDepartments reports which codes are the home department of at least
// one active employee, in one round-trip.
func (r *EmployeeRepository) ActiveDepartments(ctx context.Context, codes []string) (map[string]bool, error) {
	active := make(map[string]bool, len(codes))
	if len(codes) == 0 {
		return active, nil
	}

	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT DISTINCT TRIM(department_code)
		FROM employee_history
		WHERE status = 'ATIVO'
		  AND TRIM(department_code) = ANY($1)
	`

	var found []string
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("validate departments: %w", err)
	}
	for _, code := range found {
		active[code] = true
	}

	return active, nil
}
