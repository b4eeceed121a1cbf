package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/database"
)

const accountColumns = `
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

// UserRepository reads and updates user accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns an account, or nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.UserAccount, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM users u WHERE u.id = $1`

	var u domain.UserAccount
	err := r.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &u, nil
}

// UpdatePath stores a sanitized path. It reports whether the stored value changed.
func (r *UserRepository) UpdatePath(ctx context.Context, id int64, path string) (bool, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET hierarchy_path = $2
		WHERE id = $1 AND hierarchy_path IS DISTINCT FROM $2
	`

	res, err := r.db.ExecContext(ctx, query, id, path)
	if err != nil {
		return false, fmt.Errorf("update path of user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update path of user %d: %w", id, err)
	}
	return n > 0, nil
}

// ActiveIDs lists every active account id
func (r *UserRepository) ActiveIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM users WHERE is_active = TRUE ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return ids, nil
}

// ListScoped returns the active accounts visible under the filter.
// A non-empty department keeps that department plus selfID.
func (r *UserRepository) ListScoped(ctx context.Context, filter domain.Filter, department string, selfID int64) ([]domain.UserAccount, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM users u WHERE u.is_active = TRUE` + filter.And()
	args := append([]interface{}{}, filter.Args...)
	if department != "" {
		query += ` AND (TRIM(u.department_code) = TRIM(?) OR u.id = ?)`
		args = append(args, department, selfID)
	}
	query += ` ORDER BY u.full_name, u.id`

	var users []domain.UserAccount
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list accessible users: %w", err)
	}
	return users, nil
}

// Stats counts active users per department
func (r *UserRepository) Stats(ctx context.Context) ([]domain.DepartmentCount, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT COALESCE(TRIM(department_code), '') AS department_code,
		       COALESCE(MAX(department_description), '') AS department_description,
		       COUNT(*) AS users
		FROM users
		WHERE is_active = TRUE
		GROUP BY COALESCE(TRIM(department_code), '')
		ORDER BY department_code
	`

	var stats []domain.DepartmentCount
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("hierarchy stats: %w", err)
	}
	return stats, nil
}
