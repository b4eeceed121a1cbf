// Package repository runs the analytics aggregations against PostgreSQL.
//
// Every windowed query takes the scope filter built by the hierarchy package
// (always on column u.id) and an optional department filter. Both are bound
// as parameters; clauses use '?' and are rebound for the driver.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/database"
)

// ScopeColumn is the column scope filters must be built on
const ScopeColumn = "u.id"

// AnalyticsRepository aggregates engagement events
type AnalyticsRepository struct {
	db *database.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// scoped renders the department and scope predicates in bind order
func scoped(filter hdomain.Filter, department string) (string, []interface{}) {
	var clause string
	var args []interface{}
	if department != "" {
		clause += ` AND TRIM(u.department_code) = ?`
		args = append(args, department)
	}
	clause += filter.And()
	args = append(args, filter.Args...)
	return clause, args
}

// Performance counts active participants and events of the window
func (r *AnalyticsRepository) Performance(ctx context.Context, filter hdomain.Filter, department string, since time.Time) (*domain.Performance, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT
			(SELECT COUNT(DISTINCT dm.user_id) FROM daily_mood dm JOIN users u ON u.id = dm.user_id
			 WHERE dm.created_at >= ?` + where + `) AS mood_users,
			(SELECT COUNT(DISTINCT f.from_user_id) FROM feedbacks f JOIN users u ON u.id = f.from_user_id
			 WHERE f.created_at >= ?` + where + `) AS feedback_users,
			(SELECT COUNT(DISTINCT rc.from_user_id) FROM recognitions rc JOIN users u ON u.id = rc.from_user_id
			 WHERE rc.created_at >= ?` + where + `) AS recognition_users,
			(SELECT COUNT(*) FROM users u WHERE u.is_active = TRUE` + where + `) AS total_users,
			(SELECT COUNT(*) FROM feedbacks f JOIN users u ON u.id = f.from_user_id
			 WHERE f.created_at >= ?` + where + `) AS total_feedbacks,
			(SELECT COUNT(*) FROM recognitions rc JOIN users u ON u.id = rc.from_user_id
			 WHERE rc.created_at >= ?` + where + `) AS total_recognitions,
			(SELECT COUNT(*) FROM daily_mood dm JOIN users u ON u.id = dm.user_id
			 WHERE dm.created_at >= ?` + where + `) AS total_mood_entries
	`

	var args []interface{}
	for i := 0; i < 7; i++ {
		if i != 3 {
			args = append(args, since)
		}
		args = append(args, wargs...)
	}

	var p domain.Performance
	if err := r.db.GetContext(ctx, &p, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("performance indicators: %w", err)
	}

	statusQuery := `
		SELECT o.status, COUNT(*) AS n
		FROM objectives o
		JOIN users u ON u.id = o.created_by
		WHERE o.created_at >= ?` + where + `
		GROUP BY o.status
	`

	var rows []struct {
		Status string `db:"status"`
		N      int64  `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(statusQuery), append([]interface{}{since}, wargs...)...); err != nil {
		return nil, fmt.Errorf("objective breakdown: %w", err)
	}
	for _, row := range rows {
		p.Objectives.Add(row.Status, row.N)
	}

	return &p, nil
}

// TopUsers ranks active users by engagement score; ties by user id
func (r *AnalyticsRepository) TopUsers(ctx context.Context, filter hdomain.Filter, department string, since time.Time, limit int) ([]domain.RankedUser, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT u.id AS user_id, u.full_name,
		       COALESCE(TRIM(u.department_code), '') AS department,
		       COALESCE(fs.n, 0) AS feedbacks_sent,
		       COALESCE(rs.n, 0) AS recognitions_sent,
		       COALESCE(dm.n, 0) AS mood_entries,
		       COALESCE(fs.n, 0) * 10 + COALESCE(rs.n, 0) * 5 + COALESCE(dm.n, 0) * 2 AS score
		FROM users u
		LEFT JOIN (SELECT from_user_id AS user_id, COUNT(*) AS n FROM feedbacks
		           WHERE created_at >= ? GROUP BY from_user_id) fs ON fs.user_id = u.id
		LEFT JOIN (SELECT from_user_id AS user_id, COUNT(*) AS n FROM recognitions
		           WHERE created_at >= ? GROUP BY from_user_id) rs ON rs.user_id = u.id
		LEFT JOIN (SELECT user_id, COUNT(*) AS n FROM daily_mood
		           WHERE created_at >= ? GROUP BY user_id) dm ON dm.user_id = u.id
		WHERE u.is_active = TRUE` + where + `
		ORDER BY score DESC, u.id ASC
		LIMIT ?
	`

	args := append([]interface{}{since, since, since}, wargs...)
	args = append(args, limit)

	var users []domain.RankedUser
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("user rankings: %w", err)
	}
	return users, nil
}

// Gamification ranks active users by cumulative points; ties by user id
func (r *AnalyticsRepository) Gamification(ctx context.Context, filter hdomain.Filter, department string, limit int) ([]domain.GamificationEntry, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT u.id AS user_id, u.full_name,
		       COALESCE(TRIM(u.department_code), '') AS department,
		       up.total_points
		FROM user_points up
		JOIN users u ON u.id = up.user_id
		WHERE u.is_active = TRUE` + where + `
		ORDER BY up.total_points DESC, u.id ASC
		LIMIT ?
	`

	var entries []domain.GamificationEntry
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), append(wargs, limit)...); err != nil {
		return nil, fmt.Errorf("gamification leaderboard: %w", err)
	}
	return entries, nil
}

// Departments aggregates the window per department
func (r *AnalyticsRepository) Departments(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.DepartmentStats, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT COALESCE(TRIM(u.department_code), '') AS department,
		       COUNT(*) AS users,
		       COALESCE(SUM(dm.total)::float8 / NULLIF(SUM(dm.n), 0), 0) AS average_mood,
		       COALESCE(SUM(fb.n), 0)::bigint AS feedbacks,
		       COALESCE(SUM(rc.n), 0)::bigint AS recognitions
		FROM users u
		LEFT JOIN (SELECT user_id, COUNT(*) AS n, SUM(score) AS total FROM daily_mood
		           WHERE created_at >= ? GROUP BY user_id) dm ON dm.user_id = u.id
		LEFT JOIN (SELECT from_user_id AS user_id, COUNT(*) AS n FROM feedbacks
		           WHERE created_at >= ? GROUP BY from_user_id) fb ON fb.user_id = u.id
		LEFT JOIN (SELECT from_user_id AS user_id, COUNT(*) AS n FROM recognitions
		           WHERE created_at >= ? GROUP BY from_user_id) rc ON rc.user_id = u.id
		WHERE u.is_active = TRUE` + where + `
		GROUP BY COALESCE(TRIM(u.department_code), '')
		ORDER BY users DESC, department ASC
	`

	args := append([]interface{}{since, since, since}, wargs...)

	var stats []domain.DepartmentStats
	if err := r.db.SelectContext(ctx, &stats, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("department analytics: %w", err)
	}
	for i := range stats {
		stats[i].AverageMood = domain.Round(stats[i].AverageMood, 2)
	}
	return stats, nil
}

// DailyTrend averages mood per calendar day
func (r *AnalyticsRepository) DailyTrend(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.DailyTrend, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT to_char(date_trunc('day', dm.created_at), 'YYYY-MM-DD') AS day,
		       AVG(dm.score)::float8 AS average_mood,
		       COUNT(*) AS entries
		FROM daily_mood dm
		JOIN users u ON u.id = dm.user_id
		WHERE dm.created_at >= ?` + where + `
		GROUP BY 1
		ORDER BY 1
	`

	var days []domain.DailyTrend
	if err := r.db.SelectContext(ctx, &days, r.db.Rebind(query), append([]interface{}{since}, wargs...)...); err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}
	return days, nil
}

// WeeklyTrend averages mood per ISO week
func (r *AnalyticsRepository) WeeklyTrend(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.WeeklyTrend, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT EXTRACT(ISOYEAR FROM dm.created_at)::int AS year,
		       EXTRACT(WEEK FROM dm.created_at)::int AS week,
		       AVG(dm.score)::float8 AS average_mood,
		       COUNT(*) AS entries
		FROM daily_mood dm
		JOIN users u ON u.id = dm.user_id
		WHERE dm.created_at >= ?` + where + `
		GROUP BY 1, 2
		ORDER BY 1, 2
	`

	var weeks []domain.WeeklyTrend
	if err := r.db.SelectContext(ctx, &weeks, r.db.Rebind(query), append([]interface{}{since}, wargs...)...); err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}
	return weeks, nil
}

// Satisfaction summarizes mood scores of the window
func (r *AnalyticsRepository) Satisfaction(ctx context.Context, filter hdomain.Filter, department string, since time.Time) (domain.Satisfaction, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT COUNT(*) AS responses,
		       COUNT(*) FILTER (WHERE dm.score >= 4) AS promoters,
		       COUNT(*) FILTER (WHERE dm.score <= 2) AS detractors,
		       COALESCE(AVG(dm.score)::float8, 0) AS average
		FROM daily_mood dm
		JOIN users u ON u.id = dm.user_id
		WHERE dm.created_at >= ?` + where

	var row struct {
		Responses  int64   `db:"responses"`
		Promoters  int64   `db:"promoters"`
		Detractors int64   `db:"detractors"`
		Average    float64 `db:"average"`
	}
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), append([]interface{}{since}, wargs...)...); err != nil {
		return domain.Satisfaction{}, fmt.Errorf("satisfaction: %w", err)
	}
	return domain.NewSatisfaction(row.Responses, row.Promoters, row.Detractors, row.Average), nil
}

// UserMetrics counts one user's sent and received events
func (r *AnalyticsRepository) UserMetrics(ctx context.Context, userID int64, since time.Time) (*domain.UserMetrics, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT $1::bigint AS user_id,
		       (SELECT COUNT(*) FROM feedbacks WHERE from_user_id = $1 AND created_at >= $2) AS feedbacks_sent,
		       (SELECT COUNT(*) FROM feedbacks WHERE to_user_id = $1 AND created_at >= $2) AS feedbacks_received,
		       (SELECT COUNT(*) FROM recognitions WHERE from_user_id = $1 AND created_at >= $2) AS recognitions_sent,
		       (SELECT COUNT(*) FROM recognitions WHERE to_user_id = $1 AND created_at >= $2) AS recognitions_received,
		       (SELECT COUNT(*) FROM daily_mood WHERE user_id = $1 AND created_at >= $2) AS mood_entries
	`

	var m domain.UserMetrics
	if err := r.db.GetContext(ctx, &m, query, userID, since); err != nil {
		return nil, fmt.Errorf("metrics of user %d: %w", userID, err)
	}
	return &m, nil
}

// AvailableDepartments lists the distinct departments of the visible active users
func (r *AnalyticsRepository) AvailableDepartments(ctx context.Context, filter hdomain.Filter) ([]string, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT DISTINCT TRIM(u.department_code) AS department
		FROM users u
		WHERE u.is_active = TRUE
		  AND u.department_code IS NOT NULL
		  AND TRIM(u.department_code) <> ''` + filter.And() + `
		ORDER BY 1
	`

	var departments []string
	if err := r.db.SelectContext(ctx, &departments, r.db.Rebind(query), filter.Args...); err != nil {
		return nil, fmt.Errorf("available departments: %w", err)
	}
	return departments, nil
}

// ExportRows returns per-user window counters for the export, ordered by name
func (r *AnalyticsRepository) ExportRows(ctx context.Context, filter hdomain.Filter, department string, since time.Time) ([]domain.ExportRow, error) {
	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	where, wargs := scoped(filter, department)

	query := `
		SELECT u.id AS user_id, u.full_name,
		       COALESCE(TRIM(u.department_code), '') AS department,
		       (SELECT COUNT(*) FROM feedbacks WHERE to_user_id = u.id AND created_at >= ?) AS feedbacks_received,
		       (SELECT COUNT(*) FROM feedbacks WHERE from_user_id = u.id AND created_at >= ?) AS feedbacks_sent,
		       (SELECT COUNT(*) FROM recognitions WHERE to_user_id = u.id AND created_at >= ?) AS recognitions_received,
		       (SELECT COUNT(*) FROM recognitions WHERE from_user_id = u.id AND created_at >= ?) AS recognitions_sent,
		       (SELECT COUNT(*) FROM daily_mood WHERE user_id = u.id AND created_at >= ?) AS mood_entries,
		       (SELECT AVG(score)::float8 FROM daily_mood WHERE user_id = u.id AND created_at >= ?) AS average_mood
		FROM users u
		WHERE u.is_active = TRUE` + where + `
		ORDER BY u.full_name, u.id
	`

	args := append([]interface{}{since, since, since, since, since, since}, wargs...)

	var rows []domain.ExportRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}
	return rows, nil
}

// TeamMetrics aggregates the given members over the window.
// Objectives count when a member created or owns them.
func (r *AnalyticsRepository) TeamMetrics(ctx context.Context, memberIDs []int64, since time.Time) (*domain.TeamMetrics, error) {
	if len(memberIDs) == 0 {
		return &domain.TeamMetrics{}, nil
	}

	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT
			COUNT(*) AS total_members,
			COUNT(*) FILTER (WHERE u.is_active) AS active_members,
			(SELECT COUNT(*) FROM feedbacks f
			 WHERE (f.from_user_id = ANY($1) OR f.to_user_id = ANY($1)) AND f.created_at >= $2) AS total_feedbacks,
			(SELECT COUNT(*) FROM recognitions rc
			 WHERE (rc.from_user_id = ANY($1) OR rc.to_user_id = ANY($1)) AND rc.created_at >= $2) AS total_recognitions,
			(SELECT AVG(dm.score)::float8 FROM daily_mood dm
			 WHERE dm.user_id = ANY($1) AND dm.created_at >= $2) AS average_mood,
			(SELECT COUNT(DISTINCT o.id) FROM objectives o
			 LEFT JOIN objective_owners oo ON oo.objective_id = o.id
			 WHERE o.status = 'Ativo' AND (o.created_by = ANY($1) OR oo.user_id = ANY($1))) AS active_objectives
		FROM users u
		WHERE u.id = ANY($1)
	`

	var row struct {
		domain.TeamMetrics
		AverageMood *float64 `db:"average_mood"`
	}
	if err := r.db.GetContext(ctx, &row, query, pq.Array(memberIDs), since); err != nil {
		return nil, fmt.Errorf("team metrics: %w", err)
	}

	m := row.TeamMetrics
	if row.AverageMood != nil {
		m.AverageMood = domain.Round(*row.AverageMood, 1)
	}
	return &m, nil
}

// TeamMembers returns management rows for the given members.
// status is "", "ativo" or "inativo"; department "" means all.
func (r *AnalyticsRepository) TeamMembers(ctx context.Context, memberIDs []int64, status, department string, since time.Time) ([]domain.TeamMember, error) {
	if len(memberIDs) == 0 {
		return []domain.TeamMember{}, nil
	}

	ctx, cancel := r.db.Bound(ctx)
	defer cancel()

	query := `
		SELECT u.id, u.full_name,
		       COALESCE(TRIM(u.department_code), '') AS department,
		       COALESCE(u.department_description, '') AS department_description,
		       u.last_login, u.is_active,
		       (SELECT AVG(score)::float8 FROM daily_mood WHERE user_id = u.id AND created_at >= $2) AS average_mood,
		       (SELECT COUNT(*) FROM feedbacks WHERE to_user_id = u.id AND created_at >= $2) AS recent_feedbacks,
		       (SELECT COUNT(DISTINCT o.id) FROM objectives o
		        LEFT JOIN objective_owners oo ON oo.objective_id = o.id
		        WHERE o.status = 'Ativo' AND (oo.user_id = u.id OR o.created_by = u.id)) AS active_objectives
		FROM users u
		WHERE u.id = ANY($1)
		  AND ($3 = '' OR TRIM(u.department_code) = $3)
	`
	switch status {
	case domain.StatusFilterActive:
		query += ` AND u.is_active = TRUE`
	case domain.StatusFilterInactive:
		query += ` AND u.is_active = FALSE`
	}
	query += ` ORDER BY u.full_name, u.id`

	var members []domain.TeamMember
	if err := r.db.SelectContext(ctx, &members, query, pq.Array(memberIDs), since, department); err != nil {
		return nil, fmt.Errorf("team members: %w", err)
	}
	for i := range members {
		if avg := members[i].AverageMood; avg != nil {
			rounded := domain.Round(*avg, 1)
			members[i].AverageMood = &rounded
		}
	}
	return members, nil
}
