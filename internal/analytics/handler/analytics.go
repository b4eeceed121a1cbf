package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	"github.com/lumigente/lumigente-backend/internal/analytics/service"
	"github.com/lumigente/lumigente-backend/internal/auth/jwt"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/httputil"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

// Directory identifies requesters and counts users per department
type Directory interface {
	Identify(ctx context.Context, fallback hdomain.Subject) (hdomain.Subject, error)
	Stats(ctx context.Context) ([]hdomain.DepartmentCount, error)
}

// AnalyticsHandler handles analytics and manager endpoints
type AnalyticsHandler struct {
	engine    *service.Engine
	team      *service.Team
	directory Directory
	logger    *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(engine *service.Engine, team *service.Team, directory Directory, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		engine:    engine,
		team:      team,
		directory: directory,
		logger:    log,
	}
}

// QueryRequest are the analytics query parameters
type QueryRequest struct {
	Period     int
	Department string `validate:"max=64"`
	UserID     int64  `validate:"gte=0"`
	Top        int
}

// ManagementRequest are the team management query parameters
type ManagementRequest struct {
	Status     string `validate:"omitempty,oneof=ativo inativo"`
	Department string `validate:"max=64"`
}

// Dashboard returns every analytics section
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, q, err := h.request(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	d, cached, err := h.engine.Dashboard(r.Context(), s, q)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, d, &httputil.Meta{
		Cached:      cached,
		GeneratedAt: d.GeneratedAt.Format(time.RFC3339),
	})
}

// Rankings returns the engagement ranking and the points leaderboard
func (h *AnalyticsHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	s, q, err := h.request(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	rankings, cached, err := h.engine.Rankings(r.Context(), s, q)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, rankings, &httputil.Meta{Cached: cached})
}

// Gamification returns the points leaderboard
func (h *AnalyticsHandler) Gamification(w http.ResponseWriter, r *http.Request) {
	s, q, err := h.request(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entries, cached, err := h.engine.Gamification(r.Context(), s, q)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, entries, &httputil.Meta{Total: int64(len(entries)), Cached: cached})
}

// Departments returns the per-department aggregation
func (h *AnalyticsHandler) Departments(w http.ResponseWriter, r *http.Request) {
	s, q, err := h.request(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	stats, cached, err := h.engine.Departments(r.Context(), s, q)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, stats, &httputil.Meta{Total: int64(len(stats)), Cached: cached})
}

// Trends returns the daily and weekly mood series
func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	s, q, err := h.request(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	trends, cached, err := h.engine.Trends(r.Context(), s, q)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, trends, &httputil.Meta{Cached: cached})
}

// Satisfaction returns the mood satisfaction summary
func (h *AnalyticsHandler) Satisfaction(w http.ResponseWriter, r *http.Request) {
	s, q, err := h.request(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sat, cached, err := h.engine.Satisfaction(r.Context(), s, q)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, sat, &httputil.Meta{Cached: cached})
}

// AvailableDepartments lists the department filters the requester may use
func (h *AnalyticsHandler) AvailableDepartments(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	available, err := h.engine.AvailableDepartments(r.Context(), s)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, available)
}

// Export downloads the per-user metrics as CSV
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, q, err := h.request(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	out, err := h.engine.Export(r.Context(), s, q)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Attachment(w, out.Filename, "text/csv; charset=utf-8", out.Body)
}

// ClearCache drops every cached result. Privileged requesters only.
func (h *AnalyticsHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if !h.engine.CanAdminister(r.Context(), s) {
		httputil.Error(w, errors.Forbidden("clearing the analytics cache requires full access"))
		return
	}

	h.engine.ClearCache()
	h.logger.Info().Int64("user_id", s.UserID).Msg("analytics cache cleared by request")

	httputil.JSON(w, http.StatusOK, h.engine.CacheStats())
}

// CacheStats reports the cache counters. Privileged requesters only.
func (h *AnalyticsHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if !h.engine.CanAdminister(r.Context(), s) {
		httputil.Error(w, errors.Forbidden("cache statistics require full access"))
		return
	}

	httputil.JSON(w, http.StatusOK, h.engine.CacheStats())
}

// TeamMetrics aggregates the requester's direct reports
func (h *AnalyticsHandler) TeamMetrics(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	m, err := h.team.Metrics(r.Context(), s)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, m)
}

// TeamStatus counts the requester's direct reports by presence
func (h *AnalyticsHandler) TeamStatus(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	status, err := h.team.Status(r.Context(), s)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, status)
}

// TeamManagement lists the requester's direct reports with recent activity
func (h *AnalyticsHandler) TeamManagement(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	req := ManagementRequest{
		Status:     strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	members, err := h.team.Management(r.Context(), s, req.Status, req.Department)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, members, &httputil.Meta{Total: int64(len(members))})
}

// ManagerDepartments lists departments with their active user counts
func (h *AnalyticsHandler) ManagerDepartments(w http.ResponseWriter, r *http.Request) {
	if _, err := h.subject(r); err != nil {
		httputil.Error(w, err)
		return
	}

	counts, err := h.directory.Stats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if counts == nil {
		counts = []hdomain.DepartmentCount{}
	}

	httputil.JSON(w, http.StatusOK, counts)
}

func (h *AnalyticsHandler) request(r *http.Request) (hdomain.Subject, domain.Query, error) {
	s, err := h.subject(r)
	if err != nil {
		return hdomain.Subject{}, domain.Query{}, err
	}
	q, err := parseQuery(r)
	if err != nil {
		return hdomain.Subject{}, domain.Query{}, err
	}
	return s, q, nil
}

func (h *AnalyticsHandler) subject(r *http.Request) (hdomain.Subject, error) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		return hdomain.Subject{}, errors.Unauthorized("missing token claims")
	}
	return h.directory.Identify(r.Context(), claims.Subject())
}

func parseQuery(r *http.Request) (domain.Query, error) {
	var req QueryRequest
	var err error

	if req.Period, err = httputil.QueryInt(r, "period", 0); err != nil {
		return domain.Query{}, err
	}
	if req.Top, err = httputil.QueryInt(r, "top", 0); err != nil {
		return domain.Query{}, err
	}
	if req.UserID, err = httputil.QueryInt64(r, "userId"); err != nil {
		return domain.Query{}, err
	}
	req.Department = strings.TrimSpace(r.URL.Query().Get("department"))

	if err := httputil.Validate(req); err != nil {
		return domain.Query{}, err
	}

	return domain.Query{
		PeriodDays:   req.Period,
		Department:   req.Department,
		TargetUserID: req.UserID,
		Top:          req.Top,
	}, nil
}
