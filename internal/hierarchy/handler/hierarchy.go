package handler

import (
	"net/http"
	"strings"

	"github.com/lumigente/lumigente-backend/internal/auth/jwt"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/service"
	"github.com/lumigente/lumigente-backend/pkg/errors"
	"github.com/lumigente/lumigente-backend/pkg/httputil"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

// HierarchyHandler handles hierarchy endpoints
type HierarchyHandler struct {
	directory *service.Directory
	logger    *logger.Logger
}

// NewHierarchyHandler creates a new hierarchy handler
func NewHierarchyHandler(directory *service.Directory, log *logger.Logger) *HierarchyHandler {
	return &HierarchyHandler{
		directory: directory,
		logger:    log,
	}
}

// MeResponse is the requester's position in the organization
type MeResponse struct {
	UserID int64 `json:"user_id"`
	domain.Info
}

// SyncResponse reports the outcome of a path resync
type SyncResponse struct {
	domain.Info
	Changed bool `json:"changed"`
}

// Me returns the requester's path, level and role
func (h *HierarchyHandler) Me(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	info, err := h.directory.Me(r.Context(), s)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, MeResponse{UserID: s.UserID, Info: info})
}

// Subordinates lists the accounts below the requester
func (h *HierarchyHandler) Subordinates(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if s.RegistrationNumber == "" {
		httputil.JSON(w, http.StatusOK, []domain.Member{})
		return
	}

	members, err := h.directory.Subordinates(r.Context(), s.RegistrationNumber, s.NationalID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, members)
}

// Superiors lists the accounts responsible above the requester
func (h *HierarchyHandler) Superiors(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if s.RegistrationNumber == "" {
		httputil.JSON(w, http.StatusOK, []domain.Member{})
		return
	}

	members, err := h.directory.Superiors(r.Context(), s.RegistrationNumber, s.NationalID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, members)
}

// AccessibleUsers lists the accounts visible to the requester
func (h *HierarchyHandler) AccessibleUsers(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	opts := service.AccessOptions{
		DirectReportsOnly: httputil.QueryBool(r, "directOnly"),
		Department:        strings.TrimSpace(r.URL.Query().Get("department")),
	}

	users, err := h.directory.AccessibleUsers(r.Context(), s, opts)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if users == nil {
		users = []domain.UserAccount{}
	}

	httputil.JSON(w, http.StatusOK, users)
}

// Stats returns active users per department
func (h *HierarchyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.subject(r); err != nil {
		httputil.Error(w, err)
		return
	}

	stats, err := h.directory.Stats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if stats == nil {
		stats = []domain.DepartmentCount{}
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// Permissions returns the requester's feature flags
func (h *HierarchyHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	info, err := h.directory.Me(r.Context(), s)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, h.directory.Permissions(s, info.Level))
}

// Sync recomputes and stores the requester's hierarchy path
func (h *HierarchyHandler) Sync(w http.ResponseWriter, r *http.Request) {
	s, err := h.subject(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	info, changed, err := h.directory.SyncUserPath(r.Context(), s.UserID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, SyncResponse{Info: info, Changed: changed})
}

func (h *HierarchyHandler) subject(r *http.Request) (domain.Subject, error) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Subject{}, errors.Unauthorized("missing token claims")
	}
	return h.directory.Identify(r.Context(), claims.Subject())
}
