// Package service resolves organizational position and visibility on top of
// the hierarchy stores.
package service

import (
	"context"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/messaging"
)

// EmployeeStore reads the employee history
type EmployeeStore interface {
	Latest(ctx context.Context, registration, nationalID string) (*domain.EmployeeRecord, error)
	ActiveDepartments(ctx context.Context, codes []string) (map[string]bool, error)
}

// LedgerStore reads the hierarchy ledger
type LedgerStore interface {
	ResponsibleNode(ctx context.Context, registration, nationalID string) (*domain.HierarchyNode, error)
	NodeForDepartment(ctx context.Context, department string) (*domain.HierarchyNode, error)
	IsResponsible(ctx context.Context, registration, branch string) (bool, error)
	Subordinates(ctx context.Context, registration, branch string) ([]domain.Member, error)
	Superiors(ctx context.Context, registration, department string) ([]domain.Member, error)
}

// UserStore reads and updates accounts
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.UserAccount, error)
	UpdatePath(ctx context.Context, id int64, path string) (bool, error)
	ActiveIDs(ctx context.Context) ([]int64, error)
	ListScoped(ctx context.Context, filter domain.Filter, department string, selfID int64) ([]domain.UserAccount, error)
	Stats(ctx context.Context) ([]domain.DepartmentCount, error)
}

// PathSyncPublisher announces rewritten paths
type PathSyncPublisher interface {
	PublishPathSynced(ctx context.Context, evt messaging.PathSyncedEvent)
}
