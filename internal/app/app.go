// Package app wires stores, hierarchy services and the analytics engine
// for the service binary and the operator CLI.
package app

import (
	"github.com/lumigente/lumigente-backend/internal/analytics/cache"
	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	arepo "github.com/lumigente/lumigente-backend/internal/analytics/repository"
	aservice "github.com/lumigente/lumigente-backend/internal/analytics/service"
	hrepo "github.com/lumigente/lumigente-backend/internal/hierarchy/repository"
	hservice "github.com/lumigente/lumigente-backend/internal/hierarchy/service"
	"github.com/lumigente/lumigente-backend/pkg/config"
	"github.com/lumigente/lumigente-backend/pkg/database"
	"github.com/lumigente/lumigente-backend/pkg/logger"
	"github.com/lumigente/lumigente-backend/pkg/metrics"
)

// Services are the wired components of one process
type Services struct {
	Policy    *hservice.PrivilegePolicy
	Resolver  *hservice.PathResolver
	Scopes    *hservice.ScopeResolver
	Directory *hservice.Directory
	Cache     *cache.Cache
	Engine    *aservice.Engine
	Team      *aservice.Team
}

// Build wires every component on db. publisher and m may be nil.
func Build(cfg *config.Config, db *database.DB, publisher hservice.PathSyncPublisher, m *metrics.Metrics, log *logger.Logger) *Services {
	employees := hrepo.NewEmployeeRepository(db)
	ledger := hrepo.NewLedgerRepository(db)
	users := hrepo.NewUserRepository(db)
	analytics := arepo.NewAnalyticsRepository(db)

	policy := hservice.NewPrivilegePolicy(cfg.Access)
	resolver := hservice.NewPathResolver(employees, ledger, log)
	scopes := hservice.NewScopeResolver(policy, ledger, users, m, log)

	directory := hservice.NewDirectory(hservice.DirectoryConfig{
		Resolver:    resolver,
		Scopes:      scopes,
		Employees:   employees,
		Ledger:      ledger,
		Users:       users,
		Publisher:   publisher,
		Metrics:     m,
		Logger:      log,
		Concurrency: cfg.Analytics.MaxConcurrency,
	})

	resultCache := cache.New(cache.Options{
		TTL:            cfg.Analytics.CacheTTL,
		MaxEntries:     cfg.Analytics.CacheMaxEntries,
		ComputeTimeout: cfg.Analytics.ComputeTimeout,
	}, m)

	engine := aservice.NewEngine(aservice.EngineConfig{
		Store:  analytics,
		Scopes: scopes,
		Cache:  resultCache,
		Limits: domain.Limits{
			DefaultPeriodDays: cfg.Analytics.DefaultPeriodDays,
			MaxPeriodDays:     cfg.Analytics.MaxPeriodDays,
			DefaultTop:        cfg.Analytics.DefaultTop,
		},
		MaxConcurrency: cfg.Analytics.MaxConcurrency,
		Metrics:        m,
		Logger:         log,
	})

	return &Services{
		Policy:    policy,
		Resolver:  resolver,
		Scopes:    scopes,
		Directory: directory,
		Cache:     resultCache,
		Engine:    engine,
		Team:      aservice.NewTeam(analytics, scopes, log),
	}
}
