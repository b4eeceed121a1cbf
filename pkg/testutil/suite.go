package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/lumigente/lumigente-backend/pkg/database"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts (or reuses) the shared container and applies the schema.
// Set LUMIGENTE_INTEGRATION=1 to run integration tests; see SkipUnlessIntegration.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    if !testutil.IntegrationEnabled() {
//	        os.Exit(m.Run())
//	    }
//	    ctx := context.Background()
//	    var err error
//	    suite, err = testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New("test", "test")
	wrappedDB, err := database.NewWithDSN(container.DSN, log)
	if err != nil {
		return nil, err
	}

	if err := container.CreateSchema(ctx, db); err != nil {
		return nil, err
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		DB:        wrappedDB,
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// Reset truncates every table so each test starts from an empty store
func (s *IntegrationSuite) Reset(t *testing.T, ctx context.Context) {
	t.Helper()
	stmt := fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(Tables(), ", "))
	if _, err := s.RawDB.ExecContext(ctx, stmt); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

// SeedEmployee inserts an employee_history row
func (s *IntegrationSuite) SeedEmployee(t *testing.T, ctx context.Context, e EmployeeFixture) {
	t.Helper()
	if err := InsertEmployee(ctx, s.RawDB, e); err != nil {
		t.Fatalf("failed to seed employee %s: %v", e.RegistrationNumber, err)
	}
}

// SeedNode inserts a hierarchy_cc row
func (s *IntegrationSuite) SeedNode(t *testing.T, ctx context.Context, n NodeFixture) {
	t.Helper()
	if err := InsertNode(ctx, s.RawDB, n); err != nil {
		t.Fatalf("failed to seed node %s: %v", n.DepartmentCode, err)
	}
}

// SeedUser inserts a users row and returns its id
func (s *IntegrationSuite) SeedUser(t *testing.T, ctx context.Context, u UserFixture) int64 {
	t.Helper()
	id, err := InsertUser(ctx, s.RawDB, u)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", u.FullName, err)
	}
	return id
}

// Exec runs a raw statement, for event rows without a dedicated fixture
func (s *IntegrationSuite) Exec(t *testing.T, ctx context.Context, query string, args ...interface{}) {
	t.Helper()
	if _, err := s.RawDB.ExecContext(ctx, query, args...); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		_ = globalContainer.Terminate(ctx)
	}
}

// IntegrationEnabled reports whether container-backed tests should run
func IntegrationEnabled() bool {
	return os.Getenv("LUMIGENTE_INTEGRATION") != ""
}

// SkipUnlessIntegration skips the test unless integration tests are enabled
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if !IntegrationEnabled() {
		t.Skip("set LUMIGENTE_INTEGRATION=1 to run integration tests")
	}
}
