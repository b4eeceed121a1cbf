package app

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	if !testutil.IntegrationEnabled() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatal(err)
	}
	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

// orgChart seeds a manager responsible for department 100 and two
// employees in sub-department 1001, plus an unrelated account.
type orgChart struct {
	manager, analyst, lead, outsider int64
}

func seedOrgChart(t *testing.T, ctx context.Context) orgChart {
	t.Helper()
	f := suite.Fixtures

	person := func(reg, nid, dept string) {
		suite.SeedEmployee(t, ctx, f.Employee(func(e *testutil.EmployeeFixture) {
			e.RegistrationNumber, e.NationalID, e.DepartmentCode = reg, nid, dept
		}))
	}
	account := func(reg, nid, dept, path string) int64 {
		return suite.SeedUser(t, ctx, f.User(func(u *testutil.UserFixture) {
			u.RegistrationNumber, u.NationalID, u.DepartmentCode, u.HierarchyPath = reg, nid, dept, path
		}))
	}

	person("000001", "11111111111", "100")
	person("000002", "22222222222", "1001")
	person("000003", "33333333333", "1001")
	person("000004", "44444444444", "10")
	person("000005", "55555555555", "200")

	// 99 has no active employee and must be dropped from the path
	suite.SeedNode(t, ctx, f.Node("100", "1 > 10 > 99 > 100", func(n *testutil.NodeFixture) {
		n.ResponsibleRegistration = testutil.Ptr("000001")
		n.ResponsibleNationalID = testutil.Ptr("11111111111")
	}))
	suite.SeedNode(t, ctx, f.Node("1001", "1 > 10 > 100 > 1001", func(n *testutil.NodeFixture) {
		n.ResponsibleRegistration = testutil.Ptr("000003")
		n.Level1Registration = testutil.Ptr("000001")
	}))
	suite.SeedNode(t, ctx, f.Node("200", "1 > 200"))

	return orgChart{
		manager:  account("000001", "11111111111", "100", ""),
		analyst:  account("000002", "22222222222", "1001", "1 > 10 > 100 > 1001"),
		lead:     account("000003", "33333333333", "1001", "1 > 10 > 100 > 1001"),
		outsider: account("000005", "55555555555", "200", "1 > 200"),
	}
}

func TestIntegration_HierarchyAndAnalytics(t *testing.T) {
	testutil.SkipUnlessIntegration(t)
	ctx := context.Background()
	suite.Reset(t, ctx)

	org := seedOrgChart(t, ctx)
	svc := Build(testConfig(), suite.DB, nil, nil, suite.Logger)

	t.Run("resolves and sanitizes the manager path", func(t *testing.T) {
		info, err := svc.Resolver.Resolve(ctx, "000001", "11111111111")
		require.NoError(t, err)
		assert.True(t, info.Found)
		assert.True(t, info.Responsible)
		assert.Equal(t, "1 > 10 > 100", info.Path)
	})

	t.Run("manager scope covers the managed departments only", func(t *testing.T) {
		s, err := svc.Directory.Identify(ctx, hdomain.Subject{UserID: org.manager})
		require.NoError(t, err)

		scope := svc.Scopes.Resolve(ctx, s, hdomain.ScopeOptions{})
		assert.False(t, scope.Privileged)
		assert.Equal(t, []int64{org.manager, org.analyst, org.lead}, scope.IDs())
		assert.False(t, scope.Contains(org.outsider))
	})

	t.Run("employee without responsibility sees only self", func(t *testing.T) {
		s, err := svc.Directory.Identify(ctx, hdomain.Subject{UserID: org.analyst})
		require.NoError(t, err)

		scope := svc.Scopes.Resolve(ctx, s, hdomain.ScopeOptions{})
		assert.Equal(t, []int64{org.analyst}, scope.IDs())
	})

	t.Run("sync stores the sanitized path", func(t *testing.T) {
		report, err := svc.Directory.SyncAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), report.Total)
		assert.Zero(t, report.Failed)

		var stored string
		require.NoError(t, suite.RawDB.GetContext(ctx, &stored, `SELECT hierarchy_path FROM users WHERE id = $1`, org.manager))
		assert.Equal(t, "1 > 10 > 100", stored)
	})

	t.Run("dashboard counts only scoped activity", func(t *testing.T) {
		suite.Exec(t, ctx, `INSERT INTO feedbacks (from_user_id, to_user_id) VALUES ($1, $2)`, org.analyst, org.manager)
		suite.Exec(t, ctx, `INSERT INTO feedbacks (from_user_id, to_user_id) VALUES ($1, $2)`, org.outsider, org.analyst)
		suite.Exec(t, ctx, `INSERT INTO daily_mood (user_id, score) VALUES ($1, 4), ($2, 5)`, org.lead, org.outsider)
		suite.Exec(t, ctx, `INSERT INTO objectives (status, created_by) VALUES ('Ativo', $1)`, org.manager)

		s, err := svc.Directory.Identify(ctx, hdomain.Subject{UserID: org.manager})
		require.NoError(t, err)

		d, cached, err := svc.Engine.Dashboard(ctx, s, domain.Query{})
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, int64(3), d.Performance.TotalUsers)
		assert.Equal(t, int64(1), d.Performance.TotalFeedbacks)
		assert.Equal(t, int64(1), d.Performance.TotalMoodEntries)
		assert.Equal(t, int64(1), d.Performance.Objectives.Active)

		_, cached, err = svc.Engine.Dashboard(ctx, s, domain.Query{})
		require.NoError(t, err)
		assert.True(t, cached)
	})
}
