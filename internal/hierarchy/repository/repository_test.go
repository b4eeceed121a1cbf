package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/repository"
	"github.com/lumigente/lumigente-backend/pkg/testutil"
)

var memberCols = []string{
	"id", "registration_number", "national_id", "full_name", "department_code",
	"department_description", "hierarchy_path", "role", "branch", "is_active", "last_login", "responsible",
}

var accountCols = memberCols[:11]

func TestEmployeeRepository_Latest(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewEmployeeRepository(mockDB.Wrapped())

	admission := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	mockDB.ExpectQuery("FROM employee_history").
		WithArgs("000123", "12345678901").
		WillReturnRows(testutil.MockRows(
			"registration_number", "national_id", "name", "department_code", "branch", "status", "admission_date",
		).AddRow("000123", "12345678901", "Ana Souza", "1201", "SAO PAULO", "ATIVO", admission))

	rec, err := repo.Latest(context.Background(), "000123", "12345678901")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "1201", rec.DepartmentCode)
	assert.True(t, rec.IsActive())

	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_Latest_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewEmployeeRepository(mockDB.Wrapped())

	mockDB.ExpectQuery("FROM employee_history").
		WithArgs("999", "").
		WillReturnRows(testutil.MockRows("registration_number"))

	rec, err := repo.Latest(context.Background(), "999", "")
	require.NoError(t, err)
	assert.Nil(t, rec)

	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_ActiveDepartments(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewEmployeeRepository(mockDB.Wrapped())

	t.Run("no codes skips the store", func(t *testing.T) {
		active, err := repo.ActiveDepartments(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("one batched lookup", func(t *testing.T) {
		mockDB.ExpectQuery("TRIM(department_code) = ANY($1)").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(testutil.MockRows("btrim").AddRow("B"))

		active, err := repo.ActiveDepartments(context.Background(), []string{"B", "C"})
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"B": true}, active)
	})

	t.Run("store error", func(t *testing.T) {
		mockDB.ExpectQuery("TRIM(department_code) = ANY($1)").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.ActiveDepartments(context.Background(), []string{"B"})
		assert.Error(t, err)
	})

	mockDB.ExpectationsWereMet(t)
}

func TestLedgerRepository_IsResponsible(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewLedgerRepository(mockDB.Wrapped())

	mockDB.ExpectQuery("FROM hierarchy_cc h").
		WithArgs("000123", "").
		WillReturnRows(testutil.MockRows("count").AddRow(2))

	ok, err := repo.IsResponsible(context.Background(), "000123", "")
	require.NoError(t, err)
	assert.True(t, ok)

	mockDB.ExpectationsWereMet(t)
}

func TestLedgerRepository_ResponsibleNode(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewLedgerRepository(mockDB.Wrapped())

	mockDB.ExpectQuery("ORDER BY LENGTH(h.full_path) DESC").
		WithArgs("000123", "12345678901").
		WillReturnRows(testutil.MockRows(
			"department_code", "description", "full_path", "responsible_registration", "branch",
		).AddRow("1201", "RECURSOS HUMANOS", "1 > 12 > 1201", "000123", ""))

	node, err := repo.ResponsibleNode(context.Background(), "000123", "12345678901")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "1 > 12 > 1201", node.FullPath)

	mockDB.ExpectQuery("ORDER BY LENGTH(h.full_path) DESC").
		WithArgs("404").
		WillReturnRows(testutil.MockRows("department_code"))

	node, err = repo.NodeForDepartment(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, node)

	mockDB.ExpectationsWereMet(t)
}

func TestLedgerRepository_Subordinates(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewLedgerRepository(mockDB.Wrapped())

	mockDB.ExpectQuery("JOIN employee_history s").
		WithArgs("000123", "SAO PAULO").
		WillReturnRows(testutil.MockRows(memberCols...).
			AddRow(10, "000200", "1", "Bruno", "1201", "RH", "1 > 12 > 1201", "Funcionário", "SAO PAULO", true, nil, false).
			AddRow(11, "000201", "2", "Carla", "1202", "DP", "1 > 12 > 1202", "Funcionário", "SAO PAULO", true, nil, true))

	members, err := repo.Subordinates(context.Background(), "000123", "SAO PAULO")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(10), members[0].ID)
	assert.True(t, members[1].Responsible)

	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_ListScoped(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewUserRepository(mockDB.Wrapped())

	filter := domain.BuildScopeFilter(domain.NewScope(3, 7), "u.id")

	mockDB.ExpectQuery("WHERE u.is_active = TRUE AND u.id IN ($1, $2) AND (TRIM(u.department_code) = TRIM($3) OR u.id = $4)").
		WithArgs(int64(3), int64(7), "1201", int64(3)).
		WillReturnRows(testutil.MockRows(accountCols...).
			AddRow(3, "000003", "3", "Ana", "1201", "RH", "1 > 1201", "Funcionário", "", true, nil))

	users, err := repo.ListScoped(context.Background(), filter, "1201", 3)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].FullName)

	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_ListScoped_EmptyScope(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewUserRepository(mockDB.Wrapped())

	mockDB.ExpectQuery("WHERE u.is_active = TRUE AND 1 = 0 ORDER BY").
		WillReturnRows(testutil.MockRows(accountCols...))

	users, err := repo.ListScoped(context.Background(), domain.BuildScopeFilter(domain.NewScope(), "u.id"), "", 0)
	require.NoError(t, err)
	assert.Empty(t, users)

	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_UpdatePath(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewUserRepository(mockDB.Wrapped())

	mockDB.ExpectExec("UPDATE users").
		WithArgs(int64(5), "1 > 12").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("UPDATE users").
		WithArgs(int64(5), "1 > 12").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.UpdatePath(context.Background(), 5, "1 > 12")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdatePath(context.Background(), 5, "1 > 12")
	require.NoError(t, err)
	assert.False(t, changed)

	mockDB.ExpectationsWereMet(t)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewUserRepository(mockDB.Wrapped())

	mockDB.ExpectQuery("FROM users u WHERE u.id = $1").
		WithArgs(int64(404)).
		WillReturnRows(testutil.MockRows(accountCols...))

	u, err := repo.GetByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, u)

	mockDB.ExpectationsWereMet(t)
}
