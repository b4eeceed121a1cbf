package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

func TestPathResolver_Resolve(t *testing.T) {
	employees := &fakeEmployees{
		records: map[string]*domain.EmployeeRecord{
			"100": {RegistrationNumber: "100", Name: "Ana", DepartmentCode: "C", Branch: "SP", Status: "ATIVO"},
			"200": {RegistrationNumber: "200", Name: "Bruno", DepartmentCode: "D", Status: "ATIVO"},
		},
		active: map[string]bool{"B": true},
	}
	ledger := &fakeLedger{
		responsibleNodes: map[string]*domain.HierarchyNode{
			"100": {DepartmentCode: "C", FullPath: "A > B > X > C"},
		},
		departmentNodes: map[string]*domain.HierarchyNode{
			"D": {DepartmentCode: "D", FullPath: "A > X > E"},
		},
	}
	r := NewPathResolver(employees, ledger, logger.Nop())

	t.Run("responsible employee", func(t *testing.T) {
		info, err := r.Resolve(context.Background(), "100", "")
		require.NoError(t, err)
		assert.True(t, info.Found)
		assert.True(t, info.Responsible)
		assert.Equal(t, "A > B > C", info.Path)
		assert.Equal(t, domain.LevelCoordinator, info.Level)
		assert.Equal(t, "Coordenador", info.Role)
		assert.Equal(t, "SP", info.Branch)
	})

	t.Run("falls back to department node and inserts home", func(t *testing.T) {
		info, err := r.Resolve(context.Background(), "200", "")
		require.NoError(t, err)
		assert.False(t, info.Responsible)
		assert.Equal(t, "A > D > E", info.Path)
		assert.Equal(t, domain.LevelEmployee, info.Level)
	})

	t.Run("unknown employee", func(t *testing.T) {
		info, err := r.Resolve(context.Background(), "999", "")
		require.NoError(t, err)
		assert.False(t, info.Found)
		assert.Equal(t, "", info.Path)
		assert.Equal(t, domain.LevelEmployee, info.Level)
	})
}

func TestPathResolver_ValidatorFailureKeepsLedgerPath(t *testing.T) {
	employees := &fakeEmployees{
		records: map[string]*domain.EmployeeRecord{
			"100": {RegistrationNumber: "100", DepartmentCode: "C", Status: "ATIVO"},
		},
		activeErr: errors.New("timeout"),
	}
	ledger := &fakeLedger{
		responsibleNodes: map[string]*domain.HierarchyNode{
			"100": {DepartmentCode: "C", FullPath: "A > B > C"},
		},
	}

	info, err := NewPathResolver(employees, ledger, logger.Nop()).Resolve(context.Background(), "100", "")
	require.NoError(t, err)
	assert.Equal(t, "A > B > C", info.Path)
	assert.True(t, info.Found)
}

func TestPathResolver_StoreError(t *testing.T) {
	employees := &fakeEmployees{err: errors.New("connection refused")}

	_, err := NewPathResolver(employees, &fakeLedger{}, logger.Nop()).Resolve(context.Background(), "100", "")
	assert.Error(t, err)
}
