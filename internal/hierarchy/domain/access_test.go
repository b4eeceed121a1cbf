package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "C", CurrentDepartmentCode("A > B > C"))
	assert.Equal(t, "", CurrentDepartmentCode(""))
	assert.Equal(t, "B", DirectSuperiorCode("A > B > C"))
	assert.Equal(t, "", DirectSuperiorCode("A"))
}

func TestParentDepartment(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		department string
		want       string
	}{
		{"department is leaf", "A > B > C", "C", "B"},
		{"department in middle", "A > B > C", "B", "A"},
		{"department missing uses leaf", "A > B > C", "X", "B"},
		{"department is root", "A > B", "A", ""},
		{"single segment", "A", "A", ""},
		{"repeated department uses last", "A > B > A > C", "A", "B"},
		{"empty path", "", "A", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParentDepartment(tt.path, tt.department))
		})
	}
}

func TestIsSubordinatePath(t *testing.T) {
	assert.True(t, IsSubordinatePath("A > B", "A > B > C"))
	assert.False(t, IsSubordinatePath("A > B", "A > B"))
	assert.False(t, IsSubordinatePath("A > B > C", "A > B"))
	assert.False(t, IsSubordinatePath("A > B", "A > BX > C"))
	assert.False(t, IsSubordinatePath("", "A"))
}

func TestCanUserSeeOther(t *testing.T) {
	tests := []struct {
		name                     string
		managerPath, managerDept string
		otherPath, otherDept     string
		want                     bool
	}{
		{"manager above", "A > B > C", "B", "A > B > C", "C", true},
		{"same position", "A > B", "B", "A > B", "B", false},
		{"manager missing from other path", "A > B", "B", "A > X > C", "C", false},
		{"other missing from manager path", "A > B", "B", "A > B > C", "C", false},
		{"manager below", "A > B > C", "C", "A > B > C", "B", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUserSeeOther(tt.managerPath, tt.managerDept, tt.otherPath, tt.otherDept))
		})
	}
}

func TestCanAccessUser(t *testing.T) {
	tests := []struct {
		name    string
		current Party
		target  Party
		want    bool
	}{
		{"admin", Party{Level: 1, Admin: true}, Party{Level: 4}, true},
		{"higher level", Party{Level: 3, Department: "X"}, Party{Level: 2, Department: "Y"}, true},
		{"same level same department", Party{Level: 2, Department: "X"}, Party{Level: 2, Department: "X"}, true},
		{"same level other department", Party{Level: 2, Department: "X"}, Party{Level: 2, Department: "Y"}, false},
		{"lower level", Party{Level: 1, Department: "X"}, Party{Level: 2, Department: "X"}, false},
		{"same level without department", Party{Level: 1}, Party{Level: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessUser(tt.current, tt.target))
		})
	}
}
