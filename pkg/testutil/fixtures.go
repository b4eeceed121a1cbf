package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// EmployeeFixture is one employee_history row
type EmployeeFixture struct {
	RegistrationNumber string    `db:"registration_number"`
	NationalID         string    `db:"national_id"`
	Name               string    `db:"name"`
	DepartmentCode     string    `db:"department_code"`
	Branch             *string   `db:"branch"`
	Status             string    `db:"status"`
	AdmissionDate      time.Time `db:"admission_date"`
}

// NodeFixture is one hierarchy_cc row
type NodeFixture struct {
	DepartmentCode          string  `db:"department_code"`
	Description             string  `db:"description"`
	FullPath                string  `db:"full_path"`
	ResponsibleRegistration *string `db:"responsible_registration"`
	ResponsibleNationalID   *string `db:"responsible_national_id"`
	Level1Registration      *string `db:"level1_registration"`
	Level2Registration      *string `db:"level2_registration"`
	Level3Registration      *string `db:"level3_registration"`
	Level4Registration      *string `db:"level4_registration"`
	Branch                  *string `db:"branch"`
}

// UserFixture is one users row
type UserFixture struct {
	ID                    int64      `db:"id"`
	RegistrationNumber    string     `db:"registration_number"`
	NationalID            string     `db:"national_id"`
	FullName              string     `db:"full_name"`
	DepartmentCode        string     `db:"department_code"`
	DepartmentDescription string     `db:"department_description"`
	HierarchyPath         string     `db:"hierarchy_path"`
	Role                  string     `db:"role"`
	Branch                *string    `db:"branch"`
	IsActive              bool       `db:"is_active"`
	LastLogin             *time.Time `db:"last_login"`
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Employee creates an active employee fixture
func (f *FixtureFactory) Employee(opts ...func(*EmployeeFixture)) EmployeeFixture {
	seq := f.nextSeq()
	e := EmployeeFixture{
		RegistrationNumber: fmt.Sprintf("%06d", seq),
		NationalID:         fmt.Sprintf("%011d", seq),
		Name:               fmt.Sprintf("Colaborador %d", seq),
		DepartmentCode:     "100",
		Status:             "ATIVO",
		AdmissionDate:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Node creates a hierarchy node fixture for the given department and path
func (f *FixtureFactory) Node(department, path string, opts ...func(*NodeFixture)) NodeFixture {
	n := NodeFixture{
		DepartmentCode: department,
		Description:    "Departamento " + department,
		FullPath:       path,
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// User creates an active account fixture
func (f *FixtureFactory) User(opts ...func(*UserFixture)) UserFixture {
	seq := f.nextSeq()
	u := UserFixture{
		RegistrationNumber: fmt.Sprintf("%06d", seq),
		NationalID:         fmt.Sprintf("%011d", seq),
		FullName:           fmt.Sprintf("Usuario %d", seq),
		DepartmentCode:     "100",
		Role:               "Funcionário",
		IsActive:           true,
	}
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// InsertEmployee writes the fixture to employee_history
func InsertEmployee(ctx context.Context, db *sqlx.DB, e EmployeeFixture) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO employee_history
			(registration_number, national_id, name, department_code, branch, status, admission_date)
		VALUES
			(:registration_number, :national_id, :name, :department_code, :branch, :status, :admission_date)`, e)
	return err
}

// InsertNode writes the fixture to hierarchy_cc
func InsertNode(ctx context.Context, db *sqlx.DB, n NodeFixture) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO hierarchy_cc
			(department_code, description, full_path, responsible_registration, responsible_national_id,
			 level1_registration, level2_registration, level3_registration, level4_registration, branch)
		VALUES
			(:department_code, :description, :full_path, :responsible_registration, :responsible_national_id,
			 :level1_registration, :level2_registration, :level3_registration, :level4_registration, :branch)`, n)
	return err
}

// InsertUser writes the fixture to users and returns the generated id
func InsertUser(ctx context.Context, db *sqlx.DB, u UserFixture) (int64, error) {
	rows, err := db.NamedQueryContext(ctx, `
		INSERT INTO users
			(registration_number, national_id, full_name, department_code, department_description,
			 hierarchy_path, role, branch, is_active, last_login)
		VALUES
			(:registration_number, :national_id, :full_name, :department_code, :department_description,
			 :hierarchy_path, :role, :branch, :is_active, :last_login)
		RETURNING id`, u)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, rows.Err()
}
