// Package domain holds the organizational hierarchy model and the pure rules
// over it: path sanitization, level classification, access checks and scope filters.
package domain

import "time"

// Employee status values in the history table
const (
	StatusActive = "ATIVO"
)

// EmployeeRecord is one row of the employee history
type EmployeeRecord struct {
	RegistrationNumber string     `db:"registration_number" json:"registration_number"`
	NationalID         string     `db:"national_id" json:"national_id"`
	Name               string     `db:"name" json:"name"`
	DepartmentCode     string     `db:"department_code" json:"department_code"`
	Branch             string     `db:"branch" json:"branch"`
	Status             string     `db:"status" json:"status"`
	AdmissionDate      *time.Time `db:"admission_date" json:"admission_date,omitempty"`
}

// IsActive reports whether the record is an active employment
func (e *EmployeeRecord) IsActive() bool {
	return e.Status == StatusActive
}

// HierarchyNode is one department of the hierarchy ledger
type HierarchyNode struct {
	DepartmentCode          string `db:"department_code" json:"department_code"`
	Description             string `db:"description" json:"description"`
	FullPath                string `db:"full_path" json:"full_path"`
	ResponsibleRegistration string `db:"responsible_registration" json:"responsible_registration"`
	Branch                  string `db:"branch" json:"branch"`
}

// UserAccount is a platform account
type UserAccount struct {
	ID                    int64      `db:"id" json:"id"`
	RegistrationNumber    string     `db:"registration_number" json:"registration_number"`
	NationalID            string     `db:"national_id" json:"-"`
	FullName              string     `db:"full_name" json:"full_name"`
	DepartmentCode        string     `db:"department_code" json:"department_code"`
	DepartmentDescription string     `db:"department_description" json:"department_description"`
	HierarchyPath         string     `db:"hierarchy_path" json:"hierarchy_path"`
	Role                  string     `db:"role" json:"role"`
	Branch                string     `db:"branch" json:"branch"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	LastLogin             *time.Time `db:"last_login" json:"last_login,omitempty"`
}

// Member is an account annotated with its computed hierarchy level
type Member struct {
	UserAccount
	Responsible bool   `db:"responsible" json:"responsible"`
	Level       int    `db:"-" json:"hierarchy_level"`
	RoleName    string `db:"-" json:"hierarchy_role"`
}

// Subject describes the requester whose visibility is being resolved
type Subject struct {
	UserID                int64
	RegistrationNumber    string
	NationalID            string
	Name                  string
	Role                  string
	DepartmentCode        string
	DepartmentDescription string
	Branch                string
	HierarchyPath         string
}

// SubjectFromAccount builds a subject from a stored account
func SubjectFromAccount(u *UserAccount) Subject {
	return Subject{
		UserID:                u.ID,
		RegistrationNumber:    u.RegistrationNumber,
		NationalID:            u.NationalID,
		Name:                  u.FullName,
		Role:                  u.Role,
		DepartmentCode:        u.DepartmentCode,
		DepartmentDescription: u.DepartmentDescription,
		Branch:                u.Branch,
		HierarchyPath:         u.HierarchyPath,
	}
}

// Info is the resolved organizational position of an employee
type Info struct {
	Path        string `json:"path"`
	Department  string `json:"department"`
	Branch      string `json:"branch"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Role        string `json:"role"`
	Responsible bool   `json:"responsible"`
	Found       bool   `json:"found"`
}

// ScopeOptions narrows scope resolution
type ScopeOptions struct {
	DirectReportsOnly bool
}

// DepartmentCount is the number of active users in a department
type DepartmentCount struct {
	DepartmentCode        string `db:"department_code" json:"department_code"`
	DepartmentDescription string `db:"department_description" json:"department_description"`
	Users                 int64  `db:"users" json:"users"`
}

// Permissions are the feature flags derived from level and privilege
type Permissions struct {
	Level             int    `json:"level"`
	Role              string `json:"role"`
	ManagerType       string `json:"manager_type"`
	IsManager         bool   `json:"is_manager"`
	FullAccess        bool   `json:"full_access"`
	Dashboard         bool   `json:"dashboard"`
	Feedbacks         bool   `json:"feedbacks"`
	Recognitions      bool   `json:"recognitions"`
	Mood              bool   `json:"mood"`
	Objectives        bool   `json:"objectives"`
	Surveys           bool   `json:"surveys"`
	Evaluations       bool   `json:"evaluations"`
	Team              bool   `json:"team"`
	Analytics         bool   `json:"analytics"`
	History           bool   `json:"history"`
	CreateSurveys     bool   `json:"create_surveys"`
	CreateEvaluations bool   `json:"create_evaluations"`
	CompanyMood       bool   `json:"company_mood"`
}
