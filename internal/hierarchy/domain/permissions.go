package domain

// Manager types reported with permissions
const (
	ManagerTypeAdmin    = "Administrador"
	ManagerTypeHR       = "RH"
	ManagerTypeTD       = "T&D"
	ManagerTypeManager  = "Gestor"
	ManagerTypeEmployee = "Funcionário"
)

// Privilege is the outcome of the privilege policy for one subject
type Privilege struct {
	Admin bool
	HR    bool
	TD    bool
}

// Full reports organization-wide visibility
func (p Privilege) Full() bool {
	return p.Admin || p.HR || p.TD
}

// BuildPermissions derives feature flags from the hierarchy level and privilege
func BuildPermissions(level int, priv Privilege) Permissions {
	level = clampLevel(level)
	manager := IsManagerLevel(level)
	full := priv.Full()

	managerType := ManagerTypeEmployee
	switch {
	case priv.Admin:
		managerType = ManagerTypeAdmin
	case priv.HR:
		managerType = ManagerTypeHR
	case priv.TD:
		managerType = ManagerTypeTD
	case manager:
		managerType = ManagerTypeManager
	}

	return Permissions{
		Level:             level,
		Role:              RoleForLevel(level),
		ManagerType:       managerType,
		IsManager:         manager,
		FullAccess:        full,
		Dashboard:         true,
		Feedbacks:         true,
		Recognitions:      true,
		Mood:              true,
		Objectives:        true,
		Surveys:           true,
		Evaluations:       manager,
		Team:              manager,
		Analytics:         full,
		History:           full,
		CreateSurveys:     full,
		CreateEvaluations: manager,
		CompanyMood:       manager,
	}
}
