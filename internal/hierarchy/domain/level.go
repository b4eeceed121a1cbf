package domain

// Hierarchy levels, lowest first
const (
	LevelEmployee    = 1
	LevelSupervisor  = 2
	LevelCoordinator = 3
	LevelDirector    = 4
)

// ClassifyConfirmed ranks a subject the ledger confirmed as responsible for a
// department: the number of ancestors of that department in the path plus one,
// clamped to 1..4. Everybody else is an employee.
func ClassifyConfirmed(path, department string, responsible bool) int {
	if !responsible || department == "" {
		return LevelEmployee
	}
	i := indexOf(SplitPath(path), department)
	if i < 0 {
		return LevelEmployee
	}
	return clampLevel(i + 1)
}

// ClassifyHeuristic is the legacy rank derived from path length alone when the
// department is the leaf. It is not monotonic in depth and is only used to
// report disagreements with ClassifyConfirmed.
func ClassifyHeuristic(path, department string) int {
	parts := SplitPath(path)
	if len(parts) == 0 || department == "" || parts[len(parts)-1] != department {
		return LevelEmployee
	}
	switch len(parts) {
	case 4:
		return LevelCoordinator
	case 3:
		return LevelSupervisor
	case 2, 1:
		return LevelDirector
	default:
		return LevelEmployee
	}
}

// Discrepancy returns both ranks and whether they disagree
func Discrepancy(path, department string, responsible bool) (confirmed, heuristic int, differ bool) {
	confirmed = ClassifyConfirmed(path, department, responsible)
	heuristic = ClassifyHeuristic(path, department)
	return confirmed, heuristic, confirmed != heuristic
}

// RoleForLevel names a level
func RoleForLevel(level int) string {
	switch clampLevel(level) {
	case LevelDirector:
		return "Diretor"
	case LevelCoordinator:
		return "Coordenador"
	case LevelSupervisor:
		return "Supervisor"
	default:
		return "Funcionário"
	}
}

// IsManagerLevel reports whether the level manages people
func IsManagerLevel(level int) bool {
	return level >= LevelSupervisor
}

func clampLevel(level int) int {
	if level < LevelEmployee {
		return LevelEmployee
	}
	if level > LevelDirector {
		return LevelDirector
	}
	return level
}
