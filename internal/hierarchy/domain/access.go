package domain

// CurrentDepartmentCode returns the leaf of a path
func CurrentDepartmentCode(path string) string {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// DirectSuperiorCode returns the segment above the leaf
func DirectSuperiorCode(path string) string {
	parts := SplitPath(path)
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// ParentDepartment returns the segment preceding department in path. When the
// department is not in the path the segment preceding the leaf is used.
// Returns "" when there is no parent.
func ParentDepartment(path, department string) string {
	parts := SplitPath(path)
	i := lastIndexOf(parts, department)
	if i < 0 {
		i = len(parts) - 1
	}
	if i <= 0 {
		return ""
	}
	return parts[i-1]
}

// IsSubordinatePath reports whether sub lies strictly below manager in the tree
func IsSubordinatePath(managerPath, subPath string) bool {
	m, s := SplitPath(managerPath), SplitPath(subPath)
	if len(m) == 0 || len(s) <= len(m) {
		return false
	}
	for i := range m {
		if m[i] != s[i] {
			return false
		}
	}
	return true
}

// CanUserSeeOther reports whether the manager's department sits above the
// other's department, judged from both paths.
func CanUserSeeOther(managerPath, managerDept, otherPath, otherDept string) bool {
	managerInOther := indexOf(SplitPath(otherPath), managerDept)
	otherInManager := indexOf(SplitPath(managerPath), otherDept)
	if managerInOther < 0 || otherInManager < 0 {
		return false
	}
	return managerInOther < otherInManager
}

// Party is the minimal view of a user for pairwise access checks
type Party struct {
	Department string
	Level      int
	Admin      bool
}

// CanAccessUser applies the pairwise rule: admins see everyone, a higher level
// sees lower levels, and peers see each other within the same department.
func CanAccessUser(current, target Party) bool {
	if current.Admin {
		return true
	}
	if current.Level > target.Level {
		return true
	}
	return current.Level == target.Level && current.Department != "" && current.Department == target.Department
}
