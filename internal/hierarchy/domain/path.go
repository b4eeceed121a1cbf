package domain

import (
	"context"
	"strings"
)

// PathSeparator joins department codes from root to leaf
const PathSeparator = " > "

// DepartmentValidator reports which department codes are the home department
// of at least one active employee.
type DepartmentValidator interface {
	ActiveDepartments(ctx context.Context, codes []string) (map[string]bool, error)
}

// SplitPath splits on '>' and drops blank segments
func SplitPath(path string) []string {
	raw := strings.Split(path, ">")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// JoinPath joins segments with PathSeparator
func JoinPath(parts []string) string {
	return strings.Join(parts, PathSeparator)
}

// Sanitize rebuilds a ledger path so that it only keeps live departments and
// always contains the employee's home department.
//
// Root and leaf are always kept; intermediate segments survive only when the
// validator confirms them. On validator failure the original path is returned
// together with the error.
func Sanitize(ctx context.Context, path, home string, v DepartmentValidator) (string, error) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return "", nil
	}
	home = strings.TrimSpace(home)

	first, last := parts[0], parts[len(parts)-1]

	var kept []string
	if len(parts) > 2 {
		middle := parts[1 : len(parts)-1]
		active, err := v.ActiveDepartments(ctx, distinct(middle))
		if err != nil {
			return path, err
		}
		for _, code := range middle {
			if active[code] {
				kept = append(kept, code)
			}
		}
	}

	rebuilt := make([]string, 0, len(kept)+3)
	rebuilt = append(rebuilt, first)
	rebuilt = append(rebuilt, kept...)
	if last != first {
		rebuilt = append(rebuilt, last)
	}

	if home != "" && !contains(rebuilt, home) {
		if len(rebuilt) == 1 {
			rebuilt = append(rebuilt, home)
		} else {
			leaf := rebuilt[len(rebuilt)-1]
			rebuilt = append(rebuilt[:len(rebuilt)-1], home, leaf)
		}
	}

	return JoinPath(distinct(rebuilt)), nil
}

// distinct keeps the first occurrence of each value
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func contains(values []string, v string) bool {
	return indexOf(values, v) >= 0
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}

func lastIndexOf(values []string, v string) int {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] == v {
			return i
		}
	}
	return -1
}
