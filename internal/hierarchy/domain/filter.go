package domain

import "strings"

// Filter is a parameterized SQL predicate restricting rows to a scope.
// Clause uses '?' bindvars; rebind it with sqlx before use.
type Filter struct {
	Clause string
	Args   []interface{}
}

// BuildScopeFilter renders the scope as a predicate on column.
// Privileged scopes produce an empty clause and an empty restricted scope matches nothing.
func BuildScopeFilter(scope AccessScope, column string) Filter {
	if scope.Privileged {
		return Filter{}
	}
	ids := scope.IDs()
	if len(ids) == 0 {
		return Filter{Clause: "1 = 0"}
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	return Filter{
		Clause: column + " IN (" + placeholders + ")",
		Args:   args,
	}
}

// Unrestricted reports whether the filter can be omitted
func (f Filter) Unrestricted() bool {
	return f.Clause == ""
}

// And renders the clause as a conjunction suffix, or "" when unrestricted
func (f Filter) And() string {
	if f.Unrestricted() {
		return ""
	}
	return " AND " + f.Clause
}
