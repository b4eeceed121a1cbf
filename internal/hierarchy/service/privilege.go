package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
	"github.com/lumigente/lumigente-backend/pkg/config"
)

// PrivilegePolicy decides who sees the whole organization.
// Department labels are compared exactly after normalization; substring
// matching is not used.
type PrivilegePolicy struct {
	adminRoles       map[string]struct{}
	labels           map[string]struct{}
	codes            map[string]struct{}
	excludedBranches []string
}

// NewPrivilegePolicy builds the policy from configuration
func NewPrivilegePolicy(cfg config.AccessConfig) *PrivilegePolicy {
	p := &PrivilegePolicy{
		adminRoles: make(map[string]struct{}, len(cfg.AdminRoles)),
		labels:     make(map[string]struct{}, len(cfg.PrivilegedLabels)),
		codes:      make(map[string]struct{}, len(cfg.PrivilegedCodes)),
	}
	for _, r := range cfg.AdminRoles {
		p.adminRoles[NormalizeLabel(r)] = struct{}{}
	}
	for _, l := range cfg.PrivilegedLabels {
		if n := NormalizeLabel(l); n != "" {
			p.labels[n] = struct{}{}
		}
	}
	for _, c := range cfg.PrivilegedCodes {
		if c = strings.TrimSpace(c); c != "" {
			p.codes[c] = struct{}{}
		}
	}
	for _, b := range cfg.ExcludedBranches {
		if n := NormalizeLabel(b); n != "" {
			p.excludedBranches = append(p.excludedBranches, n)
		}
	}
	return p
}

// Evaluate classifies the subject's privilege
func (p *PrivilegePolicy) Evaluate(s domain.Subject) domain.Privilege {
	var priv domain.Privilege

	if _, ok := p.adminRoles[NormalizeLabel(s.Role)]; ok && s.Role != "" {
		priv.Admin = true
	}

	if label := NormalizeLabel(s.DepartmentDescription); label != "" {
		if _, ok := p.labels[label]; ok {
			if isTrainingLabel(label) {
				priv.TD = true
			} else {
				priv.HR = true
			}
		}
	}

	if _, ok := p.codes[strings.TrimSpace(s.DepartmentCode)]; ok && !p.branchExcluded(s.Branch) {
		priv.HR = true
	}

	return priv
}

// IsPrivileged reports organization-wide visibility
func (p *PrivilegePolicy) IsPrivileged(s domain.Subject) bool {
	return p.Evaluate(s).Full()
}

// IsAdmin reports whether the role is an administrator role
func (p *PrivilegePolicy) IsAdmin(role string) bool {
	_, ok := p.adminRoles[NormalizeLabel(role)]
	return ok && role != ""
}

func (p *PrivilegePolicy) branchExcluded(branch string) bool {
	b := NormalizeLabel(branch)
	for _, marker := range p.excludedBranches {
		if strings.Contains(b, marker) {
			return true
		}
	}
	return false
}

func isTrainingLabel(label string) bool {
	return strings.Contains(label, "TREINAM") || strings.Contains(label, "DESENVOLV")
}

// NormalizeLabel upper-cases, strips accents and collapses whitespace
func NormalizeLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(stripped)), " ")
}
