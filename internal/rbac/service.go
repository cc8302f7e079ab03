package rbac

import (
	"sort"
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Service resolves effective permissions for principals.
type Service struct {
	policy Policy
}

// NewService constructs a Service over policy. A nil policy uses DefaultPolicy.
func NewService(policy Policy) *Service {
	if policy == nil {
		policy = DefaultPolicy()
	}
	normalized := make(Policy, len(policy))
	for role, perms := range policy {
		role = strings.ToLower(strings.TrimSpace(role))
		normalized[role] = append(normalized[role], normalizePermissions(perms)...)
	}
	return &Service{policy: normalized}
}

// Policy returns the role to permission mapping in use.
func (s *Service) Policy() Policy {
	return s.policy
}

// EffectivePermissions unions the permissions of every role the principal holds.
// Admins receive the whole catalog regardless of the policy entry.
func (s *Service) EffectivePermissions(p *shared.Principal) []string {
	if p == nil {
		return nil
	}
	if p.IsAdmin() {
		return s.policy.Catalog()
	}
	seen := map[string]struct{}{}
	for _, role := range p.Roles {
		for _, perm := range s.policy[role] {
			seen[perm] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for perm := range seen {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}
