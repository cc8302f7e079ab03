package rbac

import (
	"sort"
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Roles recognised by the default policy.
const (
	RoleAdmin      = shared.RoleAdmin
	RoleAccountant = "accountant"
	RoleAuditor    = "auditor"
)

// Policy maps role names to the permissions they grant. Roles missing from
// the policy grant nothing.
type Policy map[string][]string

// DefaultPolicy grants admins everything, accountants the day-to-day ledger
// work and auditors read access.
func DefaultPolicy() Policy {
	all := append(shared.FinanceScopes(), shared.CoreScopes()...)
	return Policy{
		RoleAdmin: all,
		RoleAccountant: {
			shared.PermFinanceGLView,
			shared.PermFinanceGLEdit,
			shared.PermFinanceGLPost,
			shared.PermFinancePeriodClose,
			shared.PermLoanProductsView,
		},
		RoleAuditor: {
			shared.PermFinanceGLView,
			shared.PermFinanceAuditView,
			shared.PermLoanProductsView,
		},
	}
}

// Catalog lists every permission known to the policy, sorted.
func (p Policy) Catalog() []string {
	seen := map[string]struct{}{}
	for _, perms := range p {
		for _, perm := range perms {
			seen[strings.ToLower(perm)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for perm := range seen {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}
