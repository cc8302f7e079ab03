package shared

import (
	"strconv"
	"strings"
)

// RoleAdmin is the role granting every administrative capability.
const RoleAdmin = "admin"

// Principal is the identity derived from a bearer token.
type Principal struct {
	Subject string   `json:"sub"`
	UserID  int64    `json:"-"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Roles   []string `json:"roles"`
}

// NewPrincipal normalises roles and resolves the numeric user id from the subject.
func NewPrincipal(subject, email, name string, roles []string) *Principal {
	p := &Principal{Subject: subject, Email: email, Name: name, Roles: NormalizeRoles(roles)}
	if id, err := strconv.ParseInt(strings.TrimSpace(subject), 10, 64); err == nil {
		p.UserID = id
	}
	return p
}

// HasRole reports whether the principal carries role (case-insensitive).
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin is the single capability check used to gate administrative screens and routes.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// NormalizeRoles lower-cases, trims and de-duplicates roles preserving order.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
