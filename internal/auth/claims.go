package auth

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// Roles decodes either a JSON array or a comma-separated string.
type Roles []string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Roles) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*r = shared.NormalizeRoles(list)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*r = nil
		return nil
	}
	*r = shared.NormalizeRoles(strings.Split(raw, ","))
	return nil
}

// Claims is the JWT payload issued at login.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Roles Roles  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the request principal.
func (c *Claims) Principal() *shared.Principal {
	return shared.NewPrincipal(c.Subject, c.Email, c.Name, c.Roles)
}
